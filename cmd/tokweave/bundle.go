package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmoose/dtcgcore/pkg/bundle"
	"github.com/dmoose/dtcgcore/pkg/convert"
	"github.com/dmoose/dtcgcore/pkg/manifest"
	"github.com/dmoose/dtcgcore/pkg/merge"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Compose and resolve the permutations a manifest declares",
	Long: `Bundle enumerates every permutation a manifest declares, composes
each one's files with the merge engine, resolves references, optionally
converts to a target reference dialect, and writes the resulting
documents. --theme/--mode narrow the list of written permutations that is
reported; every permutation is still built and written.

Examples:
  tokweave bundle --manifest tokens/manifest.json
  tokweave bundle --manifest tokens/manifest.json --theme dark --resolve-refs
  tokweave bundle --manifest tokens/manifest.json --format alias --output dist`,
	RunE: runBundle,
}

var (
	bundleManifestPath string
	bundleTheme        string
	bundleMode         string
	bundleFormat       string
	bundleResolveRefs  bool
	bundleResolveExt   bool
	bundleOutput       string
	bundleStrict       bool
)

func init() {
	bundleCmd.Flags().StringVar(&bundleManifestPath, "manifest", "", "Path to the build manifest (required)")
	bundleCmd.Flags().StringVar(&bundleTheme, "theme", "", "Report only permutations whose \"theme\" modifier selects this option")
	bundleCmd.Flags().StringVar(&bundleMode, "mode", "", "Report only permutations whose \"mode\" modifier selects this option")
	bundleCmd.Flags().StringVar(&bundleFormat, "format", "preserve", "Output reference dialect: pointer, alias, or preserve")
	bundleCmd.Flags().BoolVar(&bundleResolveRefs, "resolve-refs", false, "Resolve every internal and alias reference to its value")
	bundleCmd.Flags().BoolVar(&bundleResolveExt, "resolve-external", false, "Accepted for symmetry with --resolve-refs; external file references are always resolved")
	bundleCmd.Flags().StringVarP(&bundleOutput, "output", "o", "dist", "Output directory")
	bundleCmd.Flags().BoolVar(&bundleStrict, "strict", false, "Treat unresolved, cyclic, or depth-exceeded references as fatal")
	_ = bundleCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	if bundleManifestPath == "" {
		return fmt.Errorf("--manifest is required")
	}

	var dialect convert.Dialect
	doConvert := true
	switch bundleFormat {
	case "pointer":
		dialect = convert.PointerDialect
	case "alias":
		dialect = convert.AliasDialect
	case "preserve":
		doConvert = false
	default:
		return fmt.Errorf("unknown --format %q (valid: pointer, alias, preserve)", bundleFormat)
	}

	l := newLoader()
	manifestDoc, err := l.ReadManifest(bundleManifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest %s: %w", bundleManifestPath, err)
	}

	// External references are always resolved as part of composing a
	// permutation; --resolve-external is accepted for symmetry with
	// --resolve-refs but only the latter (full internal+alias resolution)
	// changes pipeline behavior.
	_ = bundleResolveExt

	cfg := bundle.Config{
		BaseDir:      filepath.Dir(bundleManifestPath),
		OutputDir:    bundleOutput,
		Dialect:      dialect,
		Convert:      doConvert,
		ResolveAll:   bundleResolveRefs,
		MergeOptions: merge.DefaultOptions(),
		Writer:       osWriter{},
		Concurrency:  4,
		Strict:       bundleStrict,
	}

	b := bundle.New(l, cfg, nil)

	fmt.Printf("Bundling %s...\n", bundleManifestPath)
	result, err := b.BundleManifest(context.Background(), manifestDoc)
	if err != nil {
		return err
	}

	selections := make(map[string]map[string]manifest.Selection)
	if bundleTheme != "" || bundleMode != "" {
		if m, err := manifest.Parse(manifestDoc); err == nil {
			if perms, err := manifest.EnumeratePermutations(m); err == nil {
				for _, p := range perms {
					selections[p.ID] = p.Selections
				}
			}
		}
	}

	filtered := filterPermutations(result, selections, bundleTheme, bundleMode)

	for _, r := range filtered {
		fmt.Printf("  wrote %s\n", r.OutputPath)
		for _, w := range r.ConvertWarnings {
			fmt.Printf("    [Warning] %s: %s\n", w.Path, w.Note)
		}
		for _, w := range r.ResolveWarnings {
			fmt.Printf("    [Warning] %s: %s\n", w.Kind, w.Error())
		}
	}
	for _, e := range result.Errors {
		fmt.Printf("  [Error] %s\n", e.Error())
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("bundle run %s: %d permutation(s) failed", result.RunID, len(result.Errors))
	}
	return nil
}

// filterPermutations narrows a batch's results to those selecting theme
// and/or mode, when either is given. Selection is matched against the
// modifier names "theme" and "mode" by convention; manifests that name
// their modifiers differently, or that don't declare a "theme"/"mode"
// modifier at all, are unaffected by these flags.
func filterPermutations(result *bundle.BatchResult, selections map[string]map[string]manifest.Selection, theme, mode string) []bundle.BundleResult {
	if theme == "" && mode == "" {
		return result.Results
	}
	var out []bundle.BundleResult
	for _, r := range result.Results {
		sel, ok := selections[r.PermutationID]
		if !ok {
			out = append(out, r)
			continue
		}
		if theme != "" && !selectionMatches(sel, "theme", theme) {
			continue
		}
		if mode != "" && !selectionMatches(sel, "mode", mode) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func selectionMatches(sel map[string]manifest.Selection, modifier, want string) bool {
	s, ok := sel[modifier]
	if !ok {
		return true
	}
	if s.Kind == manifest.OneOf {
		return s.One == want
	}
	for _, opt := range s.Any {
		if opt == want {
			return true
		}
	}
	return false
}
