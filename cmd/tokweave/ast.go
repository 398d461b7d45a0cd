package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmoose/dtcgcore/pkg/graph"
	"github.com/dmoose/dtcgcore/pkg/manifest"
	"github.com/dmoose/dtcgcore/pkg/merge"
	"github.com/dmoose/dtcgcore/pkg/tok"
)

var astCmd = &cobra.Command{
	Use:   "ast",
	Short: "Print the annotated reference graph for a manifest's base set",
	Long: `Ast composes a manifest's base sets (no modifiers applied) and
prints the resulting annotated reference graph as JSON: one node per
token/group with its declared and effective type, one edge per reference,
plus cycle and depth statistics. Useful for inspecting a token system's
shape without producing a build artifact.`,
	RunE: runAst,
}

var astManifestPath string
var astOutput string

func init() {
	astCmd.Flags().StringVar(&astManifestPath, "manifest", "", "Path to the build manifest (required)")
	astCmd.Flags().StringVarP(&astOutput, "output", "o", "", "Write the graph JSON here instead of stdout")
	_ = astCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(astCmd)
}

func runAst(cmd *cobra.Command, args []string) error {
	if astManifestPath == "" {
		return fmt.Errorf("--manifest is required")
	}

	l := newLoader()
	manifestDoc, err := l.ReadManifest(astManifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest %s: %w", astManifestPath, err)
	}
	m, err := manifest.Parse(manifestDoc)
	if err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", astManifestPath, err)
	}

	baseDir := filepath.Dir(astManifestPath)
	files, err := l.ExpandGlobs(baseDir, m.SetFiles)
	if err != nil {
		return fmt.Errorf("failed to expand set file globs: %w", err)
	}
	var composed *tok.OrderedMap
	for _, f := range files {
		doc, err := l.ReadDocument(filepath.Join(baseDir, f))
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		if composed == nil {
			composed = doc.Clone()
			continue
		}
		merged, _, err := merge.Merge(composed, doc, merge.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to merge %s: %w", f, err)
		}
		composed = merged
	}
	if composed == nil {
		composed = tok.NewOrderedMap()
	}

	g, err := graph.Build(composed)
	if err != nil {
		return fmt.Errorf("failed to build reference graph: %w", err)
	}

	out, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}

	if astOutput == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(astOutput), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(astOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", astOutput, err)
	}
	fmt.Printf("Wrote %s\n", astOutput)
	return nil
}
