// Package bundle drives the end-to-end build pipeline: for every
// permutation a manifest enumerates, load its files, compose them with the
// merge engine, resolve external then (optionally) all references, convert
// to the target reference dialect, and write the result. Permutations in a
// batch run concurrently and fail independently of one another.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/dmoose/dtcgcore/pkg/convert"
	"github.com/dmoose/dtcgcore/pkg/loader"
	"github.com/dmoose/dtcgcore/pkg/manifest"
	"github.com/dmoose/dtcgcore/pkg/merge"
	"github.com/dmoose/dtcgcore/pkg/resolve"
	"github.com/dmoose/dtcgcore/pkg/tok"
	"github.com/dmoose/dtcgcore/pkg/validate"
)

// Stage identifies where in the pipeline a BundleError occurred.
type Stage string

const (
	StageLoad            Stage = "load"
	StageCompose         Stage = "compose"
	StageResolveExternal Stage = "resolve-external"
	StageResolveAll      Stage = "resolve-all"
	StageConvert         Stage = "convert"
	StageWrite           Stage = "write"
)

// BundleError reports the failure of a single permutation, tagged with the
// stage it failed at.
type BundleError struct {
	PermutationID string
	Stage         Stage
	Err           error
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("bundle: %s: stage %s: %v", e.PermutationID, e.Stage, e.Err)
}

func (e *BundleError) Unwrap() error { return e.Err }

// Writer abstracts where bundled output is written, so tests can capture
// output without touching disk.
type Writer interface {
	Write(path string, content []byte) error
}

// Config controls how a Bundler composes and writes permutations.
type Config struct {
	BaseDir      string
	OutputDir    string
	Dialect      convert.Dialect
	Convert      bool // whether to run the convert stage at all
	ResolveAll   bool // whether to run the resolve-all stage beyond resolve-external
	MaxRefDepth  int
	MergeOptions merge.Options
	Writer       Writer
	Concurrency  int
	// Strict upgrades unresolved/cyclic/depth-exceeded reference warnings
	// from the resolve-external and resolve-all stages into a fatal
	// BundleError for the permutation, matching the validator's strict
	// promotion policy.
	Strict bool
}

// BundleResult is the outcome of successfully bundling one permutation.
type BundleResult struct {
	PermutationID   string
	OutputPath      string
	Document        *tok.OrderedMap
	ConvertWarnings []convert.Warning
	MergeConflicts  []merge.Conflict
	// ResolveWarnings collects non-fatal ref-unresolved/ref-cycle/ref-depth
	// diagnostics from the resolve-external and resolve-all stages; these
	// references are left as literal $ref/alias strings in Document. Empty
	// unless Config.Strict is false and at least one reference failed to
	// resolve.
	ResolveWarnings []resolve.Error
	Validation      *validate.ValidationResult
}

// BatchResult is the outcome of bundling every permutation of a manifest.
type BatchResult struct {
	RunID   string
	Results []BundleResult
	Errors  []BundleError
}

// Bundler runs the bundling pipeline for a manifest's permutations.
type Bundler struct {
	loader    *loader.Loader
	cfg       Config
	validator *validate.Adapter
}

// New returns a Bundler. validator may be nil to skip the validation stage.
func New(l *loader.Loader, cfg Config, validator *validate.Adapter) *Bundler {
	return &Bundler{loader: l, cfg: cfg, validator: validator}
}

// BundleManifest enumerates manifestDoc's permutations and bundles every
// one of them concurrently, isolating failures so one bad permutation does
// not prevent the rest of the batch from completing.
func (b *Bundler) BundleManifest(ctx context.Context, manifestDoc *tok.OrderedMap) (*BatchResult, error) {
	m, err := manifest.Parse(manifestDoc)
	if err != nil {
		return nil, fmt.Errorf("bundle: parsing manifest: %w", err)
	}
	perms, err := manifest.EnumeratePermutations(m)
	if err != nil {
		return nil, fmt.Errorf("bundle: enumerating permutations: %w", err)
	}

	type outcome struct {
		result *BundleResult
		err    *BundleError
	}

	concurrency := b.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	p := pool.NewWithResults[outcome]().WithContext(ctx).WithMaxGoroutines(concurrency)
	for _, perm := range perms {
		perm := perm
		p.Go(func(ctx context.Context) (outcome, error) {
			result, buildErr := b.bundleOne(ctx, perm)
			if buildErr != nil {
				return outcome{err: buildErr}, nil
			}
			return outcome{result: result}, nil
		})
	}
	outcomes, err := p.Wait()
	if err != nil {
		return nil, fmt.Errorf("bundle: batch run aborted: %w", err)
	}

	batch := &BatchResult{RunID: uuid.NewString()}
	for _, o := range outcomes {
		if o.err != nil {
			batch.Errors = append(batch.Errors, *o.err)
			continue
		}
		batch.Results = append(batch.Results, *o.result)
	}
	return batch, nil
}

func (b *Bundler) bundleOne(ctx context.Context, perm manifest.Permutation) (*BundleResult, *BundleError) {
	if err := ctx.Err(); err != nil {
		return nil, &BundleError{PermutationID: perm.ID, Stage: StageLoad, Err: err}
	}

	files, err := b.loader.ExpandGlobs(b.cfg.BaseDir, perm.Files)
	if err != nil {
		return nil, &BundleError{PermutationID: perm.ID, Stage: StageLoad, Err: err}
	}

	var composed *tok.OrderedMap
	var conflicts []merge.Conflict
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, &BundleError{PermutationID: perm.ID, Stage: StageCompose, Err: err}
		}
		doc, err := b.loader.ReadDocument(filepath.Join(b.cfg.BaseDir, f))
		if err != nil {
			return nil, &BundleError{PermutationID: perm.ID, Stage: StageLoad, Err: err}
		}
		if composed == nil {
			composed = doc.Clone()
			continue
		}
		merged, c, err := merge.Merge(composed, doc, b.cfg.MergeOptions)
		if err != nil {
			return nil, &BundleError{PermutationID: perm.ID, Stage: StageCompose, Err: err}
		}
		composed = merged
		conflicts = append(conflicts, c...)
	}
	if composed == nil {
		composed = tok.NewOrderedMap()
	}

	maxDepth := b.cfg.MaxRefDepth
	if maxDepth <= 0 {
		maxDepth = resolve.DefaultMaxDepth
	}

	var resolveWarnings []resolve.Error

	extSession := resolve.NewSession(b.loader, resolve.Options{Mode: resolve.ExternalOnly, MaxDepth: maxDepth})
	composed, errs := extSession.ResolveDocument(b.cfg.BaseDir, composed)
	if len(errs) > 0 {
		if b.cfg.Strict {
			return nil, &BundleError{PermutationID: perm.ID, Stage: StageResolveExternal, Err: errs[0]}
		}
		resolveWarnings = append(resolveWarnings, errs...)
	}

	if b.cfg.ResolveAll {
		allSession := resolve.NewSession(b.loader, resolve.Options{Mode: resolve.All, MaxDepth: maxDepth})
		composed, errs = allSession.ResolveDocument(b.cfg.BaseDir, composed)
		if len(errs) > 0 {
			if b.cfg.Strict {
				return nil, &BundleError{PermutationID: perm.ID, Stage: StageResolveAll, Err: errs[0]}
			}
			resolveWarnings = append(resolveWarnings, errs...)
		}
	}

	var convertWarnings []convert.Warning
	if b.cfg.Convert {
		converted, warnings := convert.ToDialect(composed, b.cfg.Dialect)
		composed = converted
		convertWarnings = warnings
	}

	var vr *validate.ValidationResult
	if b.validator != nil {
		result, err := b.validator.Validate(composed)
		if err != nil {
			return nil, &BundleError{PermutationID: perm.ID, Stage: StageWrite, Err: err}
		}
		vr = &result
	}

	outPath := filepath.Join(b.cfg.OutputDir, perm.ID+".json")
	if b.cfg.Writer != nil {
		content, err := json.MarshalIndent(composed, "", "  ")
		if err != nil {
			return nil, &BundleError{PermutationID: perm.ID, Stage: StageWrite, Err: err}
		}
		if err := b.cfg.Writer.Write(outPath, content); err != nil {
			return nil, &BundleError{PermutationID: perm.ID, Stage: StageWrite, Err: err}
		}
	}

	return &BundleResult{
		PermutationID:   perm.ID,
		OutputPath:      outPath,
		Document:        composed,
		ConvertWarnings: convertWarnings,
		MergeConflicts:  conflicts,
		ResolveWarnings: resolveWarnings,
		Validation:      vr,
	}, nil
}
