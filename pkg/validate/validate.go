// Package validate implements the pluggable validator adapter: it combines
// structural JSON Schema validation with reference-integrity checks (via
// pkg/graph) into a single ValidationResult, with a pluggable schema
// backend and a strict mode that promotes warnings into errors.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/dmoose/dtcgcore/pkg/colors"
	"github.com/dmoose/dtcgcore/pkg/dimension"
	"github.com/dmoose/dtcgcore/pkg/graph"
	"github.com/dmoose/dtcgcore/pkg/refpath"
	"github.com/dmoose/dtcgcore/pkg/resolve"
	"github.com/dmoose/dtcgcore/pkg/tok"
)

// Severity classifies an Issue.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one structural or reference-integrity problem found in a
// document.
type Issue struct {
	Severity Severity
	Kind     string
	Path     tok.Path
	Message  string
}

// ValidationResult is the combined output of a Validate call.
type ValidationResult struct {
	Errors   []Issue
	Warnings []Issue
}

// Valid reports whether the document passed validation (no errors; with
// Options.Strict, no promoted warnings either, since they are moved into
// Errors up front).
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// SchemaValidator is the pluggable structural validation backend. Callers
// that don't want JSON Schema validation (or want a different schema
// engine) can supply their own implementation.
type SchemaValidator interface {
	Validate(instance any) []Issue
}

// Options configures an Adapter.
type Options struct {
	Schema SchemaValidator // nil skips structural validation
	// Strict promotes every warning (unresolved references, reference
	// cycles, depth overruns) to an error.
	Strict bool
	// MaxDepth bounds acceptable reference chain length; a token whose
	// graph-computed depth exceeds it is flagged. Defaults to
	// resolve.DefaultMaxDepth.
	MaxDepth int
}

// Adapter is the default validator: JSON Schema (if configured) plus
// reference-integrity and cycle/depth checks built on pkg/graph.
type Adapter struct {
	opts Options
}

// New returns an Adapter configured by opts.
func New(opts Options) *Adapter {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = resolve.DefaultMaxDepth
	}
	return &Adapter{opts: opts}
}

// Validate runs every configured check against doc.
func (a *Adapter) Validate(doc *tok.OrderedMap) (ValidationResult, error) {
	var result ValidationResult

	if a.opts.Schema != nil {
		instance, err := toPlainJSON(doc)
		if err != nil {
			return result, fmt.Errorf("validate: converting document for schema validation: %w", err)
		}
		for _, issue := range a.opts.Schema.Validate(instance) {
			result.Errors = append(result.Errors, issue)
		}
	}

	g, err := graph.Build(doc)
	if err != nil {
		return result, fmt.Errorf("validate: building reference graph: %w", err)
	}

	for _, e := range g.Edges {
		if e.Kind == refpath.KindExternal {
			continue
		}
		if _, ok := g.Nodes[e.ToPath.String()]; !ok {
			result.addWarningOrError(Issue{
				Severity: SeverityWarning,
				Kind:     "ref-unresolved",
				Path:     e.From,
				Message:  fmt.Sprintf("reference %q does not resolve to any token", e.Raw),
			}, a.opts.Strict)
		}
	}

	for _, cycle := range g.Cycles {
		result.addWarningOrError(Issue{
			Severity: SeverityWarning,
			Kind:     "ref-cycle",
			Message:  fmt.Sprintf("circular reference: %v", cycle),
		}, a.opts.Strict)
	}

	for _, key := range g.Order {
		n := g.Nodes[key]
		if n.Kind == graph.TokenNode && n.ReferenceDepth > a.opts.MaxDepth {
			result.addWarningOrError(Issue{
				Severity: SeverityWarning,
				Kind:     "ref-depth",
				Path:     n.Path,
				Message:  fmt.Sprintf("reference chain depth %d exceeds maximum %d", n.ReferenceDepth, a.opts.MaxDepth),
			}, a.opts.Strict)
		}
	}

	for _, key := range g.Order {
		n := g.Nodes[key]
		if n.Kind != graph.TokenNode || n.HasReference || n.Value == nil {
			continue
		}
		if issue, ok := checkValueShape(n.Path, n.EffectiveType, n.Value); ok {
			result.Errors = append(result.Errors, issue)
		}
	}

	return result, nil
}

// checkValueShape validates a token's $value against the concrete format
// its effective type requires, using the same color and dimension parsers
// real-world DTCG tooling relies on. Tokens carrying a reference are
// skipped here; their eventual resolved value is checked once substituted.
func checkValueShape(path tok.Path, effectiveType string, value any) (Issue, bool) {
	s, ok := value.(string)
	if !ok {
		return Issue{}, false
	}
	switch effectiveType {
	case "color":
		if !colors.IsValid(s) {
			return Issue{
				Severity: SeverityError,
				Kind:     "shape",
				Path:     path,
				Message:  fmt.Sprintf("value %q is not a recognized color format", s),
			}, true
		}
	case "dimension":
		if !dimension.IsValid(s) {
			return Issue{
				Severity: SeverityError,
				Kind:     "shape",
				Path:     path,
				Message:  fmt.Sprintf("value %q is not a recognized dimension format", s),
			}, true
		}
	}
	return Issue{}, false
}

func (r *ValidationResult) addWarningOrError(issue Issue, strict bool) {
	if strict {
		issue.Severity = SeverityError
		r.Errors = append(r.Errors, issue)
		return
	}
	r.Warnings = append(r.Warnings, issue)
}

// toPlainJSON converts an *tok.OrderedMap document into plain
// map[string]any/[]any/scalars, since jsonschema validators operate on the
// standard encoding/json decoded shape rather than tok's ordered value
// model.
func toPlainJSON(doc *tok.OrderedMap) (any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
