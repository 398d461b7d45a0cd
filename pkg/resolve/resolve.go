// Package resolve implements the reference resolver: a single-visitor
// depth-first walk that substitutes $ref and {alias} references with the
// value (or token) they point to, across internal, alias, and external
// references, with cycle detection and a configurable depth limit.
package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmoose/dtcgcore/pkg/loader"
	"github.com/dmoose/dtcgcore/pkg/refpath"
	"github.com/dmoose/dtcgcore/pkg/tok"
)

// Mode selects which reference dialects the resolver follows.
type Mode int

const (
	// Off makes ResolveDocument a no-op clone: references are left as
	// literal strings.
	Off Mode = iota
	// All follows internal, alias, and external references.
	All
	// ExternalOnly follows only external file references, leaving
	// internal and alias references as literal strings.
	ExternalOnly
)

// DefaultMaxDepth is used when Options.MaxDepth is left at zero.
const DefaultMaxDepth = 10

// Options configures a Session.
type Options struct {
	Mode     Mode
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Kind classifies a resolution failure.
type Kind string

const (
	KindUnresolved Kind = "ref-unresolved"
	KindCycle      Kind = "ref-cycle"
	KindDepth      Kind = "ref-depth"
)

// Error reports one failed reference.
type Error struct {
	Kind  Kind
	File  string
	Path  tok.Path
	Raw   string
	Chain []string // human-readable "file:path -> file:path" chain, for ref-cycle
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCycle:
		return fmt.Sprintf("resolve: cycle at %s: %s", e.Path, strings.Join(e.Chain, " -> "))
	case KindDepth:
		return fmt.Sprintf("resolve: max depth exceeded resolving %s (%s)", e.Path, e.Raw)
	default:
		return fmt.Sprintf("resolve: unresolved reference %q at %s", e.Raw, e.Path)
	}
}

// Session coordinates resolution across one or more documents, sharing a
// Loader cache for external files so the same file is never read or
// parsed twice.
type Session struct {
	loader *loader.Loader
	opts   Options
	docs   map[string]*tok.OrderedMap // file key -> resolved-in-place source doc
	byPath map[string]map[string]*tok.OrderedMap // file key -> path key -> token node
}

// NewSession returns a resolution Session backed by l.
func NewSession(l *loader.Loader, opts Options) *Session {
	return &Session{
		loader: l,
		opts:   opts,
		docs:   make(map[string]*tok.OrderedMap),
		byPath: make(map[string]map[string]*tok.OrderedMap),
	}
}

type frame struct {
	file string
	path string
	raw  string
}

// ResolveDocument resolves every token in doc (identified by file, used as
// the base for relative external references and as the cycle-detection
// key) and returns a new, fully substituted document. doc is not mutated.
func (s *Session) ResolveDocument(file string, doc *tok.OrderedMap) (*tok.OrderedMap, []Error) {
	clone := doc.Clone()
	s.index(file, clone)

	if s.opts.Mode == Off {
		return clone, nil
	}

	var errs []Error
	cache := make(map[string]any)
	tok.Walk(clone, func(path tok.Path, node *tok.OrderedMap, isToken bool) bool {
		if !isToken {
			return true
		}
		val, verrs := s.resolveToken(file, path, cache, nil)
		errs = append(errs, verrs...)
		if verrs == nil {
			node.Set(tok.KeyValue, val)
			node.Delete(tok.KeyRef)
		}
		return true
	})
	return clone, errs
}

func (s *Session) index(file string, doc *tok.OrderedMap) {
	idx := make(map[string]*tok.OrderedMap)
	tok.Walk(doc, func(path tok.Path, node *tok.OrderedMap, isToken bool) bool {
		if isToken {
			idx[path.String()] = node
		}
		return true
	})
	s.docs[file] = doc
	s.byPath[file] = idx
}

func (s *Session) resolveToken(file string, path tok.Path, cache map[string]any, stack []frame) (any, []Error) {
	ck := file + "#" + path.String()
	if v, ok := cache[ck]; ok {
		return v, nil
	}
	node, ok := s.byPath[file][path.String()]
	if !ok {
		return nil, []Error{{Kind: KindUnresolved, File: file, Path: path, Raw: path.String()}}
	}

	// Only reference-free values are memoized: a cached reference result
	// would hide the chain behind it from the cycle and depth checks.
	if refVal, ok := node.Get(tok.KeyRef); ok {
		raw, _ := refVal.(string)
		return s.followReference(file, path, raw, cache, stack)
	}

	val, _ := node.Get(tok.KeyValue)
	resolved, errs := s.resolveValue(file, path, val, cache, stack)
	if errs == nil && !tok.HasReference(node) {
		cache[ck] = resolved
	}
	return resolved, errs
}

func (s *Session) resolveValue(file string, path tok.Path, v any, cache map[string]any, stack []frame) (any, []Error) {
	switch t := v.(type) {
	case string:
		return s.resolveString(file, path, t, cache, stack)
	case *tok.OrderedMap:
		// A "$value": {"$ref": "#/a/b"} embeds a pointer reference directly
		// as the value's object, per §3 — substitute it wholesale rather
		// than walking $ref as an ordinary child.
		if refVal, ok := t.Get(tok.KeyRef); ok {
			raw, _ := refVal.(string)
			return s.followReference(file, path, raw, cache, stack)
		}
		out := tok.NewOrderedMap()
		for _, k := range t.Keys() {
			child, _ := t.Get(k)
			rv, errs := s.resolveValue(file, path, child, cache, stack)
			if errs != nil {
				return nil, errs
			}
			out.Set(k, rv)
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			rv, errs := s.resolveValue(file, path, e, cache, stack)
			if errs != nil {
				return nil, errs
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

func (s *Session) resolveString(file string, path tok.Path, str string, cache map[string]any, stack []frame) (any, []Error) {
	aliases := extractAliases(str)
	if len(aliases) == 0 {
		return str, nil
	}
	// Whole-value alias: preserve the target's native type.
	if len(aliases) == 1 && aliases[0] == str {
		return s.followReference(file, path, str, cache, stack)
	}
	// Interpolated form: stringify each resolved value into the template.
	out := str
	for _, raw := range aliases {
		v, errs := s.followReference(file, path, raw, cache, stack)
		if errs != nil {
			return nil, errs
		}
		out = strings.Replace(out, raw, fmt.Sprint(v), 1)
	}
	return out, nil
}

func extractAliases(s string) []string {
	var out []string
	for {
		start := strings.Index(s, "{")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			break
		}
		out = append(out, s[start:start+end+1])
		s = s[start+end+1:]
	}
	return out
}

func (s *Session) followReference(file string, path tok.Path, raw string, cache map[string]any, stack []frame) (any, []Error) {
	ref, err := refpath.ParseReference(raw)
	if err != nil {
		return nil, []Error{{Kind: KindUnresolved, File: file, Path: path, Raw: raw}}
	}

	if (ref.Kind == refpath.KindInternal || ref.Kind == refpath.KindAlias) && s.opts.Mode == ExternalOnly {
		return raw, nil
	}

	var targetFile string
	var targetPath tok.Path
	switch ref.Kind {
	case refpath.KindInternal:
		targetFile = file
		targetPath = refpath.TokenPath(refpath.PointerToPath(ref.Pointer))
	case refpath.KindAlias:
		targetFile = file
		targetPath = refpath.AliasToPath(ref.Alias)
	case refpath.KindExternal:
		if !ref.HasFragment {
			return nil, []Error{{Kind: KindUnresolved, File: file, Path: path, Raw: raw}}
		}
		targetFile = joinExternal(file, ref.File)
		targetPath = refpath.TokenPath(refpath.PointerToPath(ref.Pointer))
	}

	frameKey := targetFile + "#" + targetPath.String()
	for i, f := range stack {
		if f.file+"#"+f.path == frameKey {
			chain := make([]string, 0, len(stack)-i+1)
			for _, fr := range stack[i:] {
				chain = append(chain, fr.file+":"+fr.path)
			}
			chain = append(chain, targetFile+":"+targetPath.String())
			return nil, []Error{{Kind: KindCycle, File: file, Path: path, Raw: raw, Chain: chain}}
		}
	}
	if len(stack)+1 > s.opts.maxDepth() {
		return nil, []Error{{Kind: KindDepth, File: file, Path: path, Raw: raw}}
	}
	nextStack := append(append([]frame{}, stack...), frame{file: targetFile, path: targetPath.String(), raw: raw})

	if _, ok := s.byPath[targetFile]; !ok {
		if err := s.loadExternal(targetFile); err != nil {
			return nil, []Error{{Kind: KindUnresolved, File: file, Path: path, Raw: raw}}
		}
	}

	return s.resolveToken(targetFile, targetPath, cache, nextStack)
}

func (s *Session) loadExternal(file string) error {
	doc, err := s.loader.ReadDocument(file)
	if err != nil {
		return err
	}
	s.index(file, doc)
	return nil
}

func joinExternal(fromFile, rel string) string {
	dir := filepath.Dir(fromFile)
	if dir == "." && !strings.HasPrefix(fromFile, "./") {
		dir = ""
	}
	return filepath.Clean(filepath.Join(dir, rel))
}
