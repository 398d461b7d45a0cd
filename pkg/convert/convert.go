// Package convert rewrites a token document between the two reference
// dialects: pointer form ($ref: "#/a/b") and alias form ($value:
// "{a.b}"). External references cannot be losslessly expressed as an
// alias, since aliases have no file component; converting one is reported
// as a Warning rather than silently dropped.
package convert

import (
	"strings"

	"github.com/dmoose/dtcgcore/pkg/refpath"
	"github.com/dmoose/dtcgcore/pkg/tok"
)

// Dialect identifies which reference syntax a document should use.
type Dialect int

const (
	PointerDialect Dialect = iota
	AliasDialect
)

// Warning reports a reference that could not be converted without losing
// information.
type Warning struct {
	Path tok.Path
	Raw  string
	Note string
}

// ToDialect rewrites every reference in doc to the target dialect and
// returns the new document plus any lossy-conversion warnings. doc is not
// mutated.
func ToDialect(doc *tok.OrderedMap, target Dialect) (*tok.OrderedMap, []Warning) {
	clone := doc.Clone()
	var warnings []Warning
	tok.Walk(clone, func(path tok.Path, node *tok.OrderedMap, isToken bool) bool {
		if !isToken {
			return true
		}
		if refVal, ok := node.Get(tok.KeyRef); ok {
			raw, _ := refVal.(string)
			convertRefKey(node, path, raw, target, &warnings)
			return true
		}
		if val, ok := node.Get(tok.KeyValue); ok {
			node.Set(tok.KeyValue, convertValue(path, val, target, &warnings))
		}
		return true
	})
	return clone, warnings
}

func convertRefKey(node *tok.OrderedMap, path tok.Path, raw string, target Dialect, warnings *[]Warning) {
	ref, err := refpath.ParseReference(raw)
	if err != nil {
		return
	}
	switch target {
	case AliasDialect:
		switch ref.Kind {
		case refpath.KindInternal:
			node.Delete(tok.KeyRef)
			node.Set(tok.KeyValue, refpath.PointerToAlias(ref.Pointer))
		case refpath.KindExternal:
			*warnings = append(*warnings, Warning{
				Path: path, Raw: raw,
				Note: "external $ref cannot be expressed as an alias; left as a pointer reference",
			})
		case refpath.KindAlias:
			// already alias-shaped as a $ref, which is unusual but
			// harmless; normalize into $value form.
			node.Delete(tok.KeyRef)
			node.Set(tok.KeyValue, raw)
		}
	case PointerDialect:
		// $ref is already pointer-shaped for internal/external; an
		// alias-shaped $ref is rewritten to its pointer form.
		if ref.Kind == refpath.KindAlias {
			node.Set(tok.KeyRef, refpath.AliasToPointer(ref.Alias))
		}
	}
}

func convertValue(path tok.Path, v any, target Dialect, warnings *[]Warning) any {
	switch t := v.(type) {
	case string:
		return convertString(path, t, target, warnings)
	case *tok.OrderedMap:
		// A "$value": {"$ref": "..."} embeds a pointer reference directly
		// as the object, per §3 — collapse or rewrite it rather than
		// recursing into $ref as an ordinary child.
		if refVal, ok := t.Get(tok.KeyRef); ok {
			raw, _ := refVal.(string)
			return convertEmbeddedRef(path, t, raw, target, warnings)
		}
		out := tok.NewOrderedMap()
		for _, k := range t.Keys() {
			child, _ := t.Get(k)
			out.Set(k, convertValue(path, child, target, warnings))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = convertValue(path, e, target, warnings)
		}
		return out
	default:
		return v
	}
}

// convertEmbeddedRef rewrites a "$value": {"$ref": raw} object. Converting
// to the alias dialect collapses the wrapper entirely into a flat alias
// string; converting to the pointer dialect keeps the wrapper but rewrites
// an alias-shaped $ref to its pointer form.
func convertEmbeddedRef(path tok.Path, node *tok.OrderedMap, raw string, target Dialect, warnings *[]Warning) any {
	ref, err := refpath.ParseReference(raw)
	if err != nil {
		return node
	}
	switch target {
	case AliasDialect:
		switch ref.Kind {
		case refpath.KindInternal:
			return refpath.PointerToAlias(ref.Pointer)
		case refpath.KindAlias:
			return raw
		case refpath.KindExternal:
			*warnings = append(*warnings, Warning{
				Path: path, Raw: raw,
				Note: "external $ref cannot be expressed as an alias; left as a pointer reference",
			})
			return node
		}
		return node
	case PointerDialect:
		if ref.Kind == refpath.KindAlias {
			out := tok.NewOrderedMap()
			out.Set(tok.KeyRef, refpath.AliasToPointer(ref.Alias))
			return out
		}
		return node
	default:
		return node
	}
}

func convertString(path tok.Path, s string, target Dialect, warnings *[]Warning) string {
	switch target {
	case AliasDialect:
		return rewritePointersToAliases(path, s, warnings)
	case PointerDialect:
		return rewriteAliasesToPointers(s)
	default:
		return s
	}
}

func rewriteAliasesToPointers(s string) string {
	out := s
	for _, raw := range findBraced(s) {
		ref, err := refpath.ParseReference(raw)
		if err != nil || ref.Kind != refpath.KindAlias {
			continue
		}
		out = replaceOnce(out, raw, refpath.AliasToPointer(ref.Alias))
	}
	return out
}

func rewritePointersToAliases(path tok.Path, s string, warnings *[]Warning) string {
	for _, raw := range findHashFragments(s) {
		ref, err := refpath.ParseReference(raw)
		if err != nil {
			continue
		}
		switch ref.Kind {
		case refpath.KindInternal:
			s = replaceOnce(s, raw, refpath.PointerToAlias(ref.Pointer))
		case refpath.KindExternal:
			*warnings = append(*warnings, Warning{
				Path: path, Raw: raw,
				Note: "external reference cannot be expressed as an alias; left as a pointer reference",
			})
		}
	}
	return s
}

func findBraced(s string) []string {
	var out []string
	for {
		start := strings.IndexByte(s, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			break
		}
		out = append(out, s[start:start+end+1])
		s = s[start+end+1:]
	}
	return out
}

// findHashFragments finds a whole-string "#/..." pointer reference. Since
// pointer form has no closing delimiter, only a
// whole-value pointer (the entire string) is recognized; embedded
// interpolation of pointer form is not supported by the dialect.
func findHashFragments(s string) []string {
	if strings.HasPrefix(s, "#") {
		return []string{s}
	}
	return nil
}

func replaceOnce(s, old, new string) string {
	return strings.Replace(s, old, new, 1)
}
