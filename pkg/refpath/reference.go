// Package refpath implements the dual reference-syntax path language used
// by design token documents: RFC 6901-flavoured JSON pointers (the
// canonical "$ref" form) and dotted alias strings (the "$value"
// interpolation form). Both forms ultimately address the same Path space.
package refpath

import (
	"fmt"
	"strings"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

// Kind identifies which of the two reference dialects, or the external-file
// escape hatch, a parsed reference uses.
type Kind int

const (
	// KindInternal addresses a node within the same document via a JSON
	// pointer, e.g. "#/color/brand/$value".
	KindInternal Kind = iota
	// KindAlias addresses a token's value within the same document via a
	// dotted alias, e.g. "{color.brand}".
	KindAlias
	// KindExternal addresses a node in another file, optionally with a
	// pointer fragment, e.g. "./base.json#/color/brand".
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindAlias:
		return "alias"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Reference is the parsed form of a reference string found in a $ref key or
// embedded in a $value string.
type Reference struct {
	Kind Kind
	// Pointer is the JSON-pointer fragment, without the leading '#', for
	// KindInternal and KindExternal references that carry a fragment. It is
	// empty for a bare external whole-document reference.
	Pointer string
	// Alias is the dotted path text for KindAlias references.
	Alias string
	// File is the relative file path for KindExternal references.
	File string
	// HasFragment reports whether an external reference carried a '#'
	// fragment (as opposed to addressing the whole external document).
	HasFragment bool
}

// ParseReference classifies a raw reference string per the tie-break rules:
// a brace-wrapped string is an alias; a string containing '#' with a
// file-like prefix before it (starting with "./", "../", or containing a
// "." in any path segment) is external; a string containing '#' with no
// such prefix is internal; a string with no '#' and not alias-shaped is an
// external whole-document reference.
func ParseReference(raw string) (Reference, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Reference{}, fmt.Errorf("refpath: empty reference")
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && strings.Count(s, "{") == 1 {
		inner := s[1 : len(s)-1]
		if inner == "" {
			return Reference{}, fmt.Errorf("refpath: empty alias %q", raw)
		}
		return Reference{Kind: KindAlias, Alias: inner}, nil
	}

	if idx := strings.Index(s, "#"); idx >= 0 {
		prefix := s[:idx]
		frag := s[idx+1:]
		if prefix == "" {
			return Reference{Kind: KindInternal, Pointer: frag}, nil
		}
		if looksLikeFilePrefix(prefix) {
			return Reference{
				Kind:        KindExternal,
				File:        prefix,
				Pointer:     frag,
				HasFragment: true,
			}, nil
		}
		// No file-like prefix but something precedes '#': treat leniently
		// as an internal pointer and ignore the unrecognised prefix.
		return Reference{Kind: KindInternal, Pointer: frag}, nil
	}

	// No '#' at all: whole-document external reference.
	return Reference{Kind: KindExternal, File: s}, nil
}

func looksLikeFilePrefix(p string) bool {
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		return true
	}
	for _, seg := range strings.Split(p, "/") {
		if strings.Contains(seg, ".") {
			return true
		}
	}
	return false
}

const (
	escTilde = "~0"
	escSlash = "~1"
)

// escapeSegment applies RFC 6901 escaping to a single path segment.
func escapeSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "~", escTilde)
	seg = strings.ReplaceAll(seg, "/", escSlash)
	return seg
}

// unescapeSegment reverses escapeSegment. Order matters: ~1 must be
// unescaped before ~0, since ~01 must decode to ~1, not /.
func unescapeSegment(seg string) string {
	seg = strings.ReplaceAll(seg, escSlash, "/")
	seg = strings.ReplaceAll(seg, escTilde, "~")
	return seg
}

// PointerToPath converts a pointer fragment (with or without a leading '#'
// or '/') into a tok.Path. A trailing "$value" segment is preserved as the
// final path element.
func PointerToPath(pointer string) tok.Path {
	p := strings.TrimPrefix(pointer, "#")
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return tok.Path{}
	}
	segs := strings.Split(p, "/")
	out := make(tok.Path, len(segs))
	for i, s := range segs {
		out[i] = unescapeSegment(s)
	}
	return out
}

// PathToPointer renders a tok.Path as a "#/a/b" pointer string.
func PathToPointer(path tok.Path) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, seg := range path {
		b.WriteByte('/')
		b.WriteString(escapeSegment(seg))
	}
	return b.String()
}

// TokenPath strips a trailing "$value" segment from a pointer-derived path,
// for callers that want the owning token node rather than its value field.
func TokenPath(path tok.Path) tok.Path {
	if len(path) > 0 && path[len(path)-1] == tok.KeyValue {
		return path[:len(path)-1]
	}
	return path
}

// AliasToPath converts a dotted alias string into a tok.Path. Alias
// segments are assumed not to contain literal dots, matching the simple
// dotted-path convention of the alias dialect.
func AliasToPath(alias string) tok.Path {
	if alias == "" {
		return tok.Path{}
	}
	return tok.Path(strings.Split(alias, "."))
}

// PathToAlias renders a tok.Path as a "{a.b.c}" alias string.
func PathToAlias(path tok.Path) string {
	return "{" + strings.Join(path, ".") + "}"
}

// PointerToAlias converts a pointer fragment directly to its alias
// rendering, dropping a trailing $value segment since aliases are always
// value-targeted.
func PointerToAlias(pointer string) string {
	return PathToAlias(TokenPath(PointerToPath(pointer)))
}

// AliasToPointer converts a dotted alias string directly to its pointer
// rendering, addressing the token node itself rather than its $value field.
func AliasToPointer(alias string) string {
	return PathToPointer(AliasToPath(alias))
}
