// Package merge implements the DTCG-aware structural merge engine: it
// overlays one token document onto another, deep-merging the whitelisted
// composite value types field by field and replacing everything else,
// while tracking type and shape conflicts along the way.
package merge

import (
	"fmt"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

// Options controls merge behaviour. The zero value is not generally usable;
// call DefaultOptions to get sane defaults (prefer right side, safe mode on).
type Options struct {
	// PreferRight resolves type conflicts in favour of the right-hand
	// (overlay) side when true, the left-hand (base) side when false.
	PreferRight bool
	// Safe, when true, collects conflicts and keeps merging instead of
	// aborting on the first conflict (a type mismatch, or a token-vs-group
	// shape conflict).
	Safe bool
	// Include, if non-empty, restricts merging to nodes whose path has one
	// of these paths as a prefix; everything else is copied from the left
	// side unchanged.
	Include []tok.Path
	// Exclude nodes whose path has one of these paths as a prefix are
	// always copied from the left side unchanged, regardless of Include.
	Exclude []tok.Path
	// Types, if non-empty, restricts which right-hand token contributions
	// are merged in, by effective type. A right-hand token whose effective
	// type is absent from this set is treated as if the right side did not
	// define it.
	Types map[string]bool
}

// DefaultOptions returns the conventional defaults: right side wins on
// conflicts, and a shape conflict does not abort the merge.
func DefaultOptions() Options {
	return Options{PreferRight: true, Safe: true}
}

// ConflictKind classifies a recorded Conflict.
type ConflictKind string

const (
	ConflictTypeMismatch  ConflictKind = "type-mismatch"
	ConflictTokenVsGroup  ConflictKind = "token-vs-group"
	ConflictGroupVsToken  ConflictKind = "group-vs-token"
)

// Conflict records a point of disagreement between the two sides of a
// merge.
type Conflict struct {
	Path tok.Path
	Kind ConflictKind
	Left any
	Right any
}

// Error is returned when Options.Safe is false and a type or shape conflict
// is encountered; it carries the path at which the merge was aborted.
type Error struct {
	Path tok.Path
	Kind ConflictKind
}

func (e *Error) Error() string {
	return fmt.Sprintf("merge: %s conflict at %s", e.Kind, e.Path)
}

// Merge overlays right onto left and returns the combined document along
// with any conflicts encountered. Both left and right must be group nodes
// (typically document roots).
func Merge(left, right *tok.OrderedMap, opts Options) (*tok.OrderedMap, []Conflict, error) {
	m := &merger{opts: opts}
	result, err := m.mergeGroup(tok.Path{}, left, right)
	if err != nil {
		return nil, m.conflicts, err
	}
	return result, m.conflicts, nil
}

type merger struct {
	opts      Options
	conflicts []Conflict
}

func (m *merger) pathAllowed(path tok.Path) bool {
	for _, ex := range m.opts.Exclude {
		if path.HasPrefix(ex) {
			return false
		}
	}
	if len(m.opts.Include) == 0 {
		return true
	}
	for _, in := range m.opts.Include {
		if path.HasPrefix(in) {
			return true
		}
	}
	return false
}

func (m *merger) typeAllowed(node *tok.OrderedMap, inherited string) bool {
	if len(m.opts.Types) == 0 {
		return true
	}
	t := tok.EffectiveType(node, inherited)
	return m.opts.Types[t]
}

func (m *merger) mergeGroup(path tok.Path, left, right *tok.OrderedMap) (*tok.OrderedMap, error) {
	result := tok.NewOrderedMap()

	leftType, _ := tok.DeclaredType(left)
	rightType, _ := tok.DeclaredType(right)
	resolvedType, err := m.resolveGroupType(path, leftType, rightType)
	if err != nil {
		return nil, err
	}
	if resolvedType != "" {
		result.Set(tok.KeyType, resolvedType)
	}
	if desc, ok := right.Get(tok.KeyDescription); ok {
		result.Set(tok.KeyDescription, desc)
	} else if desc, ok := left.Get(tok.KeyDescription); ok {
		result.Set(tok.KeyDescription, desc)
	}

	for _, key := range unionKeys(left, right) {
		if key == tok.KeyType || key == tok.KeyDescription {
			continue
		}
		childPath := path.Child(key)
		lv, lok := left.Get(key)
		rv, rok := right.Get(key)

		if !m.pathAllowed(childPath) {
			if lok {
				result.Set(key, tok.CloneValue(lv))
			}
			continue
		}

		lm, lmOK := lv.(*tok.OrderedMap)
		rm, rmOK := rv.(*tok.OrderedMap)

		if rok && rmOK && tok.IsToken(rm) && !m.typeAllowed(rm, resolvedType) {
			rok = false
		}

		switch {
		case lok && !rok:
			result.Set(key, tok.CloneValue(lv))
		case !lok && rok:
			result.Set(key, tok.CloneValue(rv))
		case lok && rok:
			merged, err := m.mergeChild(childPath, lv, lm, lmOK, rv, rm, rmOK)
			if err != nil {
				return nil, err
			}
			result.Set(key, merged)
		}
	}
	return result, nil
}

func (m *merger) resolveGroupType(path tok.Path, leftType, rightType string) (string, error) {
	if leftType != "" && rightType != "" && leftType != rightType {
		m.conflicts = append(m.conflicts, Conflict{Path: path, Kind: ConflictTypeMismatch, Left: leftType, Right: rightType})
		if !m.opts.Safe {
			return "", &Error{Path: path, Kind: ConflictTypeMismatch}
		}
		if m.opts.PreferRight {
			return rightType, nil
		}
		return leftType, nil
	}
	if rightType != "" {
		return rightType, nil
	}
	return leftType, nil
}

func (m *merger) mergeChild(path tok.Path, lv any, lm *tok.OrderedMap, lmOK bool, rv any, rm *tok.OrderedMap, rmOK bool) (any, error) {
	if !lmOK || !rmOK {
		// Non-object children (malformed input); right replaces left.
		if m.opts.PreferRight {
			return tok.CloneValue(rv), nil
		}
		return tok.CloneValue(lv), nil
	}

	leftIsToken := tok.IsToken(lm)
	rightIsToken := tok.IsToken(rm)

	switch {
	case leftIsToken && rightIsToken:
		return m.mergeToken(path, lm, rm)
	case !leftIsToken && !rightIsToken:
		return m.mergeGroup(path, lm, rm)
	default:
		kind := ConflictTokenVsGroup
		if !leftIsToken {
			kind = ConflictGroupVsToken
		}
		m.conflicts = append(m.conflicts, Conflict{Path: path, Kind: kind, Left: lv, Right: rv})
		if !m.opts.Safe {
			return nil, &Error{Path: path, Kind: kind}
		}
		if m.opts.PreferRight {
			return tok.CloneValue(rv), nil
		}
		return tok.CloneValue(lv), nil
	}
}

func (m *merger) mergeToken(path tok.Path, left, right *tok.OrderedMap) (*tok.OrderedMap, error) {
	leftType, _ := tok.DeclaredType(left)
	rightType, _ := tok.DeclaredType(right)
	resolvedType, err := m.resolveGroupType(path, leftType, rightType)
	if err != nil {
		return nil, err
	}

	result := tok.NewOrderedMap()
	if resolvedType != "" {
		result.Set(tok.KeyType, resolvedType)
	}

	skip := map[string]bool{tok.KeyValue: true, tok.KeyExtensions: true, tok.KeyType: true}
	for _, k := range left.Keys() {
		if skip[k] {
			continue
		}
		v, _ := left.Get(k)
		result.Set(k, tok.CloneValue(v))
	}
	for _, k := range right.Keys() {
		if skip[k] {
			continue
		}
		v, _ := right.Get(k)
		result.Set(k, tok.CloneValue(v))
	}

	lext, _ := left.Get(tok.KeyExtensions)
	rext, _ := right.Get(tok.KeyExtensions)
	if merged := mergeJSONValue(lext, rext); merged != nil {
		result.Set(tok.KeyExtensions, merged)
	}

	lval, lok := left.Get(tok.KeyValue)
	rval, rok := right.Get(tok.KeyValue)
	switch {
	case !lok && !rok:
		// neither side has a value (both are $ref-only tokens perhaps)
		if rref, ok := right.Get(tok.KeyRef); ok {
			result.Set(tok.KeyRef, tok.CloneValue(rref))
		} else if lref, ok := left.Get(tok.KeyRef); ok {
			result.Set(tok.KeyRef, tok.CloneValue(lref))
		}
	case !lok:
		result.Set(tok.KeyValue, tok.CloneValue(rval))
	case !rok:
		result.Set(tok.KeyValue, tok.CloneValue(lval))
	default:
		if tok.IsCompositeType(resolvedType) {
			result.Set(tok.KeyValue, mergeCompositeValue(lval, rval, m.opts.PreferRight))
		} else if m.opts.PreferRight {
			result.Set(tok.KeyValue, tok.CloneValue(rval))
		} else {
			result.Set(tok.KeyValue, tok.CloneValue(lval))
		}
	}
	return result, nil
}

func mergeCompositeValue(left, right any, preferRight bool) any {
	lm, lok := left.(*tok.OrderedMap)
	rm, rok := right.(*tok.OrderedMap)
	if !lok || !rok {
		if preferRight {
			return tok.CloneValue(right)
		}
		return tok.CloneValue(left)
	}
	base, overlay := lm, rm
	if !preferRight {
		base, overlay = rm, lm
	}
	result := base.Clone()
	for _, k := range overlay.Keys() {
		v, _ := overlay.Get(k)
		result.Set(k, tok.CloneValue(v))
	}
	return result
}

// mergeJSONValue deep-merges arbitrary JSON (used for $extensions, which is
// opaque to DTCG semantics): objects merge key by key recursively, with the
// right side winning scalar and array conflicts.
func mergeJSONValue(left, right any) any {
	if left == nil {
		return tok.CloneValue(right)
	}
	if right == nil {
		return tok.CloneValue(left)
	}
	lm, lok := left.(*tok.OrderedMap)
	rm, rok := right.(*tok.OrderedMap)
	if lok && rok {
		result := lm.Clone()
		for _, k := range rm.Keys() {
			rv, _ := rm.Get(k)
			if lv, exists := result.Get(k); exists {
				result.Set(k, mergeJSONValue(lv, rv))
			} else {
				result.Set(k, tok.CloneValue(rv))
			}
		}
		return result
	}
	return tok.CloneValue(right)
}

func unionKeys(left, right *tok.OrderedMap) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range left.Keys() {
		if tok.IsMetadataKey(k) && k != tok.KeyType && k != tok.KeyDescription {
			continue
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range right.Keys() {
		if tok.IsMetadataKey(k) && k != tok.KeyType && k != tok.KeyDescription {
			continue
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
