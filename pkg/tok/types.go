package tok

import "strings"

// Reserved DTCG metadata keys. These never count as child names when
// deciding whether a node is a token or a group.
const (
	KeyValue       = "$value"
	KeyType        = "$type"
	KeyDescription = "$description"
	KeyExtensions  = "$extensions"
	KeyRef         = "$ref"
	KeyDeprecated  = "$deprecated"
)

// CompositeTypes is the set of DTCG types whose $value is a structured
// object that the merge engine deep-merges field by field instead of
// replacing wholesale.
var CompositeTypes = map[string]bool{
	"shadow":      true,
	"typography":  true,
	"border":      true,
	"transition":  true,
	"gradient":    true,
	"strokeStyle": true,
}

// IsCompositeType reports whether t is one of the whitelisted composite
// DTCG types.
func IsCompositeType(t string) bool {
	return CompositeTypes[t]
}

// IsMetadataKey reports whether key is a reserved or extension metadata key
// (anything starting with "$"), as opposed to a child group/token name.
func IsMetadataKey(key string) bool {
	return strings.HasPrefix(key, "$")
}

// IsToken reports whether node is shaped like a token: it carries a direct
// $value or $ref. A node cannot be both a token and a group.
func IsToken(node *OrderedMap) bool {
	if node == nil {
		return false
	}
	if _, ok := node.Get(KeyValue); ok {
		return true
	}
	if _, ok := node.Get(KeyRef); ok {
		return true
	}
	return false
}

// IsGroup reports whether node is shaped like a group: not a token, and
// containing at least one non-metadata child or no children at all (an
// empty object is treated as an empty group).
func IsGroup(node *OrderedMap) bool {
	if node == nil {
		return false
	}
	return !IsToken(node)
}

// Children returns the non-metadata child names of a group node, in
// declared order.
func Children(node *OrderedMap) []string {
	if node == nil {
		return nil
	}
	var out []string
	for _, k := range node.Keys() {
		if !IsMetadataKey(k) {
			out = append(out, k)
		}
	}
	return out
}

// DeclaredType returns the node's own $type, if any.
func DeclaredType(node *OrderedMap) (string, bool) {
	v, ok := node.Get(KeyType)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// EffectiveType returns node's own $type if declared, otherwise the
// inherited type from an enclosing group.
func EffectiveType(node *OrderedMap, inherited string) string {
	if t, ok := DeclaredType(node); ok && t != "" {
		return t
	}
	return inherited
}

// HasReference reports whether a token's $value (or the token via $ref) is
// or contains a reference: a string containing "{", or an object carrying a
// $ref key, found anywhere in the value including nested objects and arrays.
func HasReference(node *OrderedMap) bool {
	if node == nil {
		return false
	}
	if _, ok := node.Get(KeyRef); ok {
		return true
	}
	v, ok := node.Get(KeyValue)
	if !ok {
		return false
	}
	return containsReferenceString(v)
}

func containsReferenceString(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(t, "{")
	case *OrderedMap:
		if _, ok := t.Get(KeyRef); ok {
			return true
		}
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			if containsReferenceString(val) {
				return true
			}
		}
		return false
	case []any:
		for _, e := range t {
			if containsReferenceString(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
