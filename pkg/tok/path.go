package tok

import "strings"

// Path identifies a node in a token document by the chain of object keys
// from the document root. An empty Path refers to the root group itself.
type Path []string

// String renders the path using dot notation, for logging and error
// messages only; it is not a reference.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Child returns a new path with name appended.
func (p Path) Child(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}

// Clone returns a copy of p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal reports whether p and other name the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading segment run of p (prefix
// itself included, i.e. p.HasPrefix(p) is true).
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}
