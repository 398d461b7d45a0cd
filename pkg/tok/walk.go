package tok

// Visitor is called once per node encountered by Walk. isToken distinguishes
// a token leaf from a group interior node. Returning false from a group
// visit skips descending into its children.
type Visitor func(path Path, node *OrderedMap, isToken bool) bool

// Walk performs a depth-first traversal of root, visiting every group and
// token node in declared order. It is the single traversal primitive that
// the graph builder, resolver, and converter are all built on top of.
func Walk(root *OrderedMap, visit Visitor) {
	walk(Path{}, root, visit)
}

func walk(path Path, node *OrderedMap, visit Visitor) {
	if node == nil {
		return
	}
	isToken := IsToken(node)
	if !visit(path, node, isToken) {
		return
	}
	if isToken {
		return
	}
	for _, name := range Children(node) {
		child, ok := node.Get(name)
		if !ok {
			continue
		}
		childMap, ok := child.(*OrderedMap)
		if !ok {
			// Malformed child (not an object); nothing to recurse into.
			continue
		}
		walk(path.Child(name), childMap, visit)
	}
}

// Lookup resolves path against root, returning the node found (token or
// group) and a bool for whether it exists. Path segments that pass through
// a token or a missing child fail the lookup.
func Lookup(root *OrderedMap, path Path) (*OrderedMap, bool) {
	cur := root
	for _, seg := range path {
		if cur == nil || IsToken(cur) {
			return nil, false
		}
		next, ok := cur.Get(seg)
		if !ok {
			return nil, false
		}
		nextMap, ok := next.(*OrderedMap)
		if !ok {
			return nil, false
		}
		cur = nextMap
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}
