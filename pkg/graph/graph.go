// Package graph builds an annotated reference graph over a composed token
// document: one node per token or group, one edge per reference a token
// carries, and the bookkeeping (reverse index, cycle list, stats) that the
// resolver, validator, and CLI inspection commands all read back out.
package graph

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmoose/dtcgcore/pkg/refpath"
	"github.com/dmoose/dtcgcore/pkg/tok"
)

var titleCaser = cases.Title(language.Und)

// NodeKind distinguishes a token leaf from a group interior node.
type NodeKind int

const (
	GroupNode NodeKind = iota
	TokenNode
)

// Node is one vertex of the graph: a token or a group, with its type
// annotations and, for tokens, reference bookkeeping.
type Node struct {
	Path          tok.Path
	Kind          NodeKind
	DeclaredType  string
	EffectiveType string
	HasReference  bool
	// ReferenceDepth is the length of the longest internal/alias reference
	// chain starting at this token, 0 for a token with no reference and
	// -1 for tokens on a cycle (whose depth cannot be finitely defined).
	ReferenceDepth int
	Valid          bool
	// Value is the token's raw $value payload (nil for $ref-only tokens and
	// for group nodes).
	Value any
	// Description is a group node's captured $description, if any.
	Description string
	// InferredType reports whether EffectiveType came from shape inference
	// (§4.F) rather than a declared or inherited type.
	InferredType bool
	// Label is a human-readable rendering of the node's final path segment
	// (kebab/camel/snake split into Title Case words), used by diagnostic
	// output that shouldn't show raw token-path segments verbatim.
	Label string
}

// Edge is one reference a token carries, in whichever dialect it was
// written.
type Edge struct {
	From     tok.Path
	Kind     refpath.Kind
	Raw      string
	ToPath   tok.Path // resolved structurally; empty/unset for External
	External string   // file path, set only for Kind == External
	ToFrag   string   // external pointer fragment, if any
	// Valid reports whether the edge's target resolves to a node in this
	// document and participates in no cycle (I5). External edges are not
	// structurally checkable by Build (that is pkg/resolve's job against an
	// injected reader) and are always reported valid here.
	Valid bool
}

// Stats summarizes a built graph.
type Stats struct {
	TokenCount            int
	GroupCount            int
	ReferenceCount        int
	ValidReferenceCount   int
	InvalidReferenceCount int
	CircularReferenceCount int
	InferredTypeCount     int
	MaxDepth              int
	CycleCount            int
}

// Graph is the full annotated reference graph for one composed document.
type Graph struct {
	Nodes        map[string]*Node
	Order        []string // DFS visitation order of node keys
	Edges        []Edge
	ReverseIndex map[string][]int // target path key -> indices into Edges
	Cycles       [][]string
	Stats        Stats
}

func key(p tok.Path) string { return p.String() }

// labelFor renders a path's final segment as a human-readable Title Case
// label, splitting on kebab-case, snake_case, and camelCase boundaries.
func labelFor(p tok.Path) string {
	if len(p) == 0 {
		return ""
	}
	seg := p[len(p)-1]
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(seg)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.':
			flush()
		case i > 0 && r >= 'A' && r <= 'Z' && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z'):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return titleCaser.String(strings.Join(words, " "))
}

// Build walks doc and produces its annotated reference graph. It never
// follows external references or substitutes values; that is pkg/resolve's
// job. Build only records structure.
func Build(doc *tok.OrderedMap) (*Graph, error) {
	g := &Graph{
		Nodes:        make(map[string]*Node),
		ReverseIndex: make(map[string][]int),
	}

	var typeStack []string
	tok.Walk(doc, func(path tok.Path, node *tok.OrderedMap, isToken bool) bool {
		depth := len(path)
		if depth < len(typeStack) {
			typeStack = typeStack[:depth]
		}
		var inherited string
		if depth > 0 && depth-1 < len(typeStack) {
			inherited = typeStack[depth-1]
		}
		declared, _ := tok.DeclaredType(node)
		effective := tok.EffectiveType(node, inherited)
		inferred := false
		if effective == "" && isToken {
			if val, ok := node.Get(tok.KeyValue); ok {
				if t := InferType(val); t != "" {
					effective = t
					inferred = true
				}
			}
		}
		if len(typeStack) == depth {
			typeStack = append(typeStack, effective)
		} else {
			typeStack[depth] = effective
		}

		n := &Node{
			Path:          path.Clone(),
			DeclaredType:  declared,
			EffectiveType: effective,
			InferredType:  inferred,
			Valid:         true,
			Label:         labelFor(path),
		}
		if inferred {
			g.Stats.InferredTypeCount++
		}
		if isToken {
			n.Kind = TokenNode
			n.HasReference = tok.HasReference(node)
			n.Value, _ = node.Get(tok.KeyValue)
			g.Stats.TokenCount++
			if n.HasReference {
				g.addEdges(path, node)
			}
		} else {
			n.Kind = GroupNode
			if desc, ok := node.Get(tok.KeyDescription); ok {
				n.Description, _ = desc.(string)
			}
			g.Stats.GroupCount++
		}
		g.Nodes[key(path)] = n
		g.Order = append(g.Order, key(path))
		return true
	})

	g.Stats.ReferenceCount = len(g.Edges)
	g.Cycles = detectCycles(g)
	g.Stats.CycleCount = len(g.Cycles)
	computeDepths(g)
	g.annotateValidity()
	return g, nil
}

// annotateValidity fills in Edge.Valid and Node.Valid per I5: a reference
// is valid iff its target resolves to a node in this document and
// participates in no cycle. External edges cannot be structurally checked
// here (Build never reads other files) and are always left valid; a token
// is valid iff every internal/alias reference it carries is.
func (g *Graph) annotateValidity() {
	onCycle := make(map[string]bool)
	for _, cyc := range g.Cycles {
		for _, k := range cyc {
			onCycle[k] = true
		}
	}

	invalidFrom := make(map[string]bool)
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Kind == refpath.KindExternal {
			// Not structurally checkable without reading the target file;
			// excluded from the valid/invalid tally, counted in ReferenceCount.
			e.Valid = true
			continue
		}
		_, targetExists := g.Nodes[key(e.ToPath)]
		e.Valid = targetExists && !onCycle[key(e.From)]
		if !e.Valid {
			invalidFrom[key(e.From)] = true
			g.Stats.InvalidReferenceCount++
		} else {
			g.Stats.ValidReferenceCount++
		}
	}

	for k := range onCycle {
		if n, ok := g.Nodes[k]; ok && n.Kind == TokenNode {
			g.Stats.CircularReferenceCount++
		}
	}

	for _, k := range g.Order {
		n := g.Nodes[k]
		if n.Kind != TokenNode {
			continue
		}
		if invalidFrom[k] {
			n.Valid = false
		}
	}
}

func (g *Graph) addEdges(path tok.Path, node *tok.OrderedMap) {
	if refVal, ok := node.Get(tok.KeyRef); ok {
		if s, ok := refVal.(string); ok {
			g.addEdge(path, s)
		}
		return
	}
	val, _ := node.Get(tok.KeyValue)
	g.addValueEdges(path, val)
}

func (g *Graph) addValueEdges(path tok.Path, v any) {
	switch t := v.(type) {
	case string:
		for _, raw := range extractAliases(t) {
			g.addEdge(path, raw)
		}
	case *tok.OrderedMap:
		// A nested "$value": {"$ref": "#/a/b"} embeds a pointer reference
		// directly as the object, per §3 — not inside a brace string.
		if refVal, ok := t.Get(tok.KeyRef); ok {
			if s, ok := refVal.(string); ok {
				g.addEdge(path, s)
			}
			return
		}
		for _, k := range t.Keys() {
			child, _ := t.Get(k)
			g.addValueEdges(path, child)
		}
	case []any:
		for _, e := range t {
			g.addValueEdges(path, e)
		}
	}
}

// extractAliases finds every {dotted.alias} substring in s.
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

func (g *Graph) addEdge(from tok.Path, raw string) {
	ref, err := refpath.ParseReference(raw)
	if err != nil {
		return
	}
	e := Edge{From: from.Clone(), Kind: ref.Kind, Raw: raw}
	switch ref.Kind {
	case refpath.KindInternal:
		e.ToPath = refpath.TokenPath(refpath.PointerToPath(ref.Pointer))
	case refpath.KindAlias:
		e.ToPath = refpath.AliasToPath(ref.Alias)
	case refpath.KindExternal:
		e.External = ref.File
		e.ToFrag = ref.Pointer
	}
	idx := len(g.Edges)
	g.Edges = append(g.Edges, e)
	if ref.Kind != refpath.KindExternal {
		k := key(e.ToPath)
		g.ReverseIndex[k] = append(g.ReverseIndex[k], idx)
	}
}

// detectCycles runs a tri-colour DFS over internal/alias edges and returns
// every distinct cycle found, as an ordered list of node path keys.
func detectCycles(g *Graph) [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.Nodes))
	var cycles [][]string

	adjacency := make(map[string][]Edge)
	for _, e := range g.Edges {
		if e.Kind == refpath.KindExternal {
			continue
		}
		k := key(e.From)
		adjacency[k] = append(adjacency[k], e)
	}

	var stack []string
	var visit func(node string)
	visit = func(node string) {
		color[node] = gray
		stack = append(stack, node)
		for _, e := range adjacency[node] {
			target := key(e.ToPath)
			if _, ok := g.Nodes[target]; !ok {
				continue
			}
			switch color[target] {
			case white:
				visit(target)
			case gray:
				cycle := cycleFromStack(stack, target)
				cycles = append(cycles, cycle)
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
	}

	for _, k := range g.Order {
		if color[k] == white {
			visit(k)
		}
	}
	return cycles
}

func cycleFromStack(stack []string, target string) []string {
	for i, s := range stack {
		if s == target {
			loop := append([]string{}, stack[i:]...)
			return rotateToSmallest(loop)
		}
	}
	return []string{target}
}

// rotateToSmallest rotates a cycle's node list so it starts at the
// lexicographically smallest path, per the deterministic cycle-report
// ordering guarantee: two DFS traversals that discover the same cycle from
// different entry points must still report an identical chain.
func rotateToSmallest(loop []string) []string {
	if len(loop) == 0 {
		return loop
	}
	minIdx := 0
	for i, s := range loop {
		if s < loop[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, len(loop))
	copy(out, loop[minIdx:])
	copy(out[len(loop)-minIdx:], loop[:minIdx])
	return out
}

// computeDepths fills in ReferenceDepth for every token node by walking
// the reference edges; a node on a cycle gets depth -1, and an edge whose
// target is missing contributes nothing (so a token whose targets are all
// missing keeps depth 0).
func computeDepths(g *Graph) {
	onCycle := make(map[string]bool)
	for _, cyc := range g.Cycles {
		for _, k := range cyc {
			onCycle[k] = true
		}
	}

	edgesFrom := make(map[string][]Edge)
	for _, e := range g.Edges {
		if e.Kind == refpath.KindExternal {
			continue
		}
		edgesFrom[key(e.From)] = append(edgesFrom[key(e.From)], e)
	}

	memo := make(map[string]int)
	var depth func(k string, visiting map[string]bool) int
	depth = func(k string, visiting map[string]bool) int {
		if onCycle[k] {
			return -1
		}
		if d, ok := memo[k]; ok {
			return d
		}
		if visiting[k] {
			return -1
		}
		visiting[k] = true
		defer delete(visiting, k)

		best := 0
		for _, e := range edgesFrom[k] {
			target := key(e.ToPath)
			if _, ok := g.Nodes[target]; !ok {
				continue
			}
			d := depth(target, visiting)
			if d < 0 {
				continue
			}
			if d+1 > best {
				best = d + 1
			}
		}
		memo[k] = best
		return best
	}

	for _, k := range g.Order {
		n := g.Nodes[k]
		if n.Kind != TokenNode || !n.HasReference {
			continue
		}
		if onCycle[k] {
			n.ReferenceDepth = -1
			continue
		}
		n.ReferenceDepth = depth(k, map[string]bool{})
		if n.ReferenceDepth > g.Stats.MaxDepth {
			g.Stats.MaxDepth = n.ReferenceDepth
		}
	}
}
