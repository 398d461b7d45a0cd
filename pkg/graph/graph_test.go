package graph

import (
	"testing"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

func doc(t *testing.T, src string) *tok.OrderedMap {
	t.Helper()
	v, err := tok.Unmarshal([]byte(src))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return v.(*tok.OrderedMap)
}

func TestBuildCountsTokensAndGroups(t *testing.T) {
	d := doc(t, `{"color":{"brand":{"$value":"#fff","$type":"color"},"accent":{"$value":"#000"}}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if g.Stats.TokenCount != 2 {
		t.Errorf("TokenCount = %d, want 2", g.Stats.TokenCount)
	}
	if g.Stats.GroupCount != 2 { // root + color
		t.Errorf("GroupCount = %d, want 2", g.Stats.GroupCount)
	}
}

func TestBuildInfersEffectiveTypeFromGroup(t *testing.T) {
	d := doc(t, `{"color":{"$type":"color","brand":{"$value":"#fff"}}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	n := g.Nodes[key(tok.Path{"color", "brand"})]
	if n.EffectiveType != "color" {
		t.Errorf("EffectiveType = %q, want color (inherited)", n.EffectiveType)
	}
}

func TestBuildRecordsAliasEdge(t *testing.T) {
	d := doc(t, `{"color":{"brand":{"$value":"#fff"},"accent":{"$value":"{color.brand}"}}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if g.Stats.ReferenceCount != 1 {
		t.Fatalf("ReferenceCount = %d, want 1", g.Stats.ReferenceCount)
	}
	e := g.Edges[0]
	if e.From.String() != "color.accent" || e.ToPath.String() != "color.brand" {
		t.Fatalf("edge = %+v", e)
	}
}

func TestBuildDetectsCycle(t *testing.T) {
	d := doc(t, `{"a":{"$value":"{b}"},"b":{"$value":"{a}"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if g.Stats.CycleCount == 0 {
		t.Fatalf("expected a detected cycle")
	}
	if got := g.Cycles[0]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Cycles[0] = %v, want [a b]", got)
	}
	a := g.Nodes[key(tok.Path{"a"})]
	b := g.Nodes[key(tok.Path{"b"})]
	if a.ReferenceDepth != -1 || b.ReferenceDepth != -1 {
		t.Errorf("cyclic depths = %d, %d, want -1, -1", a.ReferenceDepth, b.ReferenceDepth)
	}
}

func TestBuildComputesReferenceDepth(t *testing.T) {
	d := doc(t, `{"a":{"$value":"1px"},"b":{"$value":"{a}"},"c":{"$value":"{b}"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	c := g.Nodes[key(tok.Path{"c"})]
	if c.ReferenceDepth != 2 {
		t.Errorf("depth(c) = %d, want 2", c.ReferenceDepth)
	}
	b := g.Nodes[key(tok.Path{"b"})]
	if b.ReferenceDepth != 1 {
		t.Errorf("depth(b) = %d, want 1", b.ReferenceDepth)
	}
}

func TestBuildRecordsExternalEdgeWithoutTarget(t *testing.T) {
	d := doc(t, `{"a":{"$ref":"./base.json#/color/brand"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %v", g.Edges)
	}
	e := g.Edges[0]
	if e.External != "./base.json" || e.ToFrag != "/color/brand" {
		t.Fatalf("edge = %+v", e)
	}
}

func TestBuildInfersTypeFromValueShape(t *testing.T) {
	d := doc(t, `{"brand":{"$value":"#ff00aa"},"gap":{"$value":"8px"},"fade":{"$value":"200ms"},"weight":{"$value":100}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]string{"brand": "color", "gap": "dimension", "fade": "duration", "weight": "number"}
	for name, want := range cases {
		n := g.Nodes[key(tok.Path{name})]
		if n.EffectiveType != want {
			t.Errorf("%s: EffectiveType = %q, want %q", name, n.EffectiveType, want)
		}
		if !n.InferredType {
			t.Errorf("%s: expected InferredType = true", name)
		}
	}
	if g.Stats.InferredTypeCount != 4 {
		t.Errorf("InferredTypeCount = %d, want 4", g.Stats.InferredTypeCount)
	}
}

func TestBuildInferenceNeverOverridesDeclaredType(t *testing.T) {
	d := doc(t, `{"brand":{"$value":"#ff00aa","$type":"color"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	n := g.Nodes[key(tok.Path{"brand"})]
	if n.InferredType {
		t.Errorf("declared type should not be marked inferred")
	}
}

func TestBuildAnnotatesReferenceValidity(t *testing.T) {
	d := doc(t, `{"a":{"$value":"1px"},"b":{"$value":"{a}"},"c":{"$value":"{missing}"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if g.Stats.ValidReferenceCount != 1 || g.Stats.InvalidReferenceCount != 1 {
		t.Fatalf("valid=%d invalid=%d, want 1, 1", g.Stats.ValidReferenceCount, g.Stats.InvalidReferenceCount)
	}
	c := g.Nodes[key(tok.Path{"c"})]
	if c.Valid {
		t.Errorf("token with an unresolved reference should be marked invalid")
	}
	b := g.Nodes[key(tok.Path{"b"})]
	if !b.Valid {
		t.Errorf("token with a resolved reference should remain valid")
	}
}

func TestBuildCircularReferenceStat(t *testing.T) {
	d := doc(t, `{"a":{"$value":"{b}"},"b":{"$value":"{a}"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if g.Stats.CircularReferenceCount != 2 {
		t.Errorf("CircularReferenceCount = %d, want 2", g.Stats.CircularReferenceCount)
	}
}

func TestBuildLabelsSplitCamelAndKebabCase(t *testing.T) {
	d := doc(t, `{"fontSize":{"$value":"16px"},"line-height":{"$value":"1.5"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Nodes[key(tok.Path{"fontSize"})].Label; got != "Font Size" {
		t.Errorf("Label = %q, want %q", got, "Font Size")
	}
	if got := g.Nodes[key(tok.Path{"line-height"})].Label; got != "Line Height" {
		t.Errorf("Label = %q, want %q", got, "Line Height")
	}
}

func TestBuildDetectsCycleThroughEmbeddedPointerRef(t *testing.T) {
	d := doc(t, `{"a":{"$value":{"$ref":"#/b/$value"}},"b":{"$value":{"$ref":"#/a/$value"}}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	if g.Stats.CycleCount == 0 {
		t.Fatalf("expected a detected cycle through embedded pointer refs")
	}
	if got := g.Cycles[0]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Cycles[0] = %v, want [a b]", got)
	}
	a := g.Nodes[key(tok.Path{"a"})]
	b := g.Nodes[key(tok.Path{"b"})]
	if a.ReferenceDepth != -1 || b.ReferenceDepth != -1 {
		t.Errorf("cyclic depths = %d, %d, want -1, -1", a.ReferenceDepth, b.ReferenceDepth)
	}
}

func TestReverseIndexFindsReferrers(t *testing.T) {
	d := doc(t, `{"a":{"$value":"1px"},"b":{"$value":"{a}"}}`)
	g, err := Build(d)
	if err != nil {
		t.Fatal(err)
	}
	idxs := g.ReverseIndex[key(tok.Path{"a"})]
	if len(idxs) != 1 {
		t.Fatalf("ReverseIndex[a] = %v", idxs)
	}
	if g.Edges[idxs[0]].From.String() != "b" {
		t.Fatalf("referrer = %v", g.Edges[idxs[0]].From)
	}
}
