package convert

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

func TestToAliasDialectRewritesRef(t *testing.T) {
	d := doc(t, `{"color":{"brand":{"$value":"#fff"},"accent":{"$ref":"#/color/brand"}}}`)
	out, warnings := ToDialect(d, AliasDialect)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	accent, _ := tok.Lookup(out, tok.Path{"color", "accent"})
	if _, ok := accent.Get(tok.KeyRef); ok {
		t.Errorf("expected $ref to be removed")
	}
	val, _ := accent.Get(tok.KeyValue)
	if val != "{color.brand}" {
		t.Fatalf("value = %v, want {color.brand}", val)
	}
}

func TestToPointerDialectRewritesAliasValue(t *testing.T) {
	d := doc(t, `{"color":{"brand":{"$value":"#fff"},"accent":{"$value":"{color.brand}"}}}`)
	out, _ := ToDialect(d, PointerDialect)
	accent, _ := tok.Lookup(out, tok.Path{"color", "accent"})
	val, _ := accent.Get(tok.KeyValue)
	if val != "#/color/brand" {
		t.Fatalf("value = %v, want #/color/brand", val)
	}
}

func TestToAliasDialectCollapsesEmbeddedPointerRef(t *testing.T) {
	d := doc(t, `{"c":{"p":{"$value":"#fff"}},"s":{"$type":"color","$value":{"$ref":"#/c/p/$value"}}}`)
	out, warnings := ToDialect(d, AliasDialect)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	s, _ := tok.Lookup(out, tok.Path{"s"})
	val, _ := s.Get(tok.KeyValue)
	if val != "{c.p}" {
		t.Fatalf("value = %v, want {c.p}", val)
	}
}

func TestToAliasDialectWarnsOnExternalEmbeddedPointerRef(t *testing.T) {
	d := doc(t, `{"s":{"$type":"color","$value":{"$ref":"./base.json#/c/p"}}}`)
	out, warnings := ToDialect(d, AliasDialect)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", warnings)
	}
	s, _ := tok.Lookup(out, tok.Path{"s"})
	val, _ := s.Get(tok.KeyValue)
	valMap, ok := val.(*tok.OrderedMap)
	if !ok {
		t.Fatalf("value = %v (%T), want *tok.OrderedMap left wrapped", val, val)
	}
	if _, ok := valMap.Get(tok.KeyRef); !ok {
		t.Fatalf("expected $ref to remain in the wrapped value")
	}
}

func TestToAliasDialectWarnsOnExternalRef(t *testing.T) {
	d := doc(t, `{"color":{"accent":{"$ref":"./base.json#/color/brand"}}}`)
	_, warnings := ToDialect(d, AliasDialect)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", warnings)
	}
}
