package merge

import (
	"testing"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

func parseDoc(t *testing.T, src string) *tok.OrderedMap {
	t.Helper()
	v, err := tok.Unmarshal([]byte(src))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return v.(*tok.OrderedMap)
}

func TestMergeRightReplacesScalarValue(t *testing.T) {
	left := parseDoc(t, `{"color":{"brand":{"$value":"#ff0000","$type":"color"}}}`)
	right := parseDoc(t, `{"color":{"brand":{"$value":"#00ff00"}}}`)

	result, conflicts, err := Merge(left, right, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	brand, _ := tok.Lookup(result, tok.Path{"color", "brand"})
	val, _ := brand.Get(tok.KeyValue)
	if val != "#00ff00" {
		t.Fatalf("value = %v, want #00ff00", val)
	}
}

func TestMergeCompositeValueDeepMergesFields(t *testing.T) {
	left := parseDoc(t, `{"shadow":{"card":{"$type":"shadow","$value":{"color":"#000","offsetX":"0px","offsetY":"2px"}}}}`)
	right := parseDoc(t, `{"shadow":{"card":{"$value":{"offsetY":"4px","blur":"8px"}}}}`)

	result, _, err := Merge(left, right, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	card, _ := tok.Lookup(result, tok.Path{"shadow", "card"})
	val, _ := card.Get(tok.KeyValue)
	valMap := val.(*tok.OrderedMap)

	color, _ := valMap.Get("color")
	if color != "#000" {
		t.Errorf("color = %v, want #000 (preserved from left)", color)
	}
	offsetY, _ := valMap.Get("offsetY")
	if offsetY != "4px" {
		t.Errorf("offsetY = %v, want 4px (overridden by right)", offsetY)
	}
	blur, _ := valMap.Get("blur")
	if blur != "8px" {
		t.Errorf("blur = %v, want 8px (added by right)", blur)
	}
}

func TestMergeTypeMismatchRecordsConflict(t *testing.T) {
	left := parseDoc(t, `{"size":{"sm":{"$value":"4px","$type":"dimension"}}}`)
	right := parseDoc(t, `{"size":{"sm":{"$value":4,"$type":"number"}}}`)

	result, conflicts, err := Merge(left, right, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Kind != ConflictTypeMismatch {
		t.Fatalf("conflicts = %v", conflicts)
	}
	sm, _ := tok.Lookup(result, tok.Path{"size", "sm"})
	typ, _ := tok.DeclaredType(sm)
	if typ != "number" {
		t.Fatalf("type = %q, want number (prefer right)", typ)
	}
}

func TestMergeShapeConflictUnsafeAborts(t *testing.T) {
	left := parseDoc(t, `{"color":{"$value":"#fff"}}`)
	right := parseDoc(t, `{"color":{"brand":{"$value":"#000"}}}`)

	opts := DefaultOptions()
	opts.Safe = false
	_, _, err := Merge(left, right, opts)
	if err == nil {
		t.Fatalf("expected error on shape conflict with Safe=false")
	}
	var mergeErr *Error
	if !asError(err, &mergeErr) {
		t.Fatalf("expected *merge.Error, got %T", err)
	}
}

func TestMergeTypeMismatchUnsafeAborts(t *testing.T) {
	left := parseDoc(t, `{"size":{"sm":{"$value":"4px","$type":"dimension"}}}`)
	right := parseDoc(t, `{"size":{"sm":{"$value":4,"$type":"number"}}}`)

	opts := DefaultOptions()
	opts.Safe = false
	_, _, err := Merge(left, right, opts)
	if err == nil {
		t.Fatalf("expected error on type mismatch with Safe=false")
	}
	var mergeErr *Error
	if !asError(err, &mergeErr) {
		t.Fatalf("expected *merge.Error, got %T", err)
	}
	if mergeErr.Kind != ConflictTypeMismatch {
		t.Fatalf("Kind = %v, want type-mismatch", mergeErr.Kind)
	}
}

func asError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}

func TestMergeExcludePathKeepsLeftUnchanged(t *testing.T) {
	left := parseDoc(t, `{"color":{"brand":{"$value":"#111"}},"spacing":{"sm":{"$value":"4px"}}}`)
	right := parseDoc(t, `{"color":{"brand":{"$value":"#222"}},"spacing":{"sm":{"$value":"8px"}}}`)

	opts := DefaultOptions()
	opts.Exclude = []tok.Path{{"color"}}
	result, _, err := Merge(left, right, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	brand, _ := tok.Lookup(result, tok.Path{"color", "brand"})
	val, _ := brand.Get(tok.KeyValue)
	if val != "#111" {
		t.Errorf("excluded path value = %v, want #111 (unchanged)", val)
	}
	sm, _ := tok.Lookup(result, tok.Path{"spacing", "sm"})
	val2, _ := sm.Get(tok.KeyValue)
	if val2 != "8px" {
		t.Errorf("non-excluded path value = %v, want 8px", val2)
	}
}

func TestMergeTypesFilterExcludesRightToken(t *testing.T) {
	left := parseDoc(t, `{"color":{"brand":{"$value":"#111","$type":"color"}}}`)
	right := parseDoc(t, `{"color":{"brand":{"$value":"#222","$type":"color"},"accent":{"$value":"12px","$type":"dimension"}}}`)

	opts := DefaultOptions()
	opts.Types = map[string]bool{"color": true}
	result, _, err := Merge(left, right, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, ok := tok.Lookup(result, tok.Path{"color", "accent"}); ok {
		t.Errorf("dimension token should have been filtered out by Types option")
	}
	brand, _ := tok.Lookup(result, tok.Path{"color", "brand"})
	val, _ := brand.Get(tok.KeyValue)
	if val != "#222" {
		t.Errorf("color token should still merge, got %v", val)
	}
}

func TestMergePreservesKeyOrderAppendingNewKeys(t *testing.T) {
	left := parseDoc(t, `{"b":{"$value":"1"},"a":{"$value":"2"}}`)
	right := parseDoc(t, `{"a":{"$value":"3"},"c":{"$value":"4"}}`)

	result, _, err := Merge(left, right, DefaultOptions())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := []string{"b", "a", "c"}
	got := result.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}
