package tok

import (
	"encoding/json"
	"testing"
)

func TestOrderedMapPreservesKeyOrder(t *testing.T) {
	src := []byte(`{"z": 1, "a": 2, "m": 3}`)
	v, err := Unmarshal(src)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	m, ok := v.(*OrderedMap)
	if !ok {
		t.Fatalf("expected *OrderedMap, got %T", v)
	}
	want := []string{"z", "a", "m"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestOrderedMapRoundTripsThroughMarshal(t *testing.T) {
	src := []byte(`{"color":{"brand":{"$value":"#ff0000","$type":"color"}},"spacing":{"sm":{"$value":"4px"}}}`)
	v, err := Unmarshal(src)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	v2, err := Unmarshal(out)
	if err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if !Equal(v, v2) {
		t.Fatalf("round trip changed structure: %s", out)
	}
}

func TestCloneValueIsIndependent(t *testing.T) {
	v, err := Unmarshal([]byte(`{"a":{"$value":1}}`))
	if err != nil {
		t.Fatal(err)
	}
	m := v.(*OrderedMap)
	clone := CloneValue(m).(*OrderedMap)
	inner, _ := clone.Get("a")
	inner.(*OrderedMap).Set("$value", 2)

	origInner, _ := m.Get("a")
	got, _ := origInner.(*OrderedMap).Get("$value")
	if n, ok := got.(json.Number); !ok || n.String() != "1" {
		t.Fatalf("mutating clone affected original: %v", got)
	}
}

func TestEqualDetectsOrderDifference(t *testing.T) {
	a, _ := Unmarshal([]byte(`{"a":1,"b":2}`))
	b, _ := Unmarshal([]byte(`{"b":2,"a":1}`))
	if Equal(a, b) {
		t.Fatalf("expected differing key order to compare unequal")
	}
}
