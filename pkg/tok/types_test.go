package tok

import "testing"

func mustMap(t *testing.T, src string) *OrderedMap {
	t.Helper()
	v, err := Unmarshal([]byte(src))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return v.(*OrderedMap)
}

func TestIsTokenAndIsGroup(t *testing.T) {
	token := mustMap(t, `{"$value":"#fff","$type":"color"}`)
	group := mustMap(t, `{"brand":{"$value":"#fff"}}`)
	empty := mustMap(t, `{}`)

	if !IsToken(token) {
		t.Errorf("expected token node to be a token")
	}
	if IsGroup(token) {
		t.Errorf("token node should not also be a group")
	}
	if !IsGroup(group) {
		t.Errorf("expected group node to be a group")
	}
	if !IsGroup(empty) {
		t.Errorf("empty object should be treated as an empty group")
	}

	refToken := mustMap(t, `{"$ref":"#/color/brand"}`)
	if !IsToken(refToken) {
		t.Errorf("a bare $ref node is a token")
	}
}

func TestEffectiveTypeInheritance(t *testing.T) {
	declared := mustMap(t, `{"$value":"1px","$type":"dimension"}`)
	if got := EffectiveType(declared, "color"); got != "dimension" {
		t.Errorf("EffectiveType = %q, want dimension", got)
	}
	undeclared := mustMap(t, `{"$value":"1px"}`)
	if got := EffectiveType(undeclared, "dimension"); got != "dimension" {
		t.Errorf("EffectiveType = %q, want inherited dimension", got)
	}
}

func TestHasReferenceDetectsAliasAndPointer(t *testing.T) {
	alias := mustMap(t, `{"$value":"{color.brand}"}`)
	pointer := mustMap(t, `{"$ref":"#/color/brand"}`)
	plain := mustMap(t, `{"$value":"#fff"}`)

	if !HasReference(alias) {
		t.Errorf("expected alias value to be detected as a reference")
	}
	if !HasReference(pointer) {
		t.Errorf("expected $ref token to be detected as a reference")
	}
	if HasReference(plain) {
		t.Errorf("plain hex value should not be a reference")
	}
}
