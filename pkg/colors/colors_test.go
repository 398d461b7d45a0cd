package colors

import "testing"

func TestParseHexFormats(t *testing.T) {
	cases := []string{"#fff", "#ffffff", "#ff0000", "#ff000080"}
	for _, c := range cases {
		if _, err := Parse(c); err != nil {
			t.Errorf("Parse(%q): %v", c, err)
		}
	}
}

func TestParseHexAlpha(t *testing.T) {
	c, err := Parse("#ff000080")
	if err != nil {
		t.Fatal(err)
	}
	if c.Alpha < 0.49 || c.Alpha > 0.51 {
		t.Errorf("alpha = %v, want ~0.5", c.Alpha)
	}
}

func TestParseRGBFunctions(t *testing.T) {
	if _, err := Parse("rgb(255, 0, 0)"); err != nil {
		t.Errorf("rgb(): %v", err)
	}
	if _, err := Parse("rgba(0, 255, 0, 0.5)"); err != nil {
		t.Errorf("rgba(): %v", err)
	}
}

func TestParseHSLFunctions(t *testing.T) {
	if _, err := Parse("hsl(120, 100%, 50%)"); err != nil {
		t.Errorf("hsl(): %v", err)
	}
	if _, err := Parse("hsla(120, 100%, 50%, 0.25)"); err != nil {
		t.Errorf("hsla(): %v", err)
	}
}

func TestParseNamedColor(t *testing.T) {
	if _, err := Parse("Blue"); err != nil {
		t.Errorf("named color: %v", err)
	}
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	if _, err := Parse("notacolor"); err == nil {
		t.Errorf("expected error for unrecognized color format")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("#abc") {
		t.Errorf("expected #abc to be valid")
	}
	if IsValid("nope") {
		t.Errorf("expected nope to be invalid")
	}
}
