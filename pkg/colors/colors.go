// Package colors parses the color value formats DTCG color tokens are
// allowed to carry, backing the structural color checks in pkg/validate.
package colors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color wraps a parsed color value, keeping both its canonical RGB form and
// the original format it was written in.
type Color struct {
	colorful.Color
	Format string // "hex", "rgb", "rgba", "hsl", "hsla", "named"
	Alpha  float64
}

// Parse detects the format of a color string and parses it. It accepts the
// formats real-world DTCG color tokens use: 3/4/6/8-digit hex, rgb()/
// rgba(), hsl()/hsla(), and a small set of common CSS color names (see
// namedColors).
func Parse(input string) (Color, error) {
	s := strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseRGB(s)
	case strings.HasPrefix(s, "hsl"):
		return parseHSL(s)
	default:
		if c, ok := namedColors[strings.ToLower(s)]; ok {
			return Color{Color: c, Format: "named", Alpha: 1}, nil
		}
		return Color{}, fmt.Errorf("colors: unrecognized color format %q", input)
	}
}

// IsValid reports whether input parses as one of the supported color
// formats, without returning the parsed value.
func IsValid(input string) bool {
	_, err := Parse(input)
	return err == nil
}

func parseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	var alpha float64 = 1
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 4:
		a, err := strconv.ParseUint(string([]byte{hex[3], hex[3]}), 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("colors: invalid hex alpha in %q: %w", s, err)
		}
		alpha = float64(a) / 255
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
		// plain RGB
	case 8:
		a, err := strconv.ParseUint(hex[6:8], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("colors: invalid hex alpha in %q: %w", s, err)
		}
		alpha = float64(a) / 255
		hex = hex[:6]
	default:
		return Color{}, fmt.Errorf("colors: hex color %q must have 3, 4, 6, or 8 digits", s)
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return Color{}, fmt.Errorf("colors: invalid hex color %q: %w", s, err)
	}
	return Color{Color: c, Format: "hex", Alpha: alpha}, nil
}

func parseRGB(s string) (Color, error) {
	inner, format, err := functionArgs(s, []string{"rgba", "rgb"})
	if err != nil {
		return Color{}, err
	}
	parts := splitArgs(inner)
	if len(parts) < 3 {
		return Color{}, fmt.Errorf("colors: rgb() requires at least 3 components: %q", s)
	}
	r, err := parseChannel(parts[0])
	if err != nil {
		return Color{}, err
	}
	g, err := parseChannel(parts[1])
	if err != nil {
		return Color{}, err
	}
	b, err := parseChannel(parts[2])
	if err != nil {
		return Color{}, err
	}
	alpha := 1.0
	if len(parts) > 3 {
		alpha, err = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return Color{}, fmt.Errorf("colors: invalid alpha in %q: %w", s, err)
		}
	}
	return Color{Color: colorful.Color{R: r, G: g, B: b}, Format: format, Alpha: alpha}, nil
}

func parseHSL(s string) (Color, error) {
	inner, format, err := functionArgs(s, []string{"hsla", "hsl"})
	if err != nil {
		return Color{}, err
	}
	parts := splitArgs(inner)
	if len(parts) < 3 {
		return Color{}, fmt.Errorf("colors: hsl() requires at least 3 components: %q", s)
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[0]), "deg"), 64)
	if err != nil {
		return Color{}, fmt.Errorf("colors: invalid hue in %q: %w", s, err)
	}
	sat, err := parsePercent(parts[1])
	if err != nil {
		return Color{}, err
	}
	light, err := parsePercent(parts[2])
	if err != nil {
		return Color{}, err
	}
	alpha := 1.0
	if len(parts) > 3 {
		alpha, err = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return Color{}, fmt.Errorf("colors: invalid alpha in %q: %w", s, err)
		}
	}
	return Color{Color: colorful.Hsl(h, sat, light), Format: format, Alpha: alpha}, nil
}

func functionArgs(s string, candidates []string) (inner, format string, err error) {
	for _, name := range candidates {
		if strings.HasPrefix(s, name+"(") && strings.HasSuffix(s, ")") {
			return s[len(name)+1 : len(s)-1], name, nil
		}
	}
	return "", "", fmt.Errorf("colors: malformed color function %q", s)
}

func splitArgs(inner string) []string {
	sep := ","
	if !strings.Contains(inner, ",") {
		sep = " "
	}
	raw := strings.Split(inner, sep)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "/" || p == "" {
			continue
		}
		out = append(out, strings.TrimPrefix(p, "/"))
	}
	return out
}

func parseChannel(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return v / 100, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v / 255, nil
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("colors: expected a percentage, got %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

var namedColors = map[string]colorful.Color{
	"black":   {R: 0, G: 0, B: 0},
	"white":   {R: 1, G: 1, B: 1},
	"red":     {R: 1, G: 0, B: 0},
	"green":   {R: 0, G: 0.5019607843137255, B: 0},
	"blue":    {R: 0, G: 0, B: 1},
	"yellow":  {R: 1, G: 1, B: 0},
	"cyan":    {R: 0, G: 1, B: 1},
	"magenta": {R: 1, G: 0, B: 1},
	"gray":    {R: 0.5019607843137255, G: 0.5019607843137255, B: 0.5019607843137255},
	"grey":    {R: 0.5019607843137255, G: 0.5019607843137255, B: 0.5019607843137255},
	"orange":  {R: 1, G: 0.6470588235294118, B: 0},
	"purple":  {R: 0.5019607843137255, G: 0, B: 0.5019607843137255},
	"pink":    {R: 1, G: 0.7529411764705882, B: 0.796078431372549},
	"brown":   {R: 0.6470588235294118, G: 0.16470588235294117, B: 0.16470588235294117},
	"transparent": {R: 1, G: 1, B: 1},
	"currentcolor": {R: 0, G: 0, B: 0},
}
