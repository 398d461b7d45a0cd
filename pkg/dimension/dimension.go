// Package dimension parses and validates the dimension and number value
// formats DTCG tokens use, backing the structural checks in pkg/validate.
package dimension

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension is a parsed CSS-style length: a numeric magnitude plus a unit.
type Dimension struct {
	Value float64
	Unit  string
}

// validUnits are the units a DTCG dimension token's $value may carry.
var validUnits = map[string]bool{
	"px": true, "rem": true, "em": true, "%": true,
	"vh": true, "vw": true, "vmin": true, "vmax": true,
	"pt": true, "pc": true, "in": true, "cm": true, "mm": true, "ch": true, "ex": true,
}

// Parse parses a dimension string like "16px" or "1.5rem" into its numeric
// value and unit.
func Parse(s string) (Dimension, error) {
	s = strings.TrimSpace(s)
	if s == "0" {
		return Dimension{Value: 0, Unit: "px"}, nil
	}
	i := len(s)
	for i > 0 && !isDigitOrDotOrSign(s[i-1]) {
		i--
	}
	numPart, unitPart := s[:i], strings.TrimSpace(s[i:])
	if numPart == "" {
		return Dimension{}, fmt.Errorf("dimension: missing numeric magnitude in %q", s)
	}
	v, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return Dimension{}, fmt.Errorf("dimension: invalid numeric magnitude in %q: %w", s, err)
	}
	if unitPart == "" {
		return Dimension{}, fmt.Errorf("dimension: missing unit in %q", s)
	}
	if !validUnits[unitPart] {
		return Dimension{}, fmt.Errorf("dimension: unrecognized unit %q in %q", unitPart, s)
	}
	return Dimension{Value: v, Unit: unitPart}, nil
}

func isDigitOrDotOrSign(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.' || b == '-' || b == '+'
}

// IsValid reports whether s parses as a dimension value.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// ParseNumber parses a DTCG number token's $value, which is a bare
// (unitless) JSON number rendered as a string by some producers, or a plain
// JSON number carried through as float64/json.Number elsewhere.
func ParseNumber(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("dimension: invalid number %q: %w", t, err)
		}
		return f, nil
	case interface{ Float64() (float64, error) }:
		return t.Float64()
	default:
		return 0, fmt.Errorf("dimension: value is not numeric: %v", v)
	}
}
