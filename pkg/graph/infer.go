package graph

import (
	"encoding/json"
	"regexp"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

var (
	hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	dimensionPattern = regexp.MustCompile(`^-?\d+(\.\d+)?(px|rem|em|%)$`)
	durationPattern  = regexp.MustCompile(`^-?\d+(\.\d+)?ms$`)
)

// InferType guesses a token's DTCG type from the shape of its $value when
// neither a declared nor an inherited type is available (§4.F). Inference
// is advisory and must never override a declared or inherited type; Build
// only calls it as a last resort, and a shape that matches none of these
// rules keeps an empty effective type.
func InferType(v any) string {
	switch t := v.(type) {
	case string:
		switch {
		case hexColorPattern.MatchString(t):
			return "color"
		case dimensionPattern.MatchString(t):
			return "dimension"
		case durationPattern.MatchString(t):
			return "duration"
		default:
			return ""
		}
	case json.Number:
		return "number"
	case float64:
		return "number"
	case *tok.OrderedMap:
		return inferObjectType(t)
	default:
		return ""
	}
}

func inferObjectType(obj *tok.OrderedMap) string {
	has := func(k string) bool { _, ok := obj.Get(k); return ok }
	switch {
	case has("color") && (has("offsetX") || has("offsetY") || has("blur")):
		return "shadow"
	case has("color") && has("width") && has("style"):
		return "border"
	case has("fontFamily") && has("fontSize"):
		return "typography"
	default:
		return ""
	}
}
