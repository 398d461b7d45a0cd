// Package manifest parses and enumerates build manifests: the declarative
// description of which token files compose the base set, which modifier
// dimensions (oneOf/anyOf) layer variants on top, and which combinations of
// those dimensions a build should actually produce.
package manifest

import (
	"fmt"
	"sort"

	"github.com/dmoose/dtcgcore/pkg/tok"
)

// Kind distinguishes the two modifier selection disciplines.
type Kind int

const (
	// OneOf modifiers select exactly one of their declared options per
	// permutation (e.g. a theme: light or dark, never both, never neither).
	OneOf Kind = iota
	// AnyOf modifiers select any subset, including the empty subset, of
	// their declared options per permutation (e.g. optional feature flags).
	AnyOf
)

func (k Kind) String() string {
	if k == OneOf {
		return "oneOf"
	}
	return "anyOf"
}

// Modifier is one named dimension of variation declared by a manifest.
type Modifier struct {
	Name    string
	Kind    Kind
	Options []string            // declared order
	Files   map[string][]string // option -> file list contributed when selected
}

// GenerateSpec is one entry of an explicit "generate" list: a pin for some
// modifiers, a fanout request for others, and an optional explicit output
// id.
type GenerateSpec struct {
	// Pins maps a modifier name to an explicit selection: a string for a
	// oneOf modifier, a []string subset for an anyOf modifier, or the
	// literal "*" to mean "all options" (the full anyOf set, or every oneOf
	// option fanned out individually).
	Pins map[string]any
	// Fanout lists modifier names whose full option set (oneOf: every
	// option; anyOf: every non-empty-or-empty subset) should be expanded
	// as an additional cartesian dimension for this entry, multiplying the
	// number of permutations it produces.
	Fanout []string
	// Output, if set, overrides the synthesized output id for entries that
	// do not themselves fan out to more than one permutation.
	Output string
}

// Manifest is the parsed form of a build manifest document.
type Manifest struct {
	SetFiles      []string
	ModifierOrder []string
	Modifiers     map[string]*Modifier
	Generate      []GenerateSpec
}

// Error reports a manifest that does not have the expected shape.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("manifest: %s: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Parse builds a Manifest from a generically decoded manifest document
// (see pkg/loader.ReadManifest).
func Parse(root *tok.OrderedMap) (*Manifest, error) {
	m := &Manifest{Modifiers: make(map[string]*Modifier)}

	if setsVal, ok := root.Get("sets"); ok {
		sets, ok := setsVal.([]any)
		if !ok {
			return nil, &Error{Path: "sets", Err: fmt.Errorf("must be an array")}
		}
		for i, setVal := range sets {
			setObj, ok := setVal.(*tok.OrderedMap)
			if !ok {
				return nil, &Error{Path: fmt.Sprintf("sets[%d]", i), Err: fmt.Errorf("must be an object")}
			}
			valuesVal, _ := setObj.Get("values")
			files, err := stringSlice(valuesVal)
			if err != nil {
				return nil, &Error{Path: fmt.Sprintf("sets[%d].values", i), Err: err}
			}
			m.SetFiles = append(m.SetFiles, files...)
		}
	}

	if modsVal, ok := root.Get("modifiers"); ok {
		modsObj, ok := modsVal.(*tok.OrderedMap)
		if !ok {
			return nil, &Error{Path: "modifiers", Err: fmt.Errorf("must be an object")}
		}
		for _, name := range modsObj.Keys() {
			modVal, _ := modsObj.Get(name)
			modObj, ok := modVal.(*tok.OrderedMap)
			if !ok {
				return nil, &Error{Path: "modifiers." + name, Err: fmt.Errorf("must be an object")}
			}
			mod, err := parseModifier(name, modObj)
			if err != nil {
				return nil, err
			}
			m.Modifiers[name] = mod
			m.ModifierOrder = append(m.ModifierOrder, name)
		}
	}

	if genVal, ok := root.Get("generate"); ok {
		genList, ok := genVal.([]any)
		if !ok {
			return nil, &Error{Path: "generate", Err: fmt.Errorf("must be an array")}
		}
		for i, g := range genList {
			genObj, ok := g.(*tok.OrderedMap)
			if !ok {
				return nil, &Error{Path: fmt.Sprintf("generate[%d]", i), Err: fmt.Errorf("must be an object")}
			}
			spec, err := parseGenerateSpec(genObj, m)
			if err != nil {
				return nil, &Error{Path: fmt.Sprintf("generate[%d]", i), Err: err}
			}
			m.Generate = append(m.Generate, spec)
		}
	}

	return m, nil
}

func parseModifier(name string, obj *tok.OrderedMap) (*Modifier, error) {
	mod := &Modifier{Name: name, Files: make(map[string][]string)}

	oneOfVal, hasOneOf := obj.Get("oneOf")
	anyOfVal, hasAnyOf := obj.Get("anyOf")
	switch {
	case hasOneOf && hasAnyOf:
		return nil, &Error{Path: "modifiers." + name, Err: fmt.Errorf("cannot declare both oneOf and anyOf")}
	case hasOneOf:
		mod.Kind = OneOf
		opts, err := stringSlice(oneOfVal)
		if err != nil {
			return nil, &Error{Path: "modifiers." + name + ".oneOf", Err: err}
		}
		mod.Options = opts
	case hasAnyOf:
		mod.Kind = AnyOf
		opts, err := stringSlice(anyOfVal)
		if err != nil {
			return nil, &Error{Path: "modifiers." + name + ".anyOf", Err: err}
		}
		mod.Options = opts
	default:
		return nil, &Error{Path: "modifiers." + name, Err: fmt.Errorf("must declare oneOf or anyOf")}
	}

	valuesVal, ok := obj.Get("values")
	if !ok {
		return nil, &Error{Path: "modifiers." + name + ".values", Err: fmt.Errorf("required")}
	}
	valuesObj, ok := valuesVal.(*tok.OrderedMap)
	if !ok {
		return nil, &Error{Path: "modifiers." + name + ".values", Err: fmt.Errorf("must be an object")}
	}
	for _, opt := range mod.Options {
		fv, ok := valuesObj.Get(opt)
		if !ok {
			return nil, &Error{Path: "modifiers." + name + ".values." + opt, Err: fmt.Errorf("missing file list for declared option")}
		}
		files, err := stringSlice(fv)
		if err != nil {
			return nil, &Error{Path: "modifiers." + name + ".values." + opt, Err: err}
		}
		mod.Files[opt] = files
	}
	return mod, nil
}

func parseGenerateSpec(obj *tok.OrderedMap, m *Manifest) (GenerateSpec, error) {
	spec := GenerateSpec{Pins: make(map[string]any)}
	if outVal, ok := obj.Get("output"); ok {
		s, ok := outVal.(string)
		if !ok {
			return spec, fmt.Errorf("output must be a string")
		}
		spec.Output = s
	}
	if fanVal, ok := obj.Get("includeModifiers"); ok {
		entries, err := stringSlice(fanVal)
		if err != nil {
			return spec, fmt.Errorf("includeModifiers: %w", err)
		}
		for _, entry := range entries {
			// A "name:value" entry pins that modifier to a single value; a
			// bare "name" entry expands across its full option set,
			// multiplying the fanout.
			if name, value, ok := splitPin(entry); ok {
				spec.Pins[name] = value
			} else {
				spec.Fanout = append(spec.Fanout, entry)
			}
		}
	}
	for _, name := range m.ModifierOrder {
		v, ok := obj.Get(name)
		if !ok {
			continue
		}
		switch mv := v.(type) {
		case string:
			spec.Pins[name] = mv
		case []any:
			vals, err := stringSlice(mv)
			if err != nil {
				return spec, fmt.Errorf("%s: %w", name, err)
			}
			spec.Pins[name] = vals
		default:
			return spec, fmt.Errorf("%s: unsupported selection shape %T", name, v)
		}
	}
	return spec, nil
}

// splitPin splits an includeModifiers entry of the form "name:value" into
// its modifier name and pinned value. A bare "name" with no colon is not a
// pin and returns ok=false.
func splitPin(entry string) (name, value string, ok bool) {
	idx := -1
	for i := 0; i < len(entry); i++ {
		if entry[i] == ':' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", "", false
	}
	return entry[:idx], entry[idx+1:], true
}

func stringSlice(v any) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of strings")
	}
	out := make([]string, len(arr))
	for i, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("element %d is not a string", i)
		}
		out[i] = s
	}
	return out, nil
}

// subsets returns every subset of options, ordered deterministically by
// subset size then by the declared order of the options it contains. The
// empty subset sorts first.
func subsets(options []string) [][]string {
	n := len(options)
	all := make([][]string, 0, 1<<uint(n))
	for mask := 0; mask < (1 << uint(n)); mask++ {
		var s []string
		for i, opt := range options {
			if mask&(1<<uint(i)) != 0 {
				s = append(s, opt)
			}
		}
		all = append(all, s)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) < len(all[j])
		}
		for k := range all[i] {
			pi := indexOf(options, all[i][k])
			pj := indexOf(options, all[j][k])
			if pi != pj {
				return pi < pj
			}
		}
		return false
	})
	return all
}

func indexOf(options []string, v string) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return -1
}
