package manifest

import "strings"

// Selection records what a single permutation chose for one modifier.
type Selection struct {
	Kind  Kind
	One   string   // set when Kind == OneOf
	Any   []string // set when Kind == AnyOf, in declared option order
}

// Permutation is one fully-resolved combination of modifier selections: the
// ordered list of files it composes from, and its synthesized or explicit
// output id.
type Permutation struct {
	ID         string
	Selections map[string]Selection
	Files      []string
}

// EnumeratePermutations expands a manifest into its full set of build
// permutations. When the manifest declares an explicit "generate" list,
// only those permutations (after expanding any wildcard or bare-name
// fanout) are produced; otherwise every combination of every modifier's
// options is produced (the full cartesian product).
func EnumeratePermutations(m *Manifest) ([]Permutation, error) {
	if len(m.Generate) > 0 {
		var out []Permutation
		for _, spec := range m.Generate {
			perms, err := expandGenerateSpec(m, spec)
			if err != nil {
				return nil, err
			}
			out = append(out, perms...)
		}
		return out, nil
	}
	return fullCartesian(m), nil
}

func fullCartesian(m *Manifest) []Permutation {
	selections := []map[string]Selection{{}}
	for _, name := range m.ModifierOrder {
		mod := m.Modifiers[name]
		var choices []Selection
		switch mod.Kind {
		case OneOf:
			for _, opt := range mod.Options {
				choices = append(choices, Selection{Kind: OneOf, One: opt})
			}
		case AnyOf:
			for _, s := range subsets(mod.Options) {
				choices = append(choices, Selection{Kind: AnyOf, Any: s})
			}
		}
		selections = multiply(selections, name, choices)
	}
	return finalize(m, selections)
}

func multiply(base []map[string]Selection, name string, choices []Selection) []map[string]Selection {
	out := make([]map[string]Selection, 0, len(base)*len(choices))
	for _, b := range base {
		for _, c := range choices {
			next := make(map[string]Selection, len(b)+1)
			for k, v := range b {
				next[k] = v
			}
			next[name] = c
			out = append(out, next)
		}
	}
	return out
}

func expandGenerateSpec(m *Manifest, spec GenerateSpec) ([]Permutation, error) {
	// A "*" pin on a oneOf modifier has no single Selection to collapse to;
	// it means "every option", i.e. a fanout, same as naming the modifier in
	// includeModifiers. Promote it before resolving the remaining pins.
	fanout := append([]string{}, spec.Fanout...)
	pins := make(map[string]any, len(spec.Pins))
	for name, pin := range spec.Pins {
		mod := m.Modifiers[name]
		if mod != nil && mod.Kind == OneOf {
			if s, ok := pin.(string); ok && s == "*" {
				fanout = append(fanout, name)
				continue
			}
		}
		pins[name] = pin
	}

	base := map[string]Selection{}
	for name, mod := range m.Modifiers {
		if pin, ok := pins[name]; ok {
			sel, err := selectionFromPin(mod, pin)
			if err != nil {
				return nil, err
			}
			base[name] = sel
		}
	}

	selections := []map[string]Selection{base}
	for _, name := range fanout {
		mod, ok := m.Modifiers[name]
		if !ok {
			continue
		}
		var choices []Selection
		switch mod.Kind {
		case OneOf:
			for _, opt := range mod.Options {
				choices = append(choices, Selection{Kind: OneOf, One: opt})
			}
		case AnyOf:
			for _, s := range subsets(mod.Options) {
				choices = append(choices, Selection{Kind: AnyOf, Any: s})
			}
		}
		selections = multiply(selections, name, choices)
	}

	// Any modifier neither pinned nor fanned out defaults to its "empty"
	// selection: the first declared oneOf option is not implied (oneOf
	// modifiers must be pinned or fanned out explicitly), anyOf modifiers
	// default to the empty subset.
	for _, name := range m.ModifierOrder {
		mod := m.Modifiers[name]
		for _, sel := range selections {
			if _, ok := sel[name]; !ok && mod.Kind == AnyOf {
				sel[name] = Selection{Kind: AnyOf}
			}
		}
	}

	perms := finalize(m, selections)
	if spec.Output != "" && len(perms) == 1 {
		perms[0].ID = spec.Output
	}
	return perms, nil
}

func selectionFromPin(mod *Modifier, pin any) (Selection, error) {
	switch mod.Kind {
	case OneOf:
		s, ok := pin.(string)
		if !ok {
			return Selection{}, &Error{Path: "generate." + mod.Name, Err: errString("oneOf pin must be a string")}
		}
		return Selection{Kind: OneOf, One: s}, nil
	case AnyOf:
		if s, ok := pin.(string); ok {
			if s == "*" {
				return Selection{Kind: AnyOf, Any: append([]string{}, mod.Options...)}, nil
			}
			// A single "name:value" includeModifiers pin selects that one
			// option as a singleton subset.
			return Selection{Kind: AnyOf, Any: []string{s}}, nil
		}
		vals, ok := pin.([]string)
		if !ok {
			return Selection{}, &Error{Path: "generate." + mod.Name, Err: errString("anyOf pin must be a list of strings or \"*\"")}
		}
		return Selection{Kind: AnyOf, Any: vals}, nil
	}
	return Selection{}, &Error{Path: "generate." + mod.Name, Err: errString("unknown modifier kind")}
}

type errString string

func (e errString) Error() string { return string(e) }

func finalize(m *Manifest, selections []map[string]Selection) []Permutation {
	out := make([]Permutation, 0, len(selections))
	for _, sel := range selections {
		files := append([]string{}, m.SetFiles...)
		for _, name := range m.ModifierOrder {
			s, ok := sel[name]
			if !ok {
				continue
			}
			mod := m.Modifiers[name]
			switch s.Kind {
			case OneOf:
				files = append(files, mod.Files[s.One]...)
			case AnyOf:
				for _, opt := range mod.Options {
					if containsString(s.Any, opt) {
						files = append(files, mod.Files[opt]...)
					}
				}
			}
		}
		out = append(out, Permutation{
			ID:         synthesizeID(m, sel),
			Selections: sel,
			Files:      files,
		})
	}
	return out
}

func synthesizeID(m *Manifest, sel map[string]Selection) string {
	var parts []string
	for _, name := range m.ModifierOrder {
		s, ok := sel[name]
		if !ok {
			continue
		}
		switch s.Kind {
		case OneOf:
			parts = append(parts, name+"-"+s.One)
		case AnyOf:
			if len(s.Any) == 0 {
				parts = append(parts, name+"-default")
			} else {
				parts = append(parts, name+"-"+strings.Join(s.Any, "+"))
			}
		}
	}
	return strings.Join(parts, "_")
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
