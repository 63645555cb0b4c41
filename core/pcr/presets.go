package pcr

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinYAML []byte

// Polymerase names the master-mix reagent a PCR is built around and the
// thermocycler program it uses unless one is given explicitly.
type Polymerase struct {
	Reagent string  `yaml:"reagent"`
	Volume  float64 `yaml:"volume"` // µL per reaction
	Stock   string  `yaml:"stock"`
	Program string  `yaml:"program"`
}

// Presets holds polymerase and program tables. Values are never mutated
// after loading; lookups hand out copies.
type Presets struct {
	polymerases map[string]Polymerase
	programs    map[string]Program
}

type presetFile struct {
	Polymerases map[string]Polymerase     `yaml:"polymerases"`
	Programs    map[string]map[string]any `yaml:"programs"`
}

var builtin = mustLoad(builtinYAML)

// Builtin returns the tables shipped with the package.
func Builtin() *Presets { return builtin }

func mustLoad(b []byte) *Presets {
	p, err := LoadPresets(bytes.NewReader(b))
	if err != nil {
		panic(fmt.Sprintf("builtin presets: %v", err))
	}
	return p
}

// LoadPresets parses a YAML preset document. Unknown fields and unknown
// thermocycler parameters are rejected.
func LoadPresets(r io.Reader) (*Presets, error) {
	var f presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	out := &Presets{
		polymerases: make(map[string]Polymerase, len(f.Polymerases)),
		programs:    make(map[string]Program, len(f.Programs)),
	}
	for name, pol := range f.Polymerases {
		if pol.Reagent == "" {
			return nil, configErr("polymerase", name, fmt.Errorf("%w: missing reagent", ErrBadValue))
		}
		if pol.Volume <= 0 || pol.Volume > ReactionVolume {
			return nil, configErr("polymerase", name, fmt.Errorf("%w: volume %g", ErrBadValue, pol.Volume))
		}
		if pol.Program == "" {
			pol.Program = name
		}
		out.polymerases[name] = pol
	}
	for name, raw := range f.Programs {
		prog, err := programFromYAML(name, raw)
		if err != nil {
			return nil, err
		}
		out.programs[name] = prog
	}
	return out, nil
}

func programFromYAML(name string, raw map[string]any) (Program, error) {
	params := make(map[string]float64, len(raw))
	for k, v := range raw {
		key, err := ResolveParam(k)
		if err != nil {
			return Program{}, configErr("program "+name, k, ErrUnknownParam)
		}
		switch x := v.(type) {
		case int:
			params[key] = float64(x)
		case int64:
			params[key] = float64(x)
		case float64:
			params[key] = x
		case bool:
			if x {
				params[key] = 1
			} else {
				params[key] = 0
			}
		default:
			return Program{}, configErr("program "+name, k, fmt.Errorf("%w: %v", ErrBadValue, v))
		}
	}
	for _, k := range requiredParams {
		if _, ok := params[k]; !ok {
			return Program{}, configErr("program "+name, k, fmt.Errorf("%w: required", ErrBadValue))
		}
	}
	return newProgram(params), nil
}

// Merge returns a new table set where entries of other replace same-named
// entries of p.
func (p *Presets) Merge(other *Presets) *Presets {
	out := &Presets{
		polymerases: make(map[string]Polymerase, len(p.polymerases)),
		programs:    make(map[string]Program, len(p.programs)),
	}
	for _, src := range []*Presets{p, other} {
		if src == nil {
			continue
		}
		for k, v := range src.polymerases {
			out.polymerases[k] = v
		}
		for k, v := range src.programs {
			out.programs[k] = v.Clone()
		}
	}
	return out
}

func (p *Presets) Polymerase(name string) (Polymerase, bool) {
	pol, ok := p.polymerases[name]
	return pol, ok
}

// Program returns a copy of the named program.
func (p *Presets) Program(name string) (Program, bool) {
	prog, ok := p.programs[name]
	if !ok {
		return Program{}, false
	}
	return prog.Clone(), true
}

func (p *Presets) PolymeraseNames() []string { return sortedKeys(p.polymerases) }
func (p *Presets) ProgramNames() []string    { return sortedKeys(p.programs) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
