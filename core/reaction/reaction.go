// core/reaction/reaction.go
package reaction

import (
	"iter"

	"dirtywater-core/quantity"
)

// Reagent is one row of a reaction table. Volume is per single reaction.
type Reagent struct {
	Name      string
	Volume    quantity.Quantity
	Stock     quantity.Quantity // numeric or symbolic ("2x")
	Final     quantity.Quantity // working concentration, optional
	MasterMix bool
}

// SetVolume is shorthand for Volume = quantity.New(v, unit).
func (r *Reagent) SetVolume(v float64, unit string) *Reagent {
	r.Volume = quantity.New(v, unit)
	return r
}

// SetStock parses s ("2x", "200 µM") into Stock.
func (r *Reagent) SetStock(s string) *Reagent {
	r.Stock = quantity.MustParse(s)
	return r
}

// Reaction is an ordered set of reagents scaled across NumReactions tubes.
// ExtraMasterMix is a fractional overage (0.1 = +10%) applied to master-mix
// reagents only.
type Reaction struct {
	NumReactions   int
	ExtraMasterMix float64
	ShowMasterMix  bool

	order []string
	byKey map[string]*Reagent
}

// New returns an empty reaction for a single tube.
func New() *Reaction {
	return &Reaction{
		NumReactions:  1,
		ShowMasterMix: true,
		byKey:         make(map[string]*Reagent),
	}
}

// Get returns the named reagent, appending an empty one on first use.
func (x *Reaction) Get(name string) *Reagent {
	if r, ok := x.byKey[name]; ok {
		return r
	}
	if x.byKey == nil {
		x.byKey = make(map[string]*Reagent)
	}
	r := &Reagent{Name: name}
	x.byKey[name] = r
	x.order = append(x.order, name)
	return r
}

func (x *Reaction) Lookup(name string) (*Reagent, bool) {
	r, ok := x.byKey[name]
	return r, ok
}

func (x *Reaction) Has(name string) bool {
	_, ok := x.byKey[name]
	return ok
}

// Remove deletes name; absent names are ignored.
func (x *Reaction) Remove(name string) {
	if _, ok := x.byKey[name]; !ok {
		return
	}
	delete(x.byKey, name)
	for i, n := range x.order {
		if n == name {
			x.order = append(x.order[:i], x.order[i+1:]...)
			break
		}
	}
}

func (x *Reaction) Len() int { return len(x.order) }

// Names returns reagent names in insertion order.
func (x *Reaction) Names() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// All yields reagents in insertion order.
func (x *Reaction) All() iter.Seq[*Reagent] {
	return func(yield func(*Reagent) bool) {
		for _, n := range x.order {
			if !yield(x.byKey[n]) {
				return
			}
		}
	}
}

// Multiplier is the number of single-reaction volumes r needs in total.
func (x *Reaction) Multiplier(r *Reagent) float64 {
	n := float64(x.NumReactions)
	if r.MasterMix {
		return n * (1 + x.ExtraMasterMix)
	}
	return n
}

// Total is r's volume scaled across the batch. Reagents with no volume give
// the zero quantity; a symbolic volume is a programming error.
func (x *Reaction) Total(r *Reagent) quantity.Quantity {
	q, err := r.Volume.Scale(x.Multiplier(r))
	if err != nil {
		panic(err)
	}
	return q
}

// PerReactionVolume sums the volume of every reagent in one tube.
func (x *Reaction) PerReactionVolume() (quantity.Quantity, error) {
	var sum quantity.Quantity
	for r := range x.All() {
		var err error
		if sum, err = sum.Add(r.Volume); err != nil {
			return quantity.Quantity{}, err
		}
	}
	return sum, nil
}

// groups splits reagents into master-mix and per-reaction blocks when both
// are present and ShowMasterMix is set.
func (x *Reaction) groups() (mm, each []*Reagent, split bool) {
	for r := range x.All() {
		if r.MasterMix {
			mm = append(mm, r)
		} else {
			each = append(each, r)
		}
	}
	split = x.ShowMasterMix && len(mm) > 0 && len(each) > 0
	return mm, each, split
}

func (x *Reaction) String() string { return x.Render() }
