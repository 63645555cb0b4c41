// Package pcr builds PCR setup protocols: the reaction table, an optional
// primer-mix table and the thermocycler program.
//
// A Pcr is derived state: every call to Steps re-renders from the current
// reagents and parameters. It is not safe for concurrent use.
package pcr

import (
	"fmt"
	"strconv"

	"dirtywater-core/quantity"
	"dirtywater-core/reaction"
)

// Reagent names used in the generated tables.
const (
	Water         = "water"
	PrimerMix     = "primer mix"
	Template      = "template DNA"
	ForwardPrimer = "forward primer"
	ReversePrimer = "reverse primer"
	DMSO          = "DMSO"
	Betaine       = "Betaine"
)

const (
	// ReactionVolume is the master-mix plus water volume (µL) of one
	// reaction, before additives.
	ReactionVolume = 44.0

	// AdditiveBasis is the nominal reaction volume (µL) additive percentages
	// refer to.
	AdditiveBasis = 50.0

	DefaultDMSOPercent    = 2.0
	DefaultBetainePercent = 2.0

	primerMixWater = 38.0
)

// Pcr is a PCR protocol generator. Reaction holds the main setup (its
// NumReactions includes the negative control); PrimerMix holds the 10x primer
// mix preparation.
type Pcr struct {
	Reaction      *reaction.Reaction
	PrimerMix     *reaction.Reaction
	Program       Program
	MakePrimerMix bool

	polymerase Polymerase
}

type override struct {
	name  string
	value float64
}

type config struct {
	presets      *Presets
	polymerase   string
	program      string
	numReactions int
	extra        float64
	overrides    []override
	primerMix    bool
	dmso         float64
	betaine      float64
	templateMM   bool
	primersMM    bool
}

type Option func(*config)

func WithPresets(p *Presets) Option { return func(c *config) { c.presets = p } }
func WithPolymerase(name string) Option { return func(c *config) { c.polymerase = name } }
func WithProgram(name string) Option { return func(c *config) { c.program = name } }
func WithNumReactions(n int) Option { return func(c *config) { c.numReactions = n } }
func WithExtraMasterMix(f float64) Option { return func(c *config) { c.extra = f } }
func WithPrimerMix(on bool) Option { return func(c *config) { c.primerMix = on } }
func WithDMSO(percent float64) Option { return func(c *config) { c.dmso = percent } }
func WithBetaine(percent float64) Option { return func(c *config) { c.betaine = percent } }

// WithTemplateInMasterMix controls whether template DNA is pipetted with the
// master mix (the default) or into each tube.
func WithTemplateInMasterMix(on bool) Option {
	return func(c *config) { c.templateMM = on }
}

func WithPrimersInMasterMix(on bool) Option {
	return func(c *config) { c.primersMM = on }
}

// WithParam overrides one thermocycler parameter. name may be canonical or
// an alias ("ta", "tx", "nc"). Later overrides win.
func WithParam(name string, value float64) Option {
	return func(c *config) { c.overrides = append(c.overrides, override{name, value}) }
}

func WithTwoStep(on bool) Option {
	v := 0.0
	if on {
		v = 1
	}
	return WithParam(TwoStep, v)
}

// New builds a PCR for the given polymerase (default "q5") and its program.
// Unknown polymerases, programs and parameter names fail here.
func New(opts ...Option) (*Pcr, error) {
	c := config{polymerase: "q5", numReactions: 1, templateMM: true}
	for _, o := range opts {
		o(&c)
	}
	if c.presets == nil {
		c.presets = Builtin()
	}

	pol, ok := c.presets.Polymerase(c.polymerase)
	if !ok {
		return nil, configErr("polymerase", c.polymerase, ErrUnknownPolymerase)
	}
	progName := c.program
	if progName == "" {
		progName = pol.Program
	}
	prog, ok := c.presets.Program(progName)
	if !ok {
		return nil, configErr("program", progName, ErrUnknownPreset)
	}
	for _, o := range c.overrides {
		key, err := ResolveParam(o.name)
		if err != nil {
			return nil, err
		}
		prog.Set(key, o.value)
	}

	p := &Pcr{
		Reaction:      reaction.New(),
		PrimerMix:     reaction.New(),
		Program:       prog,
		MakePrimerMix: c.primerMix,
		polymerase:    pol,
	}
	if err := p.setupReagents(); err != nil {
		return nil, err
	}
	if err := p.SetNumReactions(c.numReactions); err != nil {
		return nil, err
	}
	if err := p.SetExtraMasterMix(c.extra); err != nil {
		return nil, err
	}
	p.SetTemplateInMasterMix(c.templateMM)
	p.SetPrimersInMasterMix(c.primersMM)
	if err := p.SetDMSOPercent(c.dmso); err != nil {
		return nil, err
	}
	if err := p.SetBetainePercent(c.betaine); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pcr) setupReagents() error {
	stock, err := quantity.Parse(p.polymerase.Stock)
	if err != nil && p.polymerase.Stock != "" {
		return configErr("polymerase stock", p.polymerase.Stock, err)
	}

	pm := p.PrimerMix
	pm.ShowMasterMix = false
	pm.Get(Water).SetVolume(primerMixWater, quantity.Microliter)
	pm.Get(ForwardPrimer).SetVolume(1, quantity.Microliter).SetStock("200 µM")
	pm.Get(ReversePrimer).SetVolume(1, quantity.Microliter).SetStock("200 µM")

	rx := p.Reaction
	water := rx.Get(Water)
	water.Volume = quantity.New(ReactionVolume, quantity.Microliter).
		MustSub(quantity.New(p.polymerase.Volume, quantity.Microliter))
	water.MasterMix = true
	rx.Get(PrimerMix).SetVolume(5, quantity.Microliter).SetStock("10x")
	rx.Get(Template).SetVolume(1, quantity.Microliter).SetStock("100 pg/µL").MasterMix = true
	enzyme := rx.Get(p.polymerase.Reagent)
	enzyme.SetVolume(p.polymerase.Volume, quantity.Microliter)
	enzyme.Stock = stock
	enzyme.MasterMix = true
	return nil
}

// Polymerase returns the polymerase this PCR was built for.
func (p *Pcr) Polymerase() Polymerase { return p.polymerase }

// NumReactions is the number of real reactions, excluding the negative
// control.
func (p *Pcr) NumReactions() int { return p.Reaction.NumReactions - 1 }

// SetNumReactions sets the real reaction count; one negative control is
// always added on top.
func (p *Pcr) SetNumReactions(n int) error {
	if n < 1 {
		return configErr("num reactions", strconv.Itoa(n), ErrBadValue)
	}
	p.Reaction.NumReactions = n + 1
	return nil
}

func (p *Pcr) ExtraMasterMix() float64 { return p.Reaction.ExtraMasterMix }

// SetExtraMasterMix sets the master-mix overage as a fraction (0.1 = +10%).
func (p *Pcr) SetExtraMasterMix(f float64) error {
	if f < 0 {
		return configErr("extra master mix", formatFloat(f), ErrBadValue)
	}
	p.Reaction.ExtraMasterMix = f
	return nil
}

// TemplateInMasterMix reports false once the template row has been removed.
func (p *Pcr) TemplateInMasterMix() bool { return p.inMasterMix(Template) }

func (p *Pcr) SetTemplateInMasterMix(on bool) { p.setMasterMix(Template, on) }

func (p *Pcr) PrimersInMasterMix() bool { return p.inMasterMix(PrimerMix) }

func (p *Pcr) SetPrimersInMasterMix(on bool) { p.setMasterMix(PrimerMix, on) }

func (p *Pcr) inMasterMix(name string) bool {
	r, ok := p.Reaction.Lookup(name)
	return ok && r.MasterMix
}

// setMasterMix leaves absent reagents absent.
func (p *Pcr) setMasterMix(name string, on bool) {
	if r, ok := p.Reaction.Lookup(name); ok {
		r.MasterMix = on
	}
}

// SetAdditivesInMasterMix moves any DMSO or betaine in or out of the master
// mix.
func (p *Pcr) SetAdditivesInMasterMix(on bool) {
	p.setMasterMix(DMSO, on)
	p.setMasterMix(Betaine, on)
}

func (p *Pcr) DMSO() bool    { return p.Reaction.Has(DMSO) }
func (p *Pcr) Betaine() bool { return p.Reaction.Has(Betaine) }

// SetDMSO adds DMSO at DefaultDMSOPercent, or removes it.
func (p *Pcr) SetDMSO(on bool) error {
	if on {
		return p.SetDMSOPercent(DefaultDMSOPercent)
	}
	return p.SetDMSOPercent(0)
}

// SetDMSOPercent adds DMSO at percent of AdditiveBasis, taking the volume out
// of the water. percent <= 0 removes DMSO but leaves the water as is.
func (p *Pcr) SetDMSOPercent(percent float64) error {
	return p.setAdditive(DMSO, "100%", percent)
}

// SetBetaine adds betaine at DefaultBetainePercent, or removes it.
func (p *Pcr) SetBetaine(on bool) error {
	if on {
		return p.SetBetainePercent(DefaultBetainePercent)
	}
	return p.SetBetainePercent(0)
}

func (p *Pcr) SetBetainePercent(percent float64) error {
	return p.setAdditive(Betaine, "5M", percent)
}

func (p *Pcr) setAdditive(name, stock string, percent float64) error {
	if percent <= 0 {
		p.Reaction.Remove(name)
		return nil
	}
	vol := quantity.New(AdditiveBasis*percent/100, quantity.Microliter)
	water := p.Reaction.Get(Water)
	left, err := water.Volume.Sub(vol)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r := p.Reaction.Get(name)
	r.Volume = vol
	r.SetStock(stock)
	r.MasterMix = true
	water.Volume = left
	return nil
}

// Param reads a thermocycler parameter by canonical name or alias.
func (p *Pcr) Param(name string) (float64, bool) {
	key, err := ResolveParam(name)
	if err != nil {
		return 0, false
	}
	return p.Program.Get(key)
}

// SetParam writes a thermocycler parameter by canonical name or alias.
func (p *Pcr) SetParam(name string, v float64) error {
	key, err := ResolveParam(name)
	if err != nil {
		return err
	}
	p.Program.Set(key, v)
	return nil
}

func (p *Pcr) AnnealTemp() float64 {
	v, _ := p.Program.Get(AnnealTemp)
	return v
}

func (p *Pcr) SetAnnealTemp(c float64) { p.Program.Set(AnnealTemp, c) }

// ExtendTime is the per-cycle extension time in seconds.
func (p *Pcr) ExtendTime() float64 {
	v, _ := p.Program.Get(ExtendTime)
	return v
}

func (p *Pcr) SetExtendTime(sec float64) { p.Program.Set(ExtendTime, sec) }

func (p *Pcr) NumCycles() int {
	v, _ := p.Program.Get(NumCycles)
	return int(v)
}

func (p *Pcr) SetNumCycles(n int) { p.Program.Set(NumCycles, float64(n)) }

// Steps renders the protocol sections in order: primer mix (when
// MakePrimerMix), reaction setup, thermocycler program.
func (p *Pcr) Steps() []string {
	var steps []string
	if p.MakePrimerMix {
		steps = append(steps, "Prepare each 10x primer mix:\n\n"+p.PrimerMix.Render())
	}
	steps = append(steps, p.setupStep(), p.thermocyclerStep())
	return steps
}

func (p *Pcr) setupStep() string {
	n := p.NumReactions()
	s := "s"
	if n == 1 {
		s = ""
	}
	return fmt.Sprintf("Setup %d PCR reaction%s and 1 negative control:\n\n%s", n, s, p.Reaction.Render())
}

func (p *Pcr) thermocyclerStep() string {
	return "Run the following thermocycler protocol:\n\n" + p.Program.Render()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
