package pcr

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirtywater-core/protocol"
	"dirtywater-core/quantity"
)

func mustNew(t *testing.T, opts ...Option) *Pcr {
	t.Helper()
	p, err := New(opts...)
	require.NoError(t, err)
	return p
}

func volume(t *testing.T, p *Pcr, name string) float64 {
	t.Helper()
	r, ok := p.Reaction.Lookup(name)
	require.True(t, ok, name)
	v, ok := r.Volume.Magnitude()
	require.True(t, ok, name)
	return v
}

func TestQ5EndToEnd(t *testing.T) {
	want := `
1. Setup 3 PCR reactions and 1 negative control:

   Reagent                Stock  Volume   Total
   ────────────────────────────────────────────
   water                          19 µL   76 µL
   template DNA       100 pg/µL    1 µL    4 µL
   Q5 master mix             2x   25 µL  100 µL
   ────────────────────────────────────────────
   master mix, 4x                 45 µL  180 µL

   primer mix               10x    5 µL   20 µL
   ────────────────────────────────────────────
   each reaction, 4x               5 µL   20 µL

2. Run the following thermocycler protocol:

   - 98°C for 30s
   - Repeat 35x:
     - 98°C for 10s
     - 60°C for 20s
     - 72°C for 2m
   - 72°C for 2m
   - 4°C hold
`
	p := mustNew(t, WithPolymerase("q5"), WithNumReactions(3))
	got := protocol.New().Extend(p).Render()
	if diff := cmp.Diff(strings.Trim(want, "\n"), got); diff != "" {
		t.Fatalf("protocol mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 19.0, volume(t, p, Water))
	assert.Equal(t, 4, p.Reaction.NumReactions)
	assert.NotContains(t, got, "Melt curve")
}

func TestSetupHeaderPluralization(t *testing.T) {
	cases := map[int]string{
		1:  "Setup 1 PCR reaction and 1 negative control:",
		2:  "Setup 2 PCR reactions and 1 negative control:",
		12: "Setup 12 PCR reactions and 1 negative control:",
	}
	for n, header := range cases {
		p := mustNew(t, WithNumReactions(n))
		steps := p.Steps()
		require.Len(t, steps, 2)
		assert.True(t, strings.HasPrefix(steps[0], header+"\n"), steps[0])
	}
}

func TestNegativeControlScaling(t *testing.T) {
	p := mustNew(t, WithNumReactions(5), WithExtraMasterMix(0.1))
	assert.Equal(t, 5, p.NumReactions())
	assert.Equal(t, 6, p.Reaction.NumReactions)

	water, _ := p.Reaction.Lookup(Water)
	got, _ := p.Reaction.Total(water).Magnitude()
	assert.InDelta(t, 19*6*1.1, got, 1e-9)

	primers, _ := p.Reaction.Lookup(PrimerMix)
	got, _ = p.Reaction.Total(primers).Magnitude()
	assert.InDelta(t, 5*6.0, got, 1e-9)

	tmpl, _ := p.Reaction.Lookup(Template)
	got, _ = p.Reaction.Total(tmpl).Magnitude()
	assert.InDelta(t, 6*1.1, got, 1e-9)

	require.NoError(t, p.SetNumReactions(1))
	assert.Equal(t, 2, p.Reaction.NumReactions)
	assert.Error(t, p.SetNumReactions(0))
}

func TestPrimerMixStep(t *testing.T) {
	p := mustNew(t, WithPrimerMix(true))
	steps := p.Steps()
	require.Len(t, steps, 3)
	assert.True(t, strings.HasPrefix(steps[0], "Prepare each 10x primer mix:\n\n"))
	assert.Contains(t, steps[0], "forward primer")
	assert.NotContains(t, steps[0], "each reaction,")

	p.MakePrimerMix = false
	assert.Len(t, p.Steps(), 2)
}

func TestPrimerMixWaterIndependentOfPolymerase(t *testing.T) {
	custom, err := LoadPresets(strings.NewReader(`
polymerases:
  phusion:
    reagent: Phusion master mix
    volume: 20
    stock: 2x
    program: q5
`))
	require.NoError(t, err)

	p := mustNew(t, WithPresets(Builtin().Merge(custom)), WithPolymerase("phusion"))
	assert.Equal(t, 24.0, volume(t, p, Water))
	assert.Equal(t, 20.0, volume(t, p, "Phusion master mix"))

	w, _ := p.PrimerMix.Lookup(Water)
	v, _ := w.Volume.Magnitude()
	assert.Equal(t, 38.0, v)
}

func TestDMSORoundTripLeavesWater(t *testing.T) {
	p := mustNew(t)
	require.NoError(t, p.SetDMSO(true))
	assert.True(t, p.DMSO())
	assert.Equal(t, 1.0, volume(t, p, DMSO))
	assert.Equal(t, 18.0, volume(t, p, Water))

	dmso, _ := p.Reaction.Lookup(DMSO)
	assert.True(t, dmso.MasterMix)
	assert.Equal(t, "100%", dmso.Stock.String())

	require.NoError(t, p.SetDMSO(false))
	assert.False(t, p.DMSO())
	// water is not given back
	assert.Equal(t, 18.0, volume(t, p, Water))

	// disabling again is a no-op
	require.NoError(t, p.SetDMSO(false))
	assert.Equal(t, 18.0, volume(t, p, Water))
}

func TestAdditivePercentages(t *testing.T) {
	p := mustNew(t, WithDMSO(5), WithBetaine(DefaultBetainePercent))
	assert.Equal(t, 2.5, volume(t, p, DMSO))
	assert.Equal(t, 1.0, volume(t, p, Betaine))
	assert.Equal(t, 15.5, volume(t, p, Water))

	sum, err := p.Reaction.PerReactionVolume()
	require.NoError(t, err)
	assert.Equal(t, "50 µL", sum.String())

	p.SetAdditivesInMasterMix(false)
	b, _ := p.Reaction.Lookup(Betaine)
	assert.False(t, b.MasterMix)
	assert.Equal(t, []string{Water, PrimerMix, Template, "Q5 master mix", DMSO, Betaine}, p.Reaction.Names())
}

func TestAdditiveNeedsNumericWater(t *testing.T) {
	p := mustNew(t)
	w, _ := p.Reaction.Lookup(Water)
	w.Volume = quantity.Symbolic("to 50 µL")
	err := p.SetDMSO(true)
	assert.True(t, errors.Is(err, quantity.ErrNotNumeric))
	assert.False(t, p.DMSO())
}

func TestMasterMixToggles(t *testing.T) {
	p := mustNew(t)
	assert.True(t, p.TemplateInMasterMix(), "template goes in the master mix by default")
	assert.False(t, p.PrimersInMasterMix())

	p = mustNew(t, WithTemplateInMasterMix(false))
	assert.False(t, p.TemplateInMasterMix())
	setup := p.Steps()[0]
	assert.Greater(t, strings.Index(setup, "template DNA"), strings.Index(setup, "master mix, 2x"),
		"template belongs to the per-reaction block")

	p.SetPrimersInMasterMix(true)
	assert.True(t, p.PrimersInMasterMix())
	p.SetTemplateInMasterMix(true)
	// every reagent in the master mix: one block, no subtotal rows
	assert.NotContains(t, p.Steps()[0], "each reaction,")
}

func TestMasterMixGettersDoNotRecreate(t *testing.T) {
	p := mustNew(t)
	p.Reaction.Remove(Template)
	p.Reaction.Remove(PrimerMix)

	assert.False(t, p.TemplateInMasterMix())
	assert.False(t, p.PrimersInMasterMix())
	p.SetTemplateInMasterMix(true)
	p.SetPrimersInMasterMix(false)
	assert.False(t, p.Reaction.Has(Template))
	assert.False(t, p.Reaction.Has(PrimerMix))
	assert.Equal(t, []string{Water, "Q5 master mix"}, p.Reaction.Names())
}

func TestSetExtraMasterMix(t *testing.T) {
	p := mustNew(t, WithExtraMasterMix(0.1))
	require.NoError(t, p.SetExtraMasterMix(0.2))
	assert.Equal(t, 0.2, p.ExtraMasterMix())

	err := p.SetExtraMasterMix(-0.1)
	assert.True(t, errors.Is(err, ErrBadValue))
	var ce *ConfigError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, 0.2, p.ExtraMasterMix(), "rejected value must not be applied")
}

func TestAnnealAndExtendSetters(t *testing.T) {
	p := mustNew(t)
	p.SetAnnealTemp(64.5)
	p.SetExtendTime(45)
	assert.Equal(t, 64.5, p.AnnealTemp())
	assert.Equal(t, 45.0, p.ExtendTime())

	thermo := p.Steps()[1]
	assert.Contains(t, thermo, "  - 64.5°C for 20s")
	assert.Contains(t, thermo, "  - 72°C for 45s")
}

func TestAliasResolution(t *testing.T) {
	p := mustNew(t, WithParam("ta", 55), WithParam("tx", 90), WithParam("NC", 25))
	v, ok := p.Program.Get(AnnealTemp)
	require.True(t, ok)
	assert.Equal(t, 55.0, v)
	assert.Equal(t, 55.0, p.AnnealTemp())

	v, _ = p.Param("annealing_temp")
	assert.Equal(t, 55.0, v)

	assert.Equal(t, 90.0, p.ExtendTime())
	assert.Contains(t, p.Steps()[1], "  - 72°C for 1m30")
}

func TestNumCyclesReadsOwnKey(t *testing.T) {
	p := mustNew(t, WithParam("nc", 25), WithParam("tx", 45))
	assert.Equal(t, 25, p.NumCycles())
	assert.Equal(t, 45.0, p.ExtendTime())

	p.SetNumCycles(30)
	assert.Equal(t, 30, p.NumCycles())
	assert.Equal(t, 45.0, p.ExtendTime())
	assert.Contains(t, p.Steps()[1], "- Repeat 30x:")
}

func TestOverrideWinsOverPreset(t *testing.T) {
	p := mustNew(t, WithParam(AnnealTemp, 58), WithParam("ta", 62))
	assert.Equal(t, 62.0, p.AnnealTemp())

	other := mustNew(t)
	assert.Equal(t, 60.0, other.AnnealTemp(), "presets must not be mutated by overrides")
}

func TestSetParam(t *testing.T) {
	p := mustNew(t)
	require.NoError(t, p.SetParam("anneal-temp", 57))
	assert.Equal(t, 57.0, p.AnnealTemp())
	assert.True(t, errors.Is(p.SetParam("bogus", 1), ErrUnknownParam))

	_, ok := p.Param("bogus")
	assert.False(t, ok)
}

func TestConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
		want error
	}{
		{"polymerase", []Option{WithPolymerase("pfu")}, ErrUnknownPolymerase},
		{"program", []Option{WithProgram("touchdown")}, ErrUnknownPreset},
		{"param", []Option{WithParam("zz", 1)}, ErrUnknownParam},
		{"reactions", []Option{WithNumReactions(0)}, ErrBadValue},
		{"extra", []Option{WithExtraMasterMix(-0.1)}, ErrBadValue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(c.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.want), err.Error())
			var ce *ConfigError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestStepsAreDerived(t *testing.T) {
	p := mustNew(t, WithNumReactions(2))
	before := p.Steps()
	p.Reaction.Get("BSA").SetVolume(0.5, quantity.Microliter)
	after := p.Steps()
	assert.NotContains(t, before[0], "BSA")
	assert.Contains(t, after[0], "BSA")
}
