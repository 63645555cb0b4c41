package pcr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycleSubSteps(render string) []string {
	var out []string
	for _, l := range strings.Split(render, "\n") {
		if strings.HasPrefix(l, "  - ") {
			out = append(out, l)
		}
	}
	return out
}

func TestFormatTime(t *testing.T) {
	cases := map[float64]string{
		0:   "0s",
		10:  "10s",
		59:  "59s",
		60:  "1m",
		90:  "1m30",
		125: "2m05",
		300: "5m",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatTime(in), "%gs", in)
	}
}

func TestFormatTemp(t *testing.T) {
	assert.Equal(t, "98°C", FormatTemp(98))
	assert.Equal(t, "0.5°C", FormatTemp(0.5))
}

func TestThreeStepCycle(t *testing.T) {
	prog, ok := Builtin().Program("q5")
	require.True(t, ok)
	assert.True(t, prog.ThreeStep())
	assert.Equal(t, []string{
		"  - 98°C for 10s",
		"  - 60°C for 20s",
		"  - 72°C for 2m",
	}, cycleSubSteps(prog.Render()))

	prog.Set(TwoStep, 1)
	assert.Len(t, cycleSubSteps(prog.Render()), 2)
}

func TestTwoStepWithoutExtendKeys(t *testing.T) {
	prog := newProgram(map[string]float64{
		DenatureTemp: 95, DenatureTime: 5,
		AnnealTemp: 60, AnnealTime: 30,
		NumCycles: 40,
	})
	assert.False(t, prog.ThreeStep())
	assert.Equal(t, "- Repeat 40x:\n  - 95°C for 5s\n  - 60°C for 30s", prog.Render())

	// one extend key alone is not enough
	prog.Set(ExtendTemp, 72)
	assert.Len(t, cycleSubSteps(prog.Render()), 2)
}

func TestSsoAdvancedProgram(t *testing.T) {
	prog, ok := Builtin().Program("ssoadv")
	require.True(t, ok)
	want := strings.Join([]string{
		"- 95°C for 30s",
		"- Repeat 40x:",
		"  - 95°C for 10s",
		"  - 60°C for 30s",
		"- Melt curve: 65-95°C in 0.5°C steps, 5s per step",
	}, "\n")
	assert.Equal(t, want, prog.Render())
}

func TestMeltCurveNeedsAllFourKeys(t *testing.T) {
	keys := []string{MeltCurveLowTemp, MeltCurveHighTemp, MeltCurveTempStep, MeltCurveTimeStep}
	for _, missing := range keys {
		prog, _ := Builtin().Program("ssoadv")
		prog.Delete(missing)
		assert.NotContains(t, prog.Render(), "Melt curve", missing)
	}
}

func TestOptionalSections(t *testing.T) {
	prog, _ := Builtin().Program("q5")
	prog.Delete(InitialDenatureTemp)
	prog.Delete(FinalExtendTime)
	prog.Delete(Hold)
	assert.Equal(t, "- Repeat 35x:\n  - 98°C for 10s\n  - 60°C for 20s\n  - 72°C for 2m", prog.Render())
}

func TestBuiltinPresetsImmutable(t *testing.T) {
	prog, _ := Builtin().Program("q5")
	prog.Set(AnnealTemp, 40)

	again, _ := Builtin().Program("q5")
	v, _ := again.Get(AnnealTemp)
	assert.Equal(t, 60.0, v)
}

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{"q5", "ssoadv", "taq"}, Builtin().PolymeraseNames())
	assert.Equal(t, []string{"q5", "ssoadv", "taq"}, Builtin().ProgramNames())
}

func TestLoadPresetsRejectsUnknownFields(t *testing.T) {
	_, err := LoadPresets(strings.NewReader("polymerases:\n  x:\n    reagent: X\n    volume: 10\n    colour: red\n"))
	assert.Error(t, err)

	_, err = LoadPresets(strings.NewReader("programs:\n  x:\n    denature_temp: 95\n    spin: 3\n"))
	assert.True(t, errors.Is(err, ErrUnknownParam))
}

func TestLoadPresetsRequiresCycleKeys(t *testing.T) {
	_, err := LoadPresets(strings.NewReader("programs:\n  x:\n    denature_temp: 95\n"))
	assert.True(t, errors.Is(err, ErrBadValue))
}

func TestLoadPresetsAliasesAndMerge(t *testing.T) {
	custom, err := LoadPresets(strings.NewReader(`
programs:
  q5:
    denature_temp: 98
    denature_time: 10
    ta: 64
    anneal_time: 20
    nc: 30
    two_step: true
`))
	require.NoError(t, err)

	merged := Builtin().Merge(custom)
	prog, ok := merged.Program("q5")
	require.True(t, ok)
	v, _ := prog.Get(AnnealTemp)
	assert.Equal(t, 64.0, v)
	assert.True(t, prog.Flag(TwoStep))
	assert.False(t, prog.Has(Hold))

	// built-in table untouched
	orig, _ := Builtin().Program("q5")
	assert.True(t, orig.Has(Hold))
}

func TestLoadPresetsEmpty(t *testing.T) {
	p, err := LoadPresets(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, p.PolymeraseNames())
}
