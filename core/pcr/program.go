package pcr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Program is a thermocycler parameter set keyed by canonical names. Boolean
// parameters (two_step) are stored as 0 or 1.
type Program struct {
	params map[string]float64
}

func newProgram(params map[string]float64) Program {
	p := Program{params: make(map[string]float64, len(params))}
	for k, v := range params {
		p.params[k] = v
	}
	return p
}

// Clone returns an independent copy.
func (p Program) Clone() Program { return newProgram(p.params) }

func (p Program) Get(key string) (float64, bool) {
	v, ok := p.params[key]
	return v, ok
}

func (p Program) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := p.params[k]; !ok {
			return false
		}
	}
	return true
}

// Flag reads a boolean parameter; missing means false.
func (p Program) Flag(key string) bool { return p.params[key] != 0 }

// Set stores v under key, which must be canonical.
func (p *Program) Set(key string, v float64) {
	if p.params == nil {
		p.params = make(map[string]float64)
	}
	p.params[key] = v
}

func (p *Program) Delete(key string) { delete(p.params, key) }

// Keys returns the defined parameter names, sorted.
func (p Program) Keys() []string {
	out := make([]string, 0, len(p.params))
	for k := range p.params {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ThreeStep reports whether each cycle has its own extension phase.
func (p Program) ThreeStep() bool {
	return !p.Flag(TwoStep) && p.Has(ExtendTemp, ExtendTime)
}

// Render lists the program as nested bullet lines.
func (p Program) Render() string {
	var lines []string
	step := func(indent, tempKey, timeKey string) {
		lines = append(lines, fmt.Sprintf("%s- %s for %s", indent,
			FormatTemp(p.params[tempKey]), FormatTime(p.params[timeKey])))
	}

	if p.Has(InitialDenatureTemp, InitialDenatureTime) {
		step("", InitialDenatureTemp, InitialDenatureTime)
	}

	lines = append(lines, fmt.Sprintf("- Repeat %dx:", int(math.Round(p.params[NumCycles]))))
	step("  ", DenatureTemp, DenatureTime)
	step("  ", AnnealTemp, AnnealTime)
	if p.ThreeStep() {
		step("  ", ExtendTemp, ExtendTime)
	}

	if p.Has(FinalExtendTemp, FinalExtendTime) {
		step("", FinalExtendTemp, FinalExtendTime)
	}
	if p.Has(MeltCurveLowTemp, MeltCurveHighTemp, MeltCurveTempStep, MeltCurveTimeStep) {
		lines = append(lines, fmt.Sprintf("- Melt curve: %s-%s in %s steps, %s per step",
			formatNumber(p.params[MeltCurveLowTemp]),
			FormatTemp(p.params[MeltCurveHighTemp]),
			FormatTemp(p.params[MeltCurveTempStep]),
			FormatTime(p.params[MeltCurveTimeStep])))
	}
	if v, ok := p.params[Hold]; ok {
		lines = append(lines, fmt.Sprintf("- %s hold", FormatTemp(v)))
	}
	return strings.Join(lines, "\n")
}

// FormatTemp renders 98 as "98°C".
func FormatTemp(c float64) string { return formatNumber(c) + "°C" }

// FormatTime renders seconds as "30s", "2m" or "1m30".
func FormatTime(sec float64) string {
	s := int(math.Round(sec))
	switch {
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s%60 == 0:
		return fmt.Sprintf("%dm", s/60)
	default:
		return fmt.Sprintf("%dm%02d", s/60, s%60)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
