// internal/pcrcli/options.go
package pcrcli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"dirtywater-core/pcr"
)

// Options holds the flags of the `pcr` subcommand.
type Options struct {
	Polymerase     string
	Program        string
	NumReactions   int
	ExtraMasterMix float64
	PrimerMix      bool

	// Additives, in percent of a 50 µL reaction (0 = none)
	DMSO    float64
	Betaine float64

	TemplateInMasterMix bool
	PrimersInMasterMix  bool

	// Thermocycler overrides; only applied when given on the command line
	AnnealTemp float64
	ExtendTime float64
	NumCycles  int
	TwoStep    bool
	Params     []string // key=value, repeatable

	Output string // text|json
}

// Register wires the pcr flags onto fs.
func Register(fs *pflag.FlagSet, o *Options) {
	fs.StringVarP(&o.Polymerase, "polymerase", "p", "q5", "polymerase preset (list with the presets command)")
	fs.StringVar(&o.Program, "program", "", "thermocycler program (default: the polymerase's)")
	fs.IntVarP(&o.NumReactions, "num-reactions", "n", 1, "number of reactions, excluding the negative control")
	fs.Float64Var(&o.ExtraMasterMix, "extra-master-mix", 0, "master-mix overage as a fraction (0.1 = +10%)")
	fs.BoolVar(&o.PrimerMix, "primer-mix", false, "include the 10x primer mix preparation step")

	fs.Float64Var(&o.DMSO, "dmso", 0, "add DMSO at this percent; bare --dmso means 2 (use --dmso=N)")
	fs.Lookup("dmso").NoOptDefVal = strconv.FormatFloat(pcr.DefaultDMSOPercent, 'g', -1, 64)
	fs.Float64Var(&o.Betaine, "betaine", 0, "add betaine at this percent; bare --betaine means 2 (use --betaine=N)")
	fs.Lookup("betaine").NoOptDefVal = strconv.FormatFloat(pcr.DefaultBetainePercent, 'g', -1, 64)

	fs.BoolVar(&o.TemplateInMasterMix, "template-in-master-mix", true, "add template DNA to the master mix (=false to pipette it per tube)")
	fs.BoolVar(&o.PrimersInMasterMix, "primers-in-master-mix", false, "add the primer mix to the master mix")

	fs.Float64Var(&o.AnnealTemp, "ta", 0, "annealing temperature (°C)")
	fs.Float64Var(&o.ExtendTime, "tx", 0, "extension time (s)")
	fs.IntVar(&o.NumCycles, "nc", 0, "number of cycles")
	fs.BoolVar(&o.TwoStep, "two-step", false, "combine annealing and extension")
	fs.StringArrayVar(&o.Params, "param", nil, "thermocycler parameter override key=value (repeatable)")

	fs.StringVarP(&o.Output, "output", "o", "text", "output: text | json")
}

// Validate applies the pcr subcommand invariants.
func Validate(o *Options) error {
	if o.NumReactions < 1 {
		return errors.New("--num-reactions must be ≥ 1")
	}
	if o.ExtraMasterMix < 0 {
		return errors.New("--extra-master-mix must be ≥ 0")
	}
	if o.DMSO < 0 || o.Betaine < 0 {
		return errors.New("--dmso/--betaine must be ≥ 0")
	}
	switch o.Output {
	case "text", "json":
	default:
		return fmt.Errorf("invalid --output %q", o.Output)
	}
	return nil
}

// PcrOptions converts parsed flags into constructor options. Thermocycler
// shortcuts only override the preset when they were set explicitly.
func PcrOptions(fs *pflag.FlagSet, o *Options) ([]pcr.Option, error) {
	opts := []pcr.Option{
		pcr.WithPolymerase(o.Polymerase),
		pcr.WithNumReactions(o.NumReactions),
		pcr.WithExtraMasterMix(o.ExtraMasterMix),
		pcr.WithPrimerMix(o.PrimerMix),
		pcr.WithDMSO(o.DMSO),
		pcr.WithBetaine(o.Betaine),
		pcr.WithTemplateInMasterMix(o.TemplateInMasterMix),
		pcr.WithPrimersInMasterMix(o.PrimersInMasterMix),
	}
	if o.Program != "" {
		opts = append(opts, pcr.WithProgram(o.Program))
	}
	for _, kv := range o.Params {
		name, v, err := ParseParam(kv)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pcr.WithParam(name, v))
	}
	if fs.Changed("ta") {
		opts = append(opts, pcr.WithParam("ta", o.AnnealTemp))
	}
	if fs.Changed("tx") {
		opts = append(opts, pcr.WithParam("tx", o.ExtendTime))
	}
	if fs.Changed("nc") {
		opts = append(opts, pcr.WithParam("nc", float64(o.NumCycles)))
	}
	if fs.Changed("two-step") {
		opts = append(opts, pcr.WithTwoStep(o.TwoStep))
	}
	return opts, nil
}

// ParseParam splits "key=value". Values are numbers or booleans.
func ParseParam(kv string) (string, float64, error) {
	k, v, ok := strings.Cut(kv, "=")
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if !ok || k == "" || v == "" {
		return "", 0, fmt.Errorf("--param %q: want key=value", kv)
	}
	if _, err := pcr.ResolveParam(k); err != nil {
		return "", 0, fmt.Errorf("--param %q: %w", kv, err)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return k, f, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return "", 0, fmt.Errorf("--param %q: value must be a number or boolean", kv)
	}
	if b {
		return k, 1, nil
	}
	return k, 0, nil
}
