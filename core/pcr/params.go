package pcr

import "strings"

// Thermocycler parameter keys. Temperatures are °C, times are seconds.
const (
	InitialDenatureTemp = "initial_denature_temp"
	InitialDenatureTime = "initial_denature_time"
	DenatureTemp        = "denature_temp"
	DenatureTime        = "denature_time"
	AnnealTemp          = "anneal_temp"
	AnnealTime          = "anneal_time"
	ExtendTemp          = "extend_temp"
	ExtendTime          = "extend_time"
	FinalExtendTemp     = "final_extend_temp"
	FinalExtendTime     = "final_extend_time"
	MeltCurveLowTemp    = "melt_curve_low_temp"
	MeltCurveHighTemp   = "melt_curve_high_temp"
	MeltCurveTempStep   = "melt_curve_temp_step"
	MeltCurveTimeStep   = "melt_curve_time_step"
	Hold                = "hold"
	NumCycles           = "num_cycles"
	TwoStep             = "two_step"
)

var knownParams = map[string]struct{}{
	InitialDenatureTemp: {}, InitialDenatureTime: {},
	DenatureTemp: {}, DenatureTime: {},
	AnnealTemp: {}, AnnealTime: {},
	ExtendTemp: {}, ExtendTime: {},
	FinalExtendTemp: {}, FinalExtendTime: {},
	MeltCurveLowTemp: {}, MeltCurveHighTemp: {},
	MeltCurveTempStep: {}, MeltCurveTimeStep: {},
	Hold: {}, NumCycles: {}, TwoStep: {},
}

// every program must define these
var requiredParams = []string{DenatureTemp, DenatureTime, AnnealTemp, AnnealTime, NumCycles}

var paramAliases = map[string]string{
	"ta":             AnnealTemp,
	"tx":             ExtendTime,
	"nc":             NumCycles,
	"annealing_temp": AnnealTemp,
	"extension_time": ExtendTime,
	"extension_temp": ExtendTemp,
}

// ResolveParam maps an alias or canonical name onto its canonical key.
// Dashes and case are ignored so flag-style names like "anneal-temp" also resolve.
func ResolveParam(name string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(name))
	k = strings.ReplaceAll(k, "-", "_")
	if c, ok := paramAliases[k]; ok {
		return c, nil
	}
	if _, ok := knownParams[k]; ok {
		return k, nil
	}
	return "", configErr("parameter", name, ErrUnknownParam)
}

// Aliases returns a copy of the alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(paramAliases))
	for k, v := range paramAliases {
		out[k] = v
	}
	return out
}
