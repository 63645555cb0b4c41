// core/quantity/quantity.go
package quantity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Micro is the micro sign used in every rendered unit ("µL", "µM").
const Micro = "µ"

// Common units.
const (
	Microliter = Micro + "L"
	Micromolar = Micro + "M"
)

var (
	ErrNotNumeric   = errors.New("quantity is symbolic")
	ErrUnitMismatch = errors.New("unit mismatch")
)

// Quantity is an immutable (magnitude, unit) pair, or a symbolic label such
// as "2x" or "100%" that is displayed but never combined arithmetically.
// The zero value is an absent quantity.
type Quantity struct {
	mag      float64
	unit     string
	label    string
	symbolic bool
	set      bool
}

// New returns a numeric quantity.
func New(magnitude float64, unit string) Quantity {
	return Quantity{mag: magnitude, unit: normalizeUnit(unit), set: true}
}

// Symbolic returns a display-only quantity.
func Symbolic(label string) Quantity {
	return Quantity{label: strings.TrimSpace(label), symbolic: true, set: true}
}

// Parse reads "19 µL", "100pg/uL", "2x" or "100%". Text with no numeric
// prefix, or with no unit after the number, becomes symbolic.
func Parse(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, errors.New("empty quantity")
	}
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	num := s[:end]
	unit := strings.TrimSpace(s[end:])
	if num == "" || unit == "" || isFoldLabel(unit) {
		return Symbolic(s), nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("bad quantity %q: %w", s, err)
	}
	return New(f, unit), nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Quantity {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

// "x" and "%" describe a fold or fraction of stock, not a unit.
func isFoldLabel(u string) bool {
	switch strings.ToLower(u) {
	case "x", "%", "×":
		return true
	}
	return false
}

// normalizeUnit maps ASCII "u" and the Greek mu onto the micro sign.
func normalizeUnit(u string) string {
	u = strings.TrimSpace(u)
	u = strings.ReplaceAll(u, "μ", Micro)
	if strings.HasPrefix(u, "u") && len(u) > 1 && unicode.IsUpper(rune(u[1])) {
		u = Micro + u[1:]
	}
	u = strings.ReplaceAll(u, "/u", "/"+Micro)
	return u
}

func (q Quantity) IsZero() bool     { return !q.set }
func (q Quantity) IsSymbolic() bool { return q.symbolic }
func (q Quantity) Unit() string     { return q.unit }

// Magnitude returns the numeric value; ok is false for symbolic or absent
// quantities.
func (q Quantity) Magnitude() (float64, bool) {
	if !q.set || q.symbolic {
		return 0, false
	}
	return q.mag, true
}

// Scale multiplies the magnitude by factor.
func (q Quantity) Scale(factor float64) (Quantity, error) {
	if q.symbolic {
		return Quantity{}, fmt.Errorf("scale %q: %w", q.label, ErrNotNumeric)
	}
	if !q.set {
		return q, nil
	}
	return Quantity{mag: q.mag * factor, unit: q.unit, set: true}, nil
}

// Add returns q+other. An absent operand acts as zero in q's unit.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	return q.combine(other, 1)
}

// Sub returns q-other. An absent operand acts as zero in q's unit.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	return q.combine(other, -1)
}

// MustSub is Sub for callers that have already checked units.
func (q Quantity) MustSub(other Quantity) Quantity {
	out, err := q.Sub(other)
	if err != nil {
		panic(err)
	}
	return out
}

func (q Quantity) combine(other Quantity, sign float64) (Quantity, error) {
	if q.symbolic || other.symbolic {
		return Quantity{}, fmt.Errorf("%s and %s: %w", q, other, ErrNotNumeric)
	}
	switch {
	case !other.set:
		return q, nil
	case !q.set:
		return Quantity{mag: sign * other.mag, unit: other.unit, set: true}, nil
	case q.unit != other.unit:
		return Quantity{}, fmt.Errorf("%q vs %q: %w", q.unit, other.unit, ErrUnitMismatch)
	}
	return Quantity{mag: q.mag + sign*other.mag, unit: q.unit, set: true}, nil
}

// Decimals reports how many decimals (0..2) the rounded magnitude needs.
func (q Quantity) Decimals() int {
	if !q.set || q.symbolic {
		return 0
	}
	r := Round(q.mag)
	for d := 0; d < 2; d++ {
		p := math.Pow(10, float64(d))
		if math.Abs(r*p-math.Round(r*p)) < 1e-9 {
			return d
		}
	}
	return 2
}

// Format renders numeric quantities with a fixed number of decimals.
func (q Quantity) Format(decimals int) string {
	switch {
	case !q.set:
		return ""
	case q.symbolic:
		return q.label
	}
	v := strconv.FormatFloat(Round(q.mag), 'f', decimals, 64)
	if q.unit == "" {
		return v
	}
	return v + " " + q.unit
}

func (q Quantity) String() string {
	return q.Format(q.Decimals())
}

// Round keeps two decimals, enough for any pipette.
func Round(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
