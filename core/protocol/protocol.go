// core/protocol/protocol.go
package protocol

import (
	"iter"
	"strconv"
	"strings"

	"dirtywater-core/textfmt"
)

// Formatter cleans a step before it is stored.
type Formatter func(string) string

// Stepper is anything that produces protocol steps, e.g. a PCR.
type Stepper interface {
	Steps() []string
}

// Protocol accumulates free-text steps and renders them as a numbered list.
type Protocol struct {
	steps  []string
	format Formatter
}

type Option func(*Protocol)

// WithFormatter replaces textfmt.Normalize. A nil formatter stores steps
// unchanged.
func WithFormatter(f Formatter) Option {
	return func(p *Protocol) { p.format = f }
}

func New(opts ...Option) *Protocol {
	p := &Protocol{format: textfmt.Normalize}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Append formats and stores each step in order.
func (p *Protocol) Append(steps ...string) *Protocol {
	for _, s := range steps {
		if p.format != nil {
			s = p.format(s)
		}
		p.steps = append(p.steps, s)
	}
	return p
}

// Extend appends every step src produces.
func (p *Protocol) Extend(src Stepper) *Protocol {
	return p.Append(src.Steps()...)
}

func (p *Protocol) Len() int { return len(p.steps) }

// Steps returns a copy of the stored steps.
func (p *Protocol) Steps() []string {
	out := make([]string, len(p.steps))
	copy(out, p.steps)
	return out
}

// All yields the stored steps in append order.
func (p *Protocol) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, s := range p.steps {
			if !yield(s) {
				return
			}
		}
	}
}

// Render numbers each step ("1. ") and indents continuation lines under the
// first line's text. Steps are separated by one blank line.
func (p *Protocol) Render() string {
	out := make([]string, 0, len(p.steps))
	for i, s := range p.steps {
		num := strconv.Itoa(i+1) + ". "
		out = append(out, strings.TrimRight(hangingIndent(num, s), " \t\n"))
	}
	return strings.Join(out, "\n\n")
}

func (p *Protocol) String() string { return p.Render() }

// hangingIndent prefixes the first line with num and pads every later
// non-blank line by len(num).
func hangingIndent(num, s string) string {
	pad := strings.Repeat(" ", len(num))
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		switch {
		case i == 0:
			lines[i] = num + l
		case strings.TrimSpace(l) == "":
			lines[i] = ""
		default:
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
