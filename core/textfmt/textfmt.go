// Package textfmt cleans up protocol step text before it is numbered.
//
// Steps are usually written as indented Go raw strings, so Normalize strips
// the common indentation, trims surrounding blank lines and reflows plain
// prose paragraphs. Paragraphs that span several lines (tables, lists,
// thermocycler programs) are left exactly as written.
package textfmt

import (
	"strings"

	"github.com/muesli/reflow/dedent"
	"github.com/muesli/reflow/wordwrap"
)

// Width is the column limit for reflowed prose, before the step number.
const Width = 72

// Normalize reflows s to Width columns.
func Normalize(s string) string { return NormalizeWidth(s, Width) }

// NormalizeWidth is Normalize with an explicit limit; limit <= 0 disables
// wrapping.
func NormalizeWidth(s string, limit int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", "    ")
	s = trimTrailing(s)
	if !hasFlushLine(s) {
		s = dedent.String(s)
	}
	s = strings.Trim(s, "\n")

	paras := strings.Split(s, "\n\n")
	for i, p := range paras {
		if limit > 0 && !strings.Contains(p, "\n") {
			p = wordwrap.String(p, limit)
		}
		paras[i] = strings.TrimRight(trimTrailing(p), "\n")
	}
	return strings.Join(paras, "\n\n")
}

func trimTrailing(p string) string {
	lines := strings.Split(p, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

// hasFlushLine reports whether some non-blank line starts at column 0.
// dedent skips such lines when measuring the common indent, so calling it
// would strip nested indentation from the remaining lines.
func hasFlushLine(s string) bool {
	for _, l := range strings.Split(s, "\n") {
		if l != "" && l[0] != ' ' {
			return true
		}
	}
	return false
}
