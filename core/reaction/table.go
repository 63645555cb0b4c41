// core/reaction/table.go
package reaction

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"dirtywater-core/quantity"
)

const (
	colGap    = "  "
	ruleGlyph = "─"
)

type rowKind int

const (
	rowData rowKind = iota
	rowRule
	rowBlank
)

type row struct {
	kind  rowKind
	name  string
	stock quantity.Quantity
	final quantity.Quantity
	vol   quantity.Quantity
	total quantity.Quantity
}

// Render formats the reaction as a plain-text table. Master-mix reagents come
// first, each block closed by a subtotal row, when ShowMasterMix is set and
// both blocks are non-empty.
func (x *Reaction) Render() string {
	mm, each, split := x.groups()

	var body []row
	if split {
		body = append(body, x.block(mm, "master mix")...)
		body = append(body, row{kind: rowBlank})
		body = append(body, x.block(each, "each reaction")...)
	} else {
		for r := range x.All() {
			body = append(body, x.dataRow(r))
		}
	}

	showFinal := false
	for r := range x.All() {
		if !r.Final.IsZero() {
			showFinal = true
			break
		}
	}
	volDec, totDec := 0, 0
	for _, r := range body {
		volDec = max(volDec, r.vol.Decimals())
		totDec = max(totDec, r.total.Decimals())
	}

	header := []string{"Reagent", "Stock"}
	if showFinal {
		header = append(header, "Final")
	}
	header = append(header, "Volume", "Total")

	cells := make([][]string, 0, len(body))
	for _, r := range body {
		if r.kind != rowData {
			cells = append(cells, nil)
			continue
		}
		c := []string{r.name, r.stock.String()}
		if showFinal {
			c = append(c, r.final.String())
		}
		c = append(c, r.vol.Format(volDec), r.total.Format(totDec))
		cells = append(cells, c)
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, c := range cells {
		for i, s := range c {
			widths[i] = max(widths[i], runewidth.StringWidth(s))
		}
	}
	tableWidth := len(colGap) * (len(widths) - 1)
	for _, w := range widths {
		tableWidth += w
	}
	rule := strings.Repeat(ruleGlyph, tableWidth)

	var b strings.Builder
	writeLine(&b, header, widths)
	b.WriteByte('\n')
	b.WriteString(rule)
	for i, r := range body {
		b.WriteByte('\n')
		switch r.kind {
		case rowRule:
			b.WriteString(rule)
		case rowBlank:
		default:
			writeLine(&b, cells[i], widths)
		}
	}
	return b.String()
}

func (x *Reaction) dataRow(r *Reagent) row {
	return row{
		name:  r.Name,
		stock: r.Stock,
		final: r.Final,
		vol:   r.Volume,
		total: x.Total(r),
	}
}

// block renders one group followed by a rule and a subtotal row.
func (x *Reaction) block(list []*Reagent, label string) []row {
	out := make([]row, 0, len(list)+2)
	var vol, total quantity.Quantity
	sumOK := true
	for _, r := range list {
		dr := x.dataRow(r)
		out = append(out, dr)
		if !sumOK {
			continue
		}
		var e1, e2 error
		vol, e1 = vol.Add(dr.vol)
		total, e2 = total.Add(dr.total)
		if e1 != nil || e2 != nil {
			sumOK = false
		}
	}
	if !sumOK {
		vol, total = quantity.Quantity{}, quantity.Quantity{}
	}
	out = append(out, row{kind: rowRule})
	out = append(out, row{
		name:  label + ", " + formatMultiplier(x.Multiplier(list[0])),
		vol:   vol,
		total: total,
	})
	return out
}

func formatMultiplier(m float64) string {
	return strconv.FormatFloat(quantity.Round(m), 'f', -1, 64) + "x"
}

// writeLine pads the first column on the right and the rest on the left.
func writeLine(b *strings.Builder, cells []string, widths []int) {
	var line strings.Builder
	for i, s := range cells {
		if i > 0 {
			line.WriteString(colGap)
		}
		if i == 0 {
			line.WriteString(runewidth.FillRight(s, widths[i]))
		} else {
			line.WriteString(runewidth.FillLeft(s, widths[i]))
		}
	}
	b.WriteString(strings.TrimRight(line.String(), " "))
}
