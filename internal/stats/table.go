package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one table column: its header and whether cells are
// right-aligned, which numeric columns are.
type column struct {
	title string
	right bool
}

// alignRows renders the header and rows into space-padded lines, each
// column sized to its widest cell. The last column carries no trailing
// padding.
func alignRows(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range rows {
		for i := range cols {
			if i >= len(row) {
				continue
			}
			if n := runewidth.StringWidth(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, alignRow(cols, widths, header))
	for _, row := range rows {
		lines = append(lines, alignRow(cols, widths, row))
	}
	return lines
}

func alignRow(cols []column, widths []int, row []string) string {
	var b strings.Builder
	for i, c := range cols {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		pad := widths[i] - runewidth.StringWidth(cell)
		if pad < 0 {
			pad = 0
		}
		if c.right {
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(cell)
		} else {
			b.WriteString(cell)
			if i < len(cols)-1 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
	}
	return b.String()
}
