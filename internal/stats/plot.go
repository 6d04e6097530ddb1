package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Braille line charts for speed and accuracy curves. Every curve is
// normalized to its own value range so words-per-minute and percentage
// curves can share one canvas; the ranges are printed above it.

const (
	chartHeightDefault = 10
	chartWidthMin      = 10
	chartWidthFallback = 80

	gutterLabelTop    = "high"
	gutterLabelBottom = "low"
	gutterSeparator   = " ┤ "

	ansiReset = "\x1b[0m"
)

// curve is one plotted line: a label for the range header and legend,
// and the raw sample values in session order.
type curve struct {
	label  string
	points []float64
}

// strokePattern switches dots on and off along the x axis so curves
// stay tellable apart on monochrome terminals.
type strokePattern struct {
	name  string
	cycle []bool
}

var strokes = []strokePattern{
	{name: "solid", cycle: []bool{true}},
	{name: "dashed", cycle: []bool{true, true, true, true, false, false}},
	{name: "dotted", cycle: []bool{true, false, false}},
	{name: "dash-dot", cycle: []bool{true, true, true, false, true, false}},
}

func (p strokePattern) at(x int) bool {
	if x < 0 {
		x = -x
	}
	return p.cycle[x%len(p.cycle)]
}

var strokeColors = []string{
	"\x1b[36m", // cyan
	"\x1b[33m", // yellow
	"\x1b[35m", // magenta
	"\x1b[32m", // green
}

// brailleCanvas plots dots on the 2x4 sub-cell grid each braille rune
// offers, giving twice the horizontal and four times the vertical
// resolution of the character cells it renders into.
type brailleCanvas struct {
	cols, rows int
	cells      []uint8
}

func newBrailleCanvas(cols, rows int) *brailleCanvas {
	return &brailleCanvas{cols: cols, rows: rows, cells: make([]uint8, cols*rows)}
}

// brailleDots maps a sub-cell position to its bit in the braille block
// (U+2800 plus the mask).
var brailleDots = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func (c *brailleCanvas) dot(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.cols || row >= c.rows {
		return
	}
	c.cells[row*c.cols+col] |= brailleDots[y%4][x%2]
}

func (c *brailleCanvas) at(col, row int) uint8 {
	return c.cells[row*c.cols+col]
}

// renderChart draws the curves as a braille plot with a range header,
// a left gutter, and a legend. Curves without points are skipped; a
// chart with no drawable curves produces no output. A non-positive
// width falls back to the terminal width, a non-positive height to the
// default. Color is applied when forced or when w is a terminal, and
// never when NO_COLOR is set.
func renderChart(w io.Writer, title string, curves []curve, width, height int, forceColor bool) error {
	drawn := make([]curve, 0, len(curves))
	for _, c := range curves {
		if len(c.points) > 0 {
			drawn = append(drawn, c)
		}
	}
	if len(drawn) == 0 {
		return nil
	}
	if height <= 0 {
		height = chartHeightDefault
	}
	if width <= 0 {
		width = chartWidthFor(detectWidth())
	}
	if width < chartWidthMin {
		width = chartWidthMin
	}

	type fitted struct {
		label  string
		lo, hi float64
	}
	canvases := make([]*brailleCanvas, len(drawn))
	ranges := make([]fitted, len(drawn))
	for i, c := range drawn {
		points := fitPoints(c.points, width)
		lo, hi := pointsRange(points)
		if hi-lo < 1e-9 {
			// A flat curve still needs a non-degenerate range to land
			// mid-canvas.
			lo, hi = lo-1, hi+1
		}
		ranges[i] = fitted{label: c.label, lo: lo, hi: hi}
		canvases[i] = newBrailleCanvas(width, height)
		plotCurve(canvases[i], points, lo, hi, strokes[i%len(strokes)])
	}

	color := colorEnabled(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, r := range ranges {
		if _, err := fmt.Fprintf(w, "%s: %.1f to %.1f\n", r.label, r.lo, r.hi); err != nil {
			return err
		}
	}

	gutterWidth := utf8.RuneCountInString(gutterLabelTop)
	for row := 0; row < height; row++ {
		label := ""
		switch row {
		case 0:
			label = gutterLabelTop
		case height - 1:
			label = gutterLabelBottom
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%*s%s", gutterWidth, label, gutterSeparator)
		for col := 0; col < width; col++ {
			var mask uint8
			owner := -1
			for i, canvas := range canvases {
				m := canvas.at(col, row)
				if m == 0 {
					continue
				}
				if owner < 0 {
					owner = i
				}
				mask |= m
			}
			ch := rune(0x2800 + int(mask))
			if color && owner >= 0 {
				b.WriteString(strokeColors[owner%len(strokeColors)])
				b.WriteRune(ch)
				b.WriteString(ansiReset)
			} else {
				b.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}

	parts := make([]string, 0, len(ranges))
	for i, r := range ranges {
		part := fmt.Sprintf("%s (%s)", r.label, strokes[i%len(strokes)].name)
		if color {
			part = strokeColors[i%len(strokeColors)] + part + ansiReset
		}
		parts = append(parts, part)
	}
	if _, err := fmt.Fprintln(w, "Curves: "+strings.Join(parts, "  ")); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// chartWidthFor returns the canvas width that leaves room for the left
// gutter inside totalWidth, never below the minimum.
func chartWidthFor(totalWidth int) int {
	gutter := utf8.RuneCountInString(gutterLabelTop) + utf8.RuneCountInString(gutterSeparator)
	width := totalWidth - gutter
	if width < chartWidthMin {
		return chartWidthMin
	}
	return width
}

// plotCurve rasterizes one curve onto its canvas, connecting adjacent
// samples and masking dots through the stroke pattern.
func plotCurve(canvas *brailleCanvas, points []float64, lo, hi float64, stroke strokePattern) {
	prevX, prevY := -1, -1
	for i, v := range points {
		x := i * 2
		y := dotRow(v, lo, hi, canvas.rows*4)
		if prevX < 0 {
			if stroke.at(x) {
				canvas.dot(x, y)
			}
		} else {
			lineDots(prevX, prevY, x, y, func(dx, dy int) {
				if stroke.at(dx) {
					canvas.dot(dx, dy)
				}
			})
		}
		prevX, prevY = x, y
	}
}

// fitPoints resamples values onto exactly n columns: bucket averages
// when shrinking, linear interpolation when stretching.
func fitPoints(values []float64, n int) []float64 {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	if len(values) == n {
		return append([]float64(nil), values...)
	}
	out := make([]float64, n)
	if len(values) > n {
		for col := range out {
			from := col * len(values) / n
			to := (col + 1) * len(values) / n
			if to == from {
				to = from + 1
			}
			sum := 0.0
			for _, v := range values[from:to] {
				sum += v
			}
			out[col] = sum / float64(to-from)
		}
		return out
	}
	if len(values) == 1 || n == 1 {
		for col := range out {
			out[col] = values[0]
		}
		return out
	}
	step := float64(len(values)-1) / float64(n-1)
	for col := range out {
		pos := float64(col) * step
		i := int(pos)
		if i >= len(values)-1 {
			out[col] = values[len(values)-1]
			continue
		}
		frac := pos - float64(i)
		out[col] = values[i]*(1-frac) + values[i+1]*frac
	}
	return out
}

func pointsRange(points []float64) (lo, hi float64) {
	lo, hi = points[0], points[0]
	for _, v := range points[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// dotRow maps a value to a dot row, row zero being the top.
func dotRow(v, lo, hi float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	frac := (v - lo) / (hi - lo)
	row := int(math.Round((1 - frac) * float64(rows-1)))
	if row < 0 {
		return 0
	}
	if row >= rows {
		return rows - 1
	}
	return row
}

// lineDots visits every dot of the segment, Bresenham style.
func lineDots(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			if x0 == x1 {
				return
			}
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				return
			}
			errAcc += dx
			y0 += sy
		}
	}
}

func intAbs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func detectWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return chartWidthFallback
	}
	return w
}

func colorEnabled(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
