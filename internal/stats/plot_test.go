package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRenderChartDrawsCurvesAndLegend(t *testing.T) {
	var buf bytes.Buffer
	err := renderChart(&buf, "Race WPM", []curve{
		{label: "WPM", points: []float64{48, 55, 61, 58, 64}},
		{label: "Accuracy", points: []float64{100, 96, 94, 95, 97}},
	}, 12, 4, false)
	if err != nil {
		t.Fatalf("render chart: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Race WPM") {
		t.Fatalf("missing title in output: %q", out)
	}
	// Endpoints survive resampling, so the range header is exact.
	if !strings.Contains(out, "WPM: 48.0 to 64.0") {
		t.Fatalf("missing WPM range line in output: %q", out)
	}
	if !strings.Contains(out, "Curves: WPM (solid)  Accuracy (dashed)") {
		t.Fatalf("missing legend in output: %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Title, two range lines, four canvas rows, legend.
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[3], gutterLabelTop+gutterSeparator) {
		t.Fatalf("expected gutter on first canvas row: %q", lines[3])
	}
	if !strings.Contains(lines[6], gutterLabelBottom+gutterSeparator) {
		t.Fatalf("expected gutter on last canvas row: %q", lines[6])
	}
}

func TestRenderChartSkipsEmptyCurves(t *testing.T) {
	var buf bytes.Buffer
	if err := renderChart(&buf, "Race WPM", []curve{{label: "WPM"}}, 12, 4, false); err != nil {
		t.Fatalf("render chart: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty curves, got %q", buf.String())
	}
}

func TestRenderChartFlatCurveStaysOnCanvas(t *testing.T) {
	var buf bytes.Buffer
	err := renderChart(&buf, "", []curve{
		{label: "WPM", points: []float64{60, 60, 60, 60}},
	}, 12, 4, false)
	if err != nil {
		t.Fatalf("render chart: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "WPM: 59.0 to 61.0") {
		t.Fatalf("expected widened range for flat curve: %q", out)
	}
}

func TestChartWidthFor(t *testing.T) {
	gutter := utf8.RuneCountInString(gutterLabelTop) + utf8.RuneCountInString(gutterSeparator)
	if got := chartWidthFor(80); got != 80-gutter {
		t.Fatalf("expected width %d for total 80, got %d", 80-gutter, got)
	}
	if got := chartWidthFor(0); got != chartWidthMin {
		t.Fatalf("expected minimum width %d, got %d", chartWidthMin, got)
	}
	if got := chartWidthFor(gutter + 3); got != chartWidthMin {
		t.Fatalf("expected minimum width for tiny totals, got %d", got)
	}
}

func TestFitPoints(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		n      int
		want   []float64
	}{
		{name: "same length copies", values: []float64{1, 2, 3}, n: 3, want: []float64{1, 2, 3}},
		{name: "shrink averages buckets", values: []float64{2, 4, 6, 8}, n: 2, want: []float64{3, 7}},
		{name: "stretch interpolates", values: []float64{0, 10}, n: 3, want: []float64{0, 5, 10}},
		{name: "single value repeats", values: []float64{7}, n: 4, want: []float64{7, 7, 7, 7}},
	}
	for _, tc := range tests {
		got := fitPoints(tc.values, tc.n)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %d points, want %d", tc.name, len(got), len(tc.want))
		}
		for i := range tc.want {
			if diff := got[i] - tc.want[i]; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("%s: point %d is %v, want %v", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestDotRowMapsRangeTopToBottom(t *testing.T) {
	if got := dotRow(100, 0, 100, 16); got != 0 {
		t.Fatalf("maximum should land on the top row, got %d", got)
	}
	if got := dotRow(0, 0, 100, 16); got != 15 {
		t.Fatalf("minimum should land on the bottom row, got %d", got)
	}
	if got := dotRow(200, 0, 100, 16); got != 0 {
		t.Fatalf("out-of-range value should clamp, got %d", got)
	}
}
