package ui

import (
	"math"
	"strings"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/reflow/ansi"
)

func TestSparklineScalesIntoLevels(t *testing.T) {
	c := colorful.Color{R: 1}
	out := Sparkline([]float64{0, 5, 10}, 0, 10, c)

	if !strings.Contains(out, "▁") || !strings.Contains(out, "█") {
		t.Fatalf("expected lowest and highest levels, got %q", out)
	}
	if w := ansi.PrintableRuneWidth(out); w != 3 {
		t.Fatalf("expected 3 cells, got %d", w)
	}
}

func TestSparklineGapsAndClamping(t *testing.T) {
	c := colorful.Color{G: 1}
	out := Sparkline([]float64{math.NaN(), -100, 100}, 0, 1, c)

	if w := ansi.PrintableRuneWidth(out); w != 3 {
		t.Fatalf("expected 3 cells, got %d", w)
	}
	if !strings.Contains(out, " ") {
		t.Fatalf("expected blank for NaN, got %q", out)
	}
}

func TestSparklineFlatRange(t *testing.T) {
	out := Sparkline([]float64{3, 3}, 3, 3, colorful.Color{B: 1})
	if !strings.Contains(out, "▅▅") {
		t.Fatalf("expected mid level for a flat range, got %q", out)
	}
}

func TestPanelWidthIgnoresStyledTitle(t *testing.T) {
	plain := Panel("Plot", "x", 30, 0, false)
	styled := Panel(BoldStyle.Render("Plot"), "x", 30, 0, false)

	top := func(s string) int { return ansi.PrintableRuneWidth(strings.Split(s, "\n")[0]) }
	if top(plain) != top(styled) {
		t.Fatalf("expected equal border widths, got %d and %d", top(plain), top(styled))
	}
}
