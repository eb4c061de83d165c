package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Swatch renders a two-cell block in c.
func Swatch(c colorful.Color) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("██")
}

// Sparkline renders one cell per value scaled into [lo, hi]. NaN values
// render as blanks and values outside the range are clamped.
func Sparkline(values []float64, lo, hi float64, c colorful.Color) string {
	var b strings.Builder
	span := hi - lo
	for _, v := range values {
		if math.IsNaN(v) {
			b.WriteRune(' ')
			continue
		}
		level := len(sparkLevels) / 2
		if span > 0 {
			level = int((v - lo) / span * float64(len(sparkLevels)-1))
		}
		if level < 0 {
			level = 0
		}
		if level >= len(sparkLevels) {
			level = len(sparkLevels) - 1
		}
		b.WriteRune(sparkLevels[level])
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(b.String())
}
