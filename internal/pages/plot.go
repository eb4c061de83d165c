package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/buckleypaul/serialplot/internal/app"
	"github.com/buckleypaul/serialplot/internal/config"
	"github.com/buckleypaul/serialplot/internal/graph"
	"github.com/buckleypaul/serialplot/internal/message"
	"github.com/buckleypaul/serialplot/internal/ui"
)

const (
	publishInterval  = 500 * time.Millisecond
	minPlotWindow    = 10
	maxPlotWindow    = 100000
	seriesLabelWidth = 12
)

type publishTickMsg struct{}

// PlotPage owns the series aggregator and draws the most recent window of
// ticks as one colored row per series.
type PlotPage struct {
	agg           *graph.Aggregator
	mirror        *graph.Mirror
	cfg           *config.Config
	dirty         bool
	minGen        uint64
	width, height int
}

// NewPlotPage builds the plot page. mirror may be nil when nothing reads
// snapshots from another goroutine.
func NewPlotPage(agg *graph.Aggregator, mirror *graph.Mirror, cfg *config.Config) *PlotPage {
	return &PlotPage{agg: agg, mirror: mirror, cfg: cfg}
}

func (p *PlotPage) Init() tea.Cmd {
	if p.mirror == nil {
		return nil
	}
	p.mirror.Publish(p.agg.Snapshot())
	return schedulePublish()
}

func schedulePublish() tea.Cmd {
	return tea.Tick(publishInterval, func(time.Time) tea.Msg { return publishTickMsg{} })
}

func (p *PlotPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.MessagesMsg:
		for _, m := range msg.Messages {
			if b, ok := m.(message.Batch); ok {
				if b.Generation < p.minGen {
					continue
				}
				p.agg.Ingest(b.Samples)
				p.dirty = true
			}
		}
		return p, nil

	case app.ClearPlotMsg:
		if msg.Generation > p.minGen {
			p.minGen = msg.Generation
		}
		p.clear()
		return p, nil

	case publishTickMsg:
		p.publish()
		return p, schedulePublish()

	case tea.KeyMsg:
		switch msg.String() {
		case "x":
			p.clear()
		case "+", "=":
			p.setWindow(p.cfg.PlotWindow / 2)
		case "-":
			p.setWindow(p.cfg.PlotWindow * 2)
		case "a":
			p.cfg.AutoScaleY = !p.cfg.AutoScaleY
		}
	}
	return p, nil
}

func (p *PlotPage) clear() {
	p.agg.Clear()
	p.dirty = true
	p.publish()
}

func (p *PlotPage) publish() {
	if p.mirror == nil || !p.dirty {
		return
	}
	p.mirror.Publish(p.agg.Snapshot())
	p.dirty = false
}

func (p *PlotPage) setWindow(n int) {
	if n < minPlotWindow {
		n = minPlotWindow
	}
	if n > maxPlotWindow {
		n = maxPlotWindow
	}
	p.cfg.PlotWindow = n
}

// yRange is the manual range when one is configured, otherwise the
// extent of the visible points.
func (p *PlotPage) yRange(from, to float64) (lo, hi float64, ok bool) {
	if !p.cfg.AutoScaleY && p.cfg.YMax > p.cfg.YMin {
		return p.cfg.YMin, p.cfg.YMax, true
	}
	return graph.Range(p.agg.Series(), from, to)
}

func (p *PlotPage) View() string {
	var b strings.Builder

	scale := "auto y"
	if !p.cfg.AutoScaleY && p.cfg.YMax > p.cfg.YMin {
		scale = fmt.Sprintf("y %g..%g", p.cfg.YMin, p.cfg.YMax)
	}
	b.WriteString(ui.Title("Plot"))
	b.WriteString("  " + ui.DimStyle.Render(fmt.Sprintf("window %d ticks, %s", p.cfg.PlotWindow, scale)))
	b.WriteString("\n")

	series := p.agg.Series()
	if len(series) == 0 {
		b.WriteString(ui.DimStyle.Render("  No data yet. Lines starting with # are plotted."))
		return b.String()
	}

	innerWidth := p.width - 4
	if innerWidth < seriesLabelWidth+10 {
		innerWidth = seriesLabelWidth + 10
	}

	// Legend
	var legend strings.Builder
	for _, s := range series {
		st := s.Stats()
		line := fmt.Sprintf("%s %s  %s", ui.Swatch(s.Color), s.Name,
			ui.DimStyle.Render(fmt.Sprintf("last %.4g  min %.4g  max %.4g  mean %.4g  n=%d", st.Last, st.Min, st.Max, st.Mean, st.Count)))
		legend.WriteString(truncate.String(line, uint(innerWidth-6)))
		legend.WriteString("\n")
	}
	b.WriteString(ui.Panel("Series", strings.TrimRight(legend.String(), "\n"), innerWidth, 0, false))
	b.WriteString("\n")

	// Chart
	to := p.agg.Tick()
	from := to - float64(p.cfg.PlotWindow)
	// Panel border and padding take 6 cells.
	columns := innerWidth - 6 - seriesLabelWidth - 1

	var chart strings.Builder
	lo, hi, ok := p.yRange(from, to)
	if !ok {
		chart.WriteString(ui.DimStyle.Render("No points in the current window."))
	} else {
		rows := p.height - len(series) - 8
		if rows < 1 {
			rows = 1
		}
		for i, s := range series {
			if i == rows {
				chart.WriteString(ui.DimStyle.Render(fmt.Sprintf("+%d more", len(series)-rows)))
				chart.WriteString("\n")
				break
			}
			label := fmt.Sprintf("%-*s", seriesLabelWidth, truncate.StringWithTail(s.Name, seriesLabelWidth, "…"))
			chart.WriteString(label + " ")
			chart.WriteString(ui.Sparkline(s.Resample(from, to, columns), lo, hi, s.Color))
			chart.WriteString("\n")
		}
		chart.WriteString(ui.AxisStyle.Render(fmt.Sprintf("y %.4g..%.4g  ticks %g..%g", lo, hi, from, to)))
	}
	b.WriteString(ui.Panel("Chart", chart.String(), innerWidth, 0, true))

	return b.String()
}

func (p *PlotPage) Name() string { return "Plot" }

func (p *PlotPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("+"), key.WithHelp("+/-", "zoom")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto y")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
	}
}

func (p *PlotPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
