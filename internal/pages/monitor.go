package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"

	"github.com/buckleypaul/serialplot/internal/app"
	"github.com/buckleypaul/serialplot/internal/config"
	"github.com/buckleypaul/serialplot/internal/link"
	"github.com/buckleypaul/serialplot/internal/message"
	"github.com/buckleypaul/serialplot/internal/protocol"
	"github.com/buckleypaul/serialplot/internal/ui"
	"github.com/buckleypaul/serialplot/internal/worker"
)

// LinkControl starts and stops reading.
type LinkControl interface {
	Activate() uint64
	Stop()
	State() link.State
}

// Sender writes text to the open port.
type Sender interface {
	Send(ctx context.Context, text string) error
}

type logEntry struct {
	text string
	echo bool
}

type sendResultMsg struct {
	text string
	err  error
}

type MonitorPage struct {
	link          LinkControl
	sender        Sender
	cfg           *config.Config
	entries       []logEntry
	viewport      viewport.Model
	input         textinput.Model
	sending       bool
	width, height int
}

func NewMonitorPage(l LinkControl, s Sender, cfg *config.Config) *MonitorPage {
	ti := textinput.New()
	ti.Placeholder = "text to send"
	ti.Prompt = "send> "
	ti.CharLimit = 1024

	return &MonitorPage{
		link:     l,
		sender:   s,
		cfg:      cfg,
		viewport: viewport.New(0, 0),
		input:    ti,
	}
}

func (p *MonitorPage) Init() tea.Cmd { return nil }

func (p *MonitorPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.MessagesMsg:
		p.appendLines(msg.Messages)
		return p, nil

	case sendResultMsg:
		p.sending = false
		switch {
		case msg.err == nil:
			if p.input.Value() == msg.text {
				p.input.Reset()
			}
			return p, nil
		case errors.Is(msg.err, worker.ErrNotActive):
			return p, app.Status("Not connected, nothing sent")
		default:
			return p, app.Status(fmt.Sprintf("Send failed: %v", msg.err))
		}

	case tea.KeyMsg:
		if p.input.Focused() {
			switch msg.String() {
			case "enter":
				return p, p.send(p.input.Value())
			case "esc":
				p.input.Blur()
				return p, nil
			}
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return p, cmd
		}

		switch msg.String() {
		case "c":
			gen := p.link.Activate()
			return p, tea.Batch(
				func() tea.Msg { return app.ClearPlotMsg{Generation: gen} },
				app.Status("Connecting..."),
			)
		case "d":
			p.link.Stop()
			return p, nil
		case "f":
			p.cfg.FullLog = !p.cfg.FullLog
			if p.cfg.FullLog {
				return p, app.Status("Full log on")
			}
			return p, app.Status("Full log off")
		case "x":
			p.entries = nil
			p.refresh(false)
			return p, nil
		case "i", "/":
			return p, p.input.Focus()
		case "G", "end":
			p.viewport.GotoBottom()
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// appendLines adds worker output to the log. Echoes of data lines are
// kept only while the full log is on.
func (p *MonitorPage) appendLines(msgs []message.Message) {
	added := false
	for _, m := range msgs {
		line, ok := m.(message.Line)
		if !ok {
			continue
		}
		echo := line.Kind == protocol.KindPoint
		if echo && !p.cfg.FullLog {
			continue
		}
		p.entries = append(p.entries, logEntry{text: line.Text, echo: echo})
		added = true
	}
	if !added {
		return
	}
	if limit := p.cfg.MaxLogLines; limit > 0 && len(p.entries) > limit {
		p.entries = append([]logEntry(nil), p.entries[len(p.entries)-limit:]...)
	}
	p.refresh(p.viewport.AtBottom())
}

func (p *MonitorPage) send(text string) tea.Cmd {
	if text == "" || p.sending || p.sender == nil {
		return nil
	}
	payload := text
	if p.cfg.AppendNewline {
		payload += "\n"
	}
	p.sending = true

	sender, timeout := p.sender, p.cfg.SendTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sendResultMsg{text: text, err: sender.Send(ctx, payload)}
	}
}

func (p *MonitorPage) refresh(follow bool) {
	width := p.viewport.Width
	var b strings.Builder
	for i, e := range p.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		text := e.text
		if width > 0 {
			text = wrap.String(text, width)
		}
		if e.echo {
			text = ui.EchoStyle.Render(text)
		}
		b.WriteString(text)
	}

	content := b.String()
	if width > 0 {
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			if ansi.PrintableRuneWidth(line) > width {
				lines[i] = truncate.String(line, uint(width))
			}
		}
		content = strings.Join(lines, "\n")
	}
	p.viewport.SetContent(content)
	if follow {
		p.viewport.GotoBottom()
	}
}

func (p *MonitorPage) View() string {
	var b strings.Builder

	header := ui.Title("Monitor")
	mode := "log only"
	if p.cfg.FullLog {
		mode = "full log"
	}
	header += "  " + ui.DimStyle.Render(fmt.Sprintf("%s, %d lines", mode, len(p.entries)))
	b.WriteString(header)
	b.WriteString("\n")

	style := lipgloss.NewStyle().
		Width(p.viewport.Width).
		Height(p.viewport.Height).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ui.Surface).
		PaddingLeft(1)

	if len(p.entries) == 0 {
		hint := "Nothing received yet. Press c to connect."
		if p.link.State() == link.Active {
			hint = "Connected, waiting for output..."
		}
		b.WriteString(style.Render(ui.DimStyle.Render(hint)))
	} else {
		b.WriteString(style.Render(p.viewport.View()))
	}
	b.WriteString("\n")
	b.WriteString(p.input.View())

	return b.String()
}

func (p *MonitorPage) Name() string { return "Monitor" }

func (p *MonitorPage) ShortHelp() []key.Binding {
	if p.input.Focused() {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
		}
	}
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
		key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "send")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "full log")),
	}
	if len(p.entries) > 0 {
		bindings = append(bindings, key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")))
	}
	return bindings
}

func (p *MonitorPage) InputCaptured() bool {
	return p.input.Focused()
}

func (p *MonitorPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	// title, input line, border
	vpHeight := h - 2 - 2 - 2
	if vpHeight < 3 {
		vpHeight = 3
	}
	vpWidth := w - 4 - 3
	if vpWidth < 10 {
		vpWidth = 10
	}
	oldWidth := p.viewport.Width
	p.viewport.Width = vpWidth
	p.viewport.Height = vpHeight
	p.input.Width = vpWidth - 6
	if oldWidth != vpWidth && len(p.entries) > 0 {
		p.refresh(p.viewport.AtBottom())
	}
}
