package pages

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/serialplot/internal/app"
	"github.com/buckleypaul/serialplot/internal/config"
	"github.com/buckleypaul/serialplot/internal/link"
	"github.com/buckleypaul/serialplot/internal/message"
	"github.com/buckleypaul/serialplot/internal/protocol"
	"github.com/buckleypaul/serialplot/internal/worker"
)

type fakeSender struct {
	sent []string
	err  error
}

func (s *fakeSender) Send(ctx context.Context, text string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, text)
	return nil
}

func newMonitor(t *testing.T) (*MonitorPage, *link.Config, *fakeSender, *config.Config) {
	t.Helper()
	cfg := config.Defaults()
	l := link.New("/dev/ttyUSB0", 9600)
	s := &fakeSender{}
	p := NewMonitorPage(l, s, &cfg)
	p.SetSize(80, 24)
	return p, l, s, &cfg
}

func lines(msgs ...message.Message) app.MessagesMsg {
	return app.MessagesMsg{Messages: msgs}
}

func TestMonitorShowsLogLinesOnly(t *testing.T) {
	p, _, _, _ := newMonitor(t)

	p.Update(lines(
		message.Line{Text: "booting", Kind: protocol.KindLog},
		message.Batch{Samples: []protocol.Sample{{Name: "t", Value: 1}}},
		message.Line{Text: "#t=1", Kind: protocol.KindPoint},
		message.Notice{Text: "Connected"},
	))

	if len(p.entries) != 1 || p.entries[0].text != "booting" {
		t.Fatalf("expected only the log line, got %+v", p.entries)
	}
}

func TestMonitorFullLogKeepsEchoes(t *testing.T) {
	p, _, _, cfg := newMonitor(t)

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if !cfg.FullLog {
		t.Fatal("expected f to turn the full log on")
	}

	p.Update(lines(
		message.Line{Text: "booting", Kind: protocol.KindLog},
		message.Line{Text: "#t=1", Kind: protocol.KindPoint},
	))
	if len(p.entries) != 2 || !p.entries[1].echo {
		t.Fatalf("expected echo line to be kept, got %+v", p.entries)
	}
	if !strings.Contains(p.View(), "#t=1") {
		t.Fatal("expected echo line in view")
	}
}

func TestMonitorCapsLogLines(t *testing.T) {
	p, _, _, cfg := newMonitor(t)
	cfg.MaxLogLines = 3

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		p.Update(lines(message.Line{Text: text, Kind: protocol.KindLog}))
	}
	if len(p.entries) != 3 || p.entries[0].text != "c" {
		t.Fatalf("expected the last 3 lines, got %+v", p.entries)
	}
}

func TestMonitorConnectActivatesAndClearsPlot(t *testing.T) {
	p, l, _, _ := newMonitor(t)

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if l.State() != link.Reconfiguring {
		t.Fatalf("expected Reconfiguring, got %s", l.State())
	}
	if cmd == nil {
		t.Fatal("expected follow-up commands")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected a batch of commands")
	}
	found := false
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(app.ClearPlotMsg); ok {
			found = true
			if msg.Generation != l.Snapshot().Generation {
				t.Fatalf("expected clear for generation %d, got %d", l.Snapshot().Generation, msg.Generation)
			}
		}
	}
	if !found {
		t.Fatal("expected ClearPlotMsg")
	}
}

func TestMonitorDisconnectStops(t *testing.T) {
	p, l, _, _ := newMonitor(t)
	l.Activate()

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if l.State() != link.Stopped {
		t.Fatalf("expected Stopped, got %s", l.State())
	}
}

func TestMonitorClearLog(t *testing.T) {
	p, _, _, _ := newMonitor(t)
	p.Update(lines(message.Line{Text: "x", Kind: protocol.KindLog}))

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if len(p.entries) != 0 {
		t.Fatalf("expected log to be cleared, got %d entries", len(p.entries))
	}
}

func typeText(p *MonitorPage, text string) {
	for _, r := range text {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestMonitorSendClearsInputOnSuccess(t *testing.T) {
	p, _, s, _ := newMonitor(t)

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	if !p.InputCaptured() {
		t.Fatal("expected input to capture keys")
	}
	typeText(p, "led on")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	p.Update(cmd())

	if len(s.sent) != 1 || s.sent[0] != "led on" {
		t.Fatalf("unexpected sent text: %v", s.sent)
	}
	if p.input.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", p.input.Value())
	}
}

func TestMonitorSendAppendsNewline(t *testing.T) {
	p, _, s, cfg := newMonitor(t)
	cfg.AppendNewline = true

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	typeText(p, "go")
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p.Update(cmd())

	if len(s.sent) != 1 || s.sent[0] != "go\n" {
		t.Fatalf("unexpected sent text: %q", s.sent)
	}
}

func TestMonitorSendNotConnectedKeepsInput(t *testing.T) {
	p, _, s, _ := newMonitor(t)
	s.err = worker.ErrNotActive

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	typeText(p, "ping")
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, status := p.Update(cmd())

	if p.input.Value() != "ping" {
		t.Fatalf("expected input to be kept, got %q", p.input.Value())
	}
	msg, ok := status().(app.StatusMsg)
	if !ok || !strings.Contains(msg.Text, "Not connected") {
		t.Fatalf("unexpected status: %+v", msg)
	}
}

func TestMonitorSendFailureReportsError(t *testing.T) {
	p, _, s, _ := newMonitor(t)
	s.err = errors.New("write failed: broken pipe")

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	typeText(p, "ping")
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, status := p.Update(cmd())

	msg := status().(app.StatusMsg)
	if !strings.Contains(msg.Text, "Send failed: write failed: broken pipe") {
		t.Fatalf("unexpected status: %q", msg.Text)
	}
}

func TestMonitorEmptySendIsNoop(t *testing.T) {
	p, _, _, _ := newMonitor(t)

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no command for empty input")
	}
}

func TestMonitorEmptySendWithNewlineIsNoop(t *testing.T) {
	p, _, s, cfg := newMonitor(t)
	cfg.AppendNewline = true

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no command for empty input")
	}
	if len(s.sent) != 0 {
		t.Fatalf("expected nothing sent, got %q", s.sent)
	}
}

func TestMonitorEscReleasesInput(t *testing.T) {
	p, _, _, _ := newMonitor(t)

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.InputCaptured() {
		t.Fatal("expected esc to release input")
	}
}
