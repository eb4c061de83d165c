package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/serialplot/internal/app"
	"github.com/buckleypaul/serialplot/internal/config"
	"github.com/buckleypaul/serialplot/internal/ui"
)

// LinkSettings receives port and baud changes.
type LinkSettings interface {
	SetPort(name string)
	SetBaud(rate int) error
}

type settingField struct {
	label  string
	key    string
	toggle bool
}

var settingFields = []settingField{
	{label: "Serial Port", key: "serial_port"},
	{label: "Baud Rate", key: "serial_baud_rate"},
	{label: "Full Log", key: "full_log", toggle: true},
	{label: "Append Newline", key: "append_newline", toggle: true},
	{label: "Plot Window", key: "plot_window"},
	{label: "Auto Scale Y", key: "auto_scale_y", toggle: true},
	{label: "Y Min", key: "y_min"},
	{label: "Y Max", key: "y_max"},
	{label: "Max Log Lines", key: "max_log_lines"},
}

type SettingsPage struct {
	cfg           *config.Config
	link          LinkSettings
	localRoot     string
	cursor        int
	editing       bool
	input         textinput.Model
	width, height int
	message       string
}

func NewSettingsPage(cfg *config.Config, l LinkSettings, localRoot string) *SettingsPage {
	ti := textinput.New()
	ti.CharLimit = 128
	return &SettingsPage{
		cfg:       cfg,
		link:      l,
		localRoot: localRoot,
		input:     ti,
	}
}

func (p *SettingsPage) Init() tea.Cmd { return nil }

func (p *SettingsPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.PortSelectedMsg:
		p.message = fmt.Sprintf("Serial Port set to %s", msg.Port)
		return p, nil

	case tea.KeyMsg:
		if p.editing {
			switch msg.String() {
			case "enter":
				p.applyValue(p.input.Value())
				p.editing = false
				p.input.Blur()
				return p, nil
			case "esc":
				p.editing = false
				p.input.Blur()
				return p, nil
			}
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return p, cmd
		}

		switch msg.String() {
		case "down", "j":
			if p.cursor < len(settingFields)-1 {
				p.cursor++
			}
		case "up", "k":
			if p.cursor > 0 {
				p.cursor--
			}
		case "enter", "e", " ":
			if settingFields[p.cursor].toggle {
				p.toggle()
				return p, nil
			}
			p.editing = true
			p.input.SetValue(p.getValue(p.cursor))
			return p, p.input.Focus()
		case "s":
			if err := config.Save(*p.cfg, p.localRoot, false); err != nil {
				p.message = fmt.Sprintf("Error saving: %v", err)
			} else {
				p.message = "Settings saved"
			}
			return p, app.Status(p.message)
		}
	}
	return p, nil
}

func (p *SettingsPage) View() string {
	var inner strings.Builder

	for i, f := range settingFields {
		cursor := "  "
		if i == p.cursor {
			cursor = ui.BoldStyle.Render("> ")
		}

		val := p.getValue(i)
		if val == "" {
			val = ui.DimStyle.Render("(not set)")
		}

		inner.WriteString(fmt.Sprintf("%s%-20s %s", cursor, f.label, val))
		inner.WriteString("\n")
	}

	if p.editing {
		inner.WriteString("\n")
		inner.WriteString(fmt.Sprintf("  Edit %s:\n", settingFields[p.cursor].label))
		inner.WriteString("  " + p.input.View())
		inner.WriteString("\n")
	}

	if p.message != "" {
		inner.WriteString("\n  " + p.message)
	}

	return ui.Panel("Settings", inner.String(), p.width, 0, false)
}

func (p *SettingsPage) Name() string { return "Settings" }

func (p *SettingsPage) ShortHelp() []key.Binding {
	if p.editing {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save to disk")),
	}
}

func (p *SettingsPage) InputCaptured() bool {
	return p.editing
}

func (p *SettingsPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *SettingsPage) getValue(idx int) string {
	switch settingFields[idx].key {
	case "serial_port":
		return p.cfg.SerialPort
	case "serial_baud_rate":
		return strconv.Itoa(p.cfg.SerialBaudRate)
	case "full_log":
		return onOff(p.cfg.FullLog)
	case "append_newline":
		return onOff(p.cfg.AppendNewline)
	case "plot_window":
		return strconv.Itoa(p.cfg.PlotWindow)
	case "auto_scale_y":
		return onOff(p.cfg.AutoScaleY)
	case "y_min":
		return strconv.FormatFloat(p.cfg.YMin, 'g', -1, 64)
	case "y_max":
		return strconv.FormatFloat(p.cfg.YMax, 'g', -1, 64)
	case "max_log_lines":
		return strconv.Itoa(p.cfg.MaxLogLines)
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (p *SettingsPage) toggle() {
	f := settingFields[p.cursor]
	switch f.key {
	case "full_log":
		p.cfg.FullLog = !p.cfg.FullLog
	case "append_newline":
		p.cfg.AppendNewline = !p.cfg.AppendNewline
	case "auto_scale_y":
		p.cfg.AutoScaleY = !p.cfg.AutoScaleY
	}
	p.message = fmt.Sprintf("%s %s", f.label, p.getValue(p.cursor))
}

func (p *SettingsPage) applyValue(val string) {
	f := settingFields[p.cursor]
	val = strings.TrimSpace(val)

	invalid := func() { p.message = fmt.Sprintf("Invalid %s: %q", f.label, val) }

	switch f.key {
	case "serial_port":
		p.cfg.SerialPort = val
		p.link.SetPort(val)
	case "serial_baud_rate":
		n, err := strconv.Atoi(val)
		if err != nil {
			invalid()
			return
		}
		if err := p.link.SetBaud(n); err != nil {
			p.message = fmt.Sprintf("Baud Rate not changed: %v", err)
			return
		}
		p.cfg.SerialBaudRate = n
	case "plot_window":
		n, err := strconv.Atoi(val)
		if err != nil || n < minPlotWindow || n > maxPlotWindow {
			invalid()
			return
		}
		p.cfg.PlotWindow = n
	case "y_min", "y_max":
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			invalid()
			return
		}
		if f.key == "y_min" {
			p.cfg.YMin = v
		} else {
			p.cfg.YMax = v
		}
	case "max_log_lines":
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			invalid()
			return
		}
		p.cfg.MaxLogLines = n
	}
	p.message = fmt.Sprintf("%s updated", f.label)
}
