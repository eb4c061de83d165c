package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/buckleypaul/serialplot/internal/serial"
	"github.com/buckleypaul/serialplot/internal/ui"
)

// PickerItem represents a selectable item in the picker.
type PickerItem struct {
	Label string // Display text (port name)
	Value string // Selection value
	Desc  string // Optional secondary text (device description)
}

// PickerSelectedMsg is sent when the user selects an item.
type PickerSelectedMsg struct {
	Value string
}

// PickerClosedMsg is sent when the user closes the picker without selecting.
type PickerClosedMsg struct{}

// PortsLoadedMsg delivers the port list for the picker.
type PortsLoadedMsg struct {
	Ports  []serial.PortInfo
	Recent []string
	Err    error
}

// Picker is a filtered-list overlay component.
type Picker struct {
	title    string
	items    []PickerItem
	filtered []PickerItem
	input    textinput.Model
	cursor   int
	loading  bool
	width    int
	height   int
}

const maxPickerItems = 12

// NewPicker creates a new picker overlay.
func NewPicker(title string) *Picker {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 128

	return &Picker{
		title:   title,
		input:   ti,
		loading: true,
	}
}

// SetItems populates the picker with items.
func (p *Picker) SetItems(items []PickerItem) {
	p.items = items
	p.loading = false
	p.filter()
}

// SetSize sets the available dimensions.
func (p *Picker) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// Update handles input for the picker.
func (p *Picker) Update(msg tea.Msg) (*Picker, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return p, func() tea.Msg { return PickerClosedMsg{} }
		case "enter":
			if len(p.filtered) > 0 && p.cursor < len(p.filtered) {
				value := p.filtered[p.cursor].Value
				return p, func() tea.Msg { return PickerSelectedMsg{Value: value} }
			}
			// A typed path that matches nothing is taken as is.
			if v := strings.TrimSpace(p.input.Value()); v != "" {
				return p, func() tea.Msg { return PickerSelectedMsg{Value: v} }
			}
			return p, nil
		case "up":
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil
		case "down":
			if p.cursor < len(p.filtered)-1 {
				p.cursor++
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.filter()
	return p, cmd
}

// View renders the picker overlay.
func (p *Picker) View() string {
	boxWidth := p.width - 4
	if boxWidth > 60 {
		boxWidth = 60
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	innerWidth := boxWidth - 4 // border + padding

	var b strings.Builder

	p.input.Width = innerWidth - 3 // account for prompt "> "
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	visible := maxPickerItems
	if visible > len(p.filtered) {
		visible = len(p.filtered)
	}

	// Scroll window around cursor
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := start + visible
	if end > len(p.filtered) {
		end = len(p.filtered)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	selectedStyle := lipgloss.NewStyle().Foreground(ui.Primary).Bold(true)

	for i := start; i < end; i++ {
		item := p.filtered[i]
		line := item.Label
		if item.Desc != "" {
			line += "  " + ui.DimStyle.Render(item.Desc)
		}
		line = truncate.StringWithTail(line, uint(innerWidth-2), "…")

		if i == p.cursor {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	switch {
	case p.loading:
		b.WriteString(ui.DimStyle.Render("  Scanning ports..."))
		b.WriteString("\n")
	case len(p.filtered) == 0:
		b.WriteString(ui.DimStyle.Render("  No matches, enter uses the typed path"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("(%d/%d ports)  esc:close", len(p.filtered), len(p.items))
	b.WriteString(ui.DimStyle.Render(footer))

	return ui.Panel(lipgloss.NewStyle().Foreground(ui.Primary).Bold(true).Render(p.title), b.String(), boxWidth, 0, true)
}

func (p *Picker) filter() {
	query := strings.ToLower(p.input.Value())
	if query == "" {
		p.filtered = p.items
	} else {
		p.filtered = nil
		for _, item := range p.items {
			if fuzzyMatch(strings.ToLower(item.Label+" "+item.Desc), query) {
				p.filtered = append(p.filtered, item)
			}
		}
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// fuzzyMatch checks if all characters in query appear in s in order.
func fuzzyMatch(s, query string) bool {
	qi := 0
	for i := 0; i < len(s) && qi < len(query); i++ {
		if s[i] == query[qi] {
			qi++
		}
	}
	return qi == len(query)
}

// portItems lists recently used ports first, then every enumerated port
// not already listed.
func portItems(ports []serial.PortInfo, recent []string) []PickerItem {
	known := make(map[string]serial.PortInfo, len(ports))
	for _, p := range ports {
		known[p.Name] = p
	}

	seen := make(map[string]bool)
	var items []PickerItem
	for _, name := range recent {
		if seen[name] {
			continue
		}
		seen[name] = true
		desc := "recent"
		if info, ok := known[name]; ok && info.Detail() != "" {
			desc = "recent, " + info.Detail()
		}
		items = append(items, PickerItem{Label: name, Value: name, Desc: desc})
	}
	for _, p := range ports {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		items = append(items, PickerItem{Label: p.Name, Value: p.Name, Desc: p.Detail()})
	}
	return items
}
