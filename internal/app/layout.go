package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/buckleypaul/serialplot/internal/link"
	"github.com/buckleypaul/serialplot/internal/serial"
	"github.com/buckleypaul/serialplot/internal/ui"
)

const sidebarWidth = 22 // 20 content + 2 border/padding

func stateBadge(s link.State) string {
	switch s {
	case link.Active:
		return ui.SuccessBadge(s.String())
	case link.Reconfiguring:
		return ui.WarningBadge(s.String())
	default:
		return ui.MutedBadge(s.String())
	}
}

func renderLinkBar(v link.View, line serial.PortOptions, notice string, width int, sidebarFocused bool) string {
	port := v.PortName
	if port == "" {
		port = "(none)"
	}
	line.BaudRate = v.BaudRate
	content := fmt.Sprintf("Port: %s  Line: %s ", port, line)
	if sidebarFocused {
		content += ui.DimStyle.Render("[p] change ")
	}
	content += stateBadge(v.State)
	if notice != "" {
		// 2 for the bar padding, 2 for the separator.
		room := width - lipgloss.Width(content) - 4
		if room > 0 {
			content += "  " + truncate.StringWithTail(notice, uint(room), "…")
		}
	}
	return ui.StatusBarStyle.Width(width).Render(content)
}

func renderSidebar(pages []PageID, active PageID, pageMap map[PageID]Page, height int, focused bool) string {
	var b strings.Builder
	if focused {
		b.WriteString(ui.BoldStyle.Render("serialplot [FOCUSED]"))
	} else {
		b.WriteString(ui.TitleStyle.Render("serialplot"))
	}
	b.WriteString("\n\n")

	for _, id := range pages {
		p := pageMap[id]
		if id == active {
			b.WriteString(ui.SidebarActiveStyle.Render("▸ " + p.Name()))
		} else {
			b.WriteString(ui.SidebarItemStyle.Render("  " + p.Name()))
		}
		b.WriteString("\n")
	}

	style := ui.SidebarStyle.Height(height)
	if focused {
		style = style.BorderForeground(ui.Primary)
	}
	return style.Render(b.String())
}

func renderStatusBar(pageHelp []key.Binding, width int, focus FocusArea) string {
	var parts []string

	if focus == FocusSidebar {
		parts = append(parts,
			ui.StatusKey("↑/↓", "navigate"),
			ui.StatusKey("enter", "select"),
			ui.StatusKey("p", "port"),
		)
	} else {
		for _, kb := range pageHelp {
			if kb.Enabled() {
				parts = append(parts, ui.StatusKey(kb.Help().Key, kb.Help().Desc))
			}
		}
	}

	parts = append(parts,
		ui.StatusKey("tab", "focus"),
		ui.StatusKey("?", "help"),
		ui.StatusKey("q", "quit"),
	)

	return ui.StatusBarStyle.Width(width).Render(strings.Join(parts, "  "))
}

func renderHelp(pageHelp []key.Binding) string {
	var b strings.Builder
	b.WriteString(ui.Title("Keys"))
	b.WriteString("\n")
	all := append([]key.Binding{GlobalKeys.ToggleFocus, GlobalKeys.PortPicker, GlobalKeys.Help, GlobalKeys.Quit}, pageHelp...)
	for _, kb := range all {
		h := kb.Help()
		b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, ui.DimStyle.Render(h.Desc)))
	}
	return b.String()
}

func renderLayout(linkBar, sidebar, content, statusBar string) string {
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	return lipgloss.JoinVertical(lipgloss.Left, linkBar, main, statusBar)
}
