package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/serialplot/internal/message"
)

// PageID identifies each page in the application.
type PageID int

const (
	MonitorPage PageID = iota
	PlotPage
	SettingsPage
)

var PageOrder = []PageID{
	MonitorPage,
	PlotPage,
	SettingsPage,
}

// Page is the interface every page in the application implements.
type Page interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Page, tea.Cmd)
	View() string
	Name() string
	ShortHelp() []key.Binding
	SetSize(width, height int)
}

// InputCapturer is an optional interface for pages with text inputs.
// When InputCaptured returns true, the app forwards all keys directly
// to the page instead of processing shortcuts like q, ?, left, etc.
type InputCapturer interface {
	InputCaptured() bool
}

// MessagesMsg carries everything the serial worker emitted since the
// last drain, in emission order. It is broadcast to all pages.
type MessagesMsg struct {
	Messages []message.Message
}

// StatusMsg replaces the notice shown in the link bar.
type StatusMsg struct {
	Text string
}

// ClearPlotMsg asks the plot page to drop every series. Batches read under
// a link generation older than Generation are ignored afterwards.
type ClearPlotMsg struct {
	Generation uint64
}

// PortSelectedMsg is broadcast to all pages when a port is picked.
type PortSelectedMsg struct {
	Port string
}

// Status returns a command that shows text in the link bar.
func Status(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}
