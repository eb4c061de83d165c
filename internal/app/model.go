package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/serialplot/internal/config"
	"github.com/buckleypaul/serialplot/internal/link"
	"github.com/buckleypaul/serialplot/internal/message"
	"github.com/buckleypaul/serialplot/internal/serial"
	"github.com/buckleypaul/serialplot/internal/ui"
)

type FocusArea int

const (
	FocusSidebar FocusArea = iota
	FocusContent
)

// recentPortLimit caps how many recent ports head the picker.
const recentPortLimit = 5

// RecentPorts returns recently used port names, most recent first.
type RecentPorts func(limit int) ([]string, error)

type Model struct {
	pages      map[PageID]Page
	activePage PageID
	focus      FocusArea
	width      int
	height     int
	showHelp   bool
	notice     string
	picker     *Picker
	cfg        *config.Config
	localRoot  string
	link       *link.Config
	queue      *message.Queue
	recent     RecentPorts
	listPorts  func() ([]serial.PortInfo, error)
}

// New builds the root model. queue may be nil when no worker feeds it and
// recent may be nil when no session history is kept.
func New(pages map[PageID]Page, cfg *config.Config, localRoot string, l *link.Config, queue *message.Queue, recent RecentPorts) Model {
	return Model{
		pages:     pages,
		cfg:       cfg,
		localRoot: localRoot,
		link:      l,
		queue:     queue,
		recent:    recent,
		listPorts: serial.ListPorts,
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, p := range m.pages {
		if cmd := p.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, m.waitForMessages())
	return tea.Batch(cmds...)
}

// waitForMessages blocks until the worker has emitted something and
// returns everything queued so far.
func (m Model) waitForMessages() tea.Cmd {
	q := m.queue
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		<-q.Ready()
		return MessagesMsg{Messages: q.Drain()}
	}
}

func (m Model) loadPorts() tea.Cmd {
	list, recent := m.listPorts, m.recent
	return func() tea.Msg {
		ports, err := list()
		var names []string
		if recent != nil {
			names, _ = recent(recentPortLimit)
		}
		return PortsLoadedMsg{Ports: ports, Recent: names, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth := m.width - sidebarWidth
		contentHeight := m.height - 2 - 1 // status bar + link bar
		for _, p := range m.pages {
			p.SetSize(contentWidth, contentHeight)
		}
		return m, nil

	case MessagesMsg:
		for _, mm := range msg.Messages {
			if n, ok := mm.(message.Notice); ok {
				m.notice = n.Text
			}
		}
		cmd := m.broadcast(msg)
		return m, tea.Batch(cmd, m.waitForMessages())

	case StatusMsg:
		m.notice = msg.Text
		return m, nil

	case PortsLoadedMsg:
		if m.picker == nil {
			return m, nil
		}
		if msg.Err != nil {
			m.notice = fmt.Sprintf("Failed to list ports: %v", msg.Err)
		}
		m.picker.SetItems(portItems(msg.Ports, msg.Recent))
		return m, nil

	case PickerSelectedMsg:
		m.picker = nil
		m.link.SetPort(msg.Value)
		m.cfg.SerialPort = msg.Value
		m.notice = fmt.Sprintf("Port set to %s", msg.Value)
		if err := config.Save(*m.cfg, m.localRoot, false); err != nil {
			m.notice = fmt.Sprintf("Port set to %s (not saved: %v)", msg.Value, err)
		}
		return m, func() tea.Msg { return PortSelectedMsg{Port: msg.Value} }

	case PickerClosedMsg:
		m.picker = nil
		return m, nil

	case tea.KeyMsg:
		// When picker is open, forward all keys to picker
		if m.picker != nil {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}

		// When a page has an active text input, forward all keys
		// directly to the page; only ctrl+c still quits.
		if m.focus == FocusContent {
			if ic, ok := m.pages[m.activePage].(InputCapturer); ok && ic.InputCaptured() {
				if msg.String() == "ctrl+c" {
					return m, tea.Quit
				}
				page := m.pages[m.activePage]
				newPage, cmd := page.Update(msg)
				m.pages[m.activePage] = newPage
				return m, cmd
			}
		}

		switch {
		case key.Matches(msg, GlobalKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, GlobalKeys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, GlobalKeys.ToggleFocus):
			if m.focus == FocusSidebar {
				m.focus = FocusContent
				return m, nil
			}
			// When content focused, fall through to page handler
		}

		if m.focus == FocusSidebar {
			if key.Matches(msg, GlobalKeys.PortPicker) {
				m.picker = NewPicker("Select Port")
				m.picker.SetSize(m.width-sidebarWidth, m.height-2-1)
				return m, m.loadPorts()
			}

			switch msg.String() {
			case "up":
				m.prevPage()
				return m, nil
			case "down":
				m.nextPage()
				return m, nil
			case "enter", "right":
				m.focus = FocusContent
				return m, nil
			}
			return m, nil
		}

		if msg.String() == "left" {
			m.focus = FocusSidebar
			return m, nil
		}

		page := m.pages[m.activePage]
		newPage, cmd := page.Update(msg)
		m.pages[m.activePage] = newPage
		return m, cmd
	}

	// Non-key messages (command results, etc.): forward to all pages
	// so responses reach the page that initiated the command
	return m, m.broadcast(msg)
}

func (m Model) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for id, page := range m.pages {
		newPage, cmd := page.Update(msg)
		m.pages[id] = newPage
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentWidth := m.width - sidebarWidth
	contentHeight := m.height - 2 - 1 // status bar + link bar

	page := m.pages[m.activePage]

	linkBar := renderLinkBar(m.link.Snapshot(), m.lineSettings(), m.notice, m.width, m.focus == FocusSidebar)
	sidebar := renderSidebar(PageOrder, m.activePage, m.pages, contentHeight, m.focus == FocusSidebar)

	body := page.View()
	if m.showHelp {
		body = renderHelp(page.ShortHelp())
	}
	content := ui.ContentStyle.
		Width(contentWidth).
		Height(contentHeight).
		Render(body)

	// Overlay picker on content area when open
	if m.picker != nil {
		m.picker.SetSize(contentWidth, contentHeight)
		content = lipgloss.Place(
			contentWidth, contentHeight,
			lipgloss.Center, lipgloss.Center,
			m.picker.View(),
		)
	}

	statusBar := renderStatusBar(page.ShortHelp(), m.width, m.focus)

	return renderLayout(linkBar, sidebar, content, statusBar)
}

func (m *Model) nextPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i+1)%len(PageOrder)]
			return
		}
	}
}

func (m *Model) prevPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i-1+len(PageOrder))%len(PageOrder)]
			return
		}
	}
}

// lineSettings returns the configured framing. The baud rate comes from
// the link view.
func (m Model) lineSettings() serial.PortOptions {
	return serial.PortOptions{DataBits: m.cfg.DataBits, StopBits: m.cfg.StopBits, Parity: m.cfg.Parity}
}
