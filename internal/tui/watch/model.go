package watch

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"niriglue/internal/events"
)

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string

	width  int
	height int

	daemon     DaemonState
	workspaces map[uint64]*WorkspaceState
	eventLog   []events.Entry

	ticker  Ticker
	spinner Spinner

	theme Theme

	entries chan events.Entry

	lastError string
}

// New creates a watch model that follows the admin server at apiURL.
func New(apiURL string) *Model {
	return &Model{
		apiURL:     apiURL,
		workspaces: make(map[uint64]*WorkspaceState),
		eventLog:   make([]events.Entry, 0),
		entries:    make(chan events.Entry, 100),
		ticker:     NewTicker(),
		spinner:    NewSpinner(),
		theme:      NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.entries),
		receiveNextEntry(m.entries),
		func() tea.Msg { return fetchStatus(m.apiURL) },
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.ticker.Tick()
		m.spinner.Decay()
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case entryMsg:
		entry := events.Entry(msg)

		// Newest first.
		m.eventLog = append([]events.Entry{entry}, m.eventLog...)
		if len(m.eventLog) > 50 {
			m.eventLog = m.eventLog[:50]
		}

		m.spinner.OnEvent()
		updateWorkspaceState(m.workspaces, entry)

		m.daemon.Connected = true
		m.lastError = ""

		return m, receiveNextEntry(m.entries)

	case statusMsg:
		m.daemon.Status = msg.Status
		m.daemon.Version = msg.Version
		m.daemon.UptimeSeconds = msg.UptimeSeconds
		m.daemon.Dispatching = msg.Dispatching
		m.daemon.EventsSeen = msg.EventsSeen
		m.daemon.Connected = true
		m.daemon.LastCheck = time.Now()
		m.lastError = ""

		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchStatus(m.apiURL)
		})

	case sseDisconnectedMsg:
		m.daemon.Connected = false
		m.lastError = "event feed disconnected, reconnecting..."
		// Reconnect after a short delay; the pending receiveNextEntry
		// keeps draining the channel once the new subscription is up.
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.entries)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchStatus(m.apiURL)
		})
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting..."
	}

	header := renderHeader(m.daemon, m.ticker, m.spinner, m.theme, m.width)
	workspaces := renderWorkspaces(m.workspaces, m.theme, m.width)
	eventStream := renderEventStream(m.eventLog, m.theme, m.width)

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" [q] Quit")

	parts := []string{header, workspaces, eventStream}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
