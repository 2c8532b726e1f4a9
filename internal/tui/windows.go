// Package tui holds the windows monitor, a table view over the compositor's
// window list built from the admin server's SSE feed.
package tui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"niriglue/internal/events"
	"niriglue/internal/niri"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#61AFEF"))

	statusOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	statusFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	focusedMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	urgentMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)
)

// WindowNode is one tracked compositor window.
type WindowNode struct {
	ID          uint64
	WorkspaceID uint64
	AppID       string
	Title       string
	IsFocused   bool
	IsUrgent    bool
	IsFloating  bool
}

// WindowsModel is the BubbleTea model for the windows monitor.
type WindowsModel struct {
	apiURL string

	width  int
	height int

	windows  map[uint64]*WindowNode
	eventLog []events.Entry
	entries  chan events.Entry

	connected bool

	windowTable table.Model
}

type entryMsg events.Entry
type errMsg error

func NewWindowsModel(apiURL string) *WindowsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "", Width: 2},
			{Title: "ID", Width: 6},
			{Title: "WS", Width: 4},
			{Title: "App", Width: 24},
			{Title: "Title", Width: 44},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &WindowsModel{
		apiURL:      apiURL,
		windows:     make(map[uint64]*WindowNode),
		eventLog:    make([]events.Entry, 0),
		entries:     make(chan events.Entry, 100),
		windowTable: t,
	}
}

func (m WindowsModel) Init() tea.Cmd {
	return tea.Batch(
		m.subscribeToEvents(),
		m.receiveNextEntry(),
		tea.EnterAltScreen,
	)
}

func (m WindowsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.windowTable.SetWidth(m.width - 6)

	case entryMsg:
		m.handleEntry(events.Entry(msg))
		m.updateTable()
		return m, m.receiveNextEntry()

	case errMsg:
		m.connected = false
	}

	m.windowTable, cmd = m.windowTable.Update(msg)
	return m, cmd
}

func (m *WindowsModel) handleEntry(e events.Entry) {
	m.connected = true
	m.eventLog = append([]events.Entry{e}, m.eventLog...)
	if len(m.eventLog) > 50 {
		m.eventLog = m.eventLog[:50]
	}

	switch e.Tag {
	case niri.WindowsChanged:
		var payload struct {
			Windows []windowInfo `json:"windows"`
		}
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return
		}
		m.windows = make(map[uint64]*WindowNode, len(payload.Windows))
		for _, w := range payload.Windows {
			m.windows[w.ID] = w.node()
		}

	case niri.WindowOpenedOrChanged:
		var payload struct {
			Window windowInfo `json:"window"`
		}
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return
		}
		node := payload.Window.node()
		if node.IsFocused {
			for _, w := range m.windows {
				w.IsFocused = false
			}
		}
		m.windows[node.ID] = node

	case niri.WindowClosed:
		var payload struct {
			ID uint64 `json:"id"`
		}
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return
		}
		delete(m.windows, payload.ID)

	case niri.WindowFocusChanged:
		var payload struct {
			ID *uint64 `json:"id"`
		}
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return
		}
		for id, w := range m.windows {
			w.IsFocused = payload.ID != nil && id == *payload.ID
		}

	case niri.WindowUrgencyChanged:
		var payload struct {
			ID     uint64 `json:"id"`
			Urgent bool   `json:"urgent"`
		}
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return
		}
		if w, ok := m.windows[payload.ID]; ok {
			w.IsUrgent = payload.Urgent
		}
	}
}

type windowInfo struct {
	ID          uint64 `json:"id"`
	WorkspaceID uint64 `json:"workspace_id"`
	AppID       string `json:"app_id"`
	Title       string `json:"title"`
	IsFocused   bool   `json:"is_focused"`
	IsUrgent    bool   `json:"is_urgent"`
	IsFloating  bool   `json:"is_floating"`
}

func (w windowInfo) node() *WindowNode {
	return &WindowNode{
		ID:          w.ID,
		WorkspaceID: w.WorkspaceID,
		AppID:       w.AppID,
		Title:       w.Title,
		IsFocused:   w.IsFocused,
		IsUrgent:    w.IsUrgent,
		IsFloating:  w.IsFloating,
	}
}

func (m *WindowsModel) updateTable() {
	sorted := make([]*WindowNode, 0, len(m.windows))
	for _, w := range m.windows {
		sorted = append(sorted, w)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].WorkspaceID != sorted[j].WorkspaceID {
			return sorted[i].WorkspaceID < sorted[j].WorkspaceID
		}
		return sorted[i].ID < sorted[j].ID
	})

	rows := make([]table.Row, 0, len(sorted))
	for _, w := range sorted {
		mark := " "
		switch {
		case w.IsFocused:
			mark = focusedMark.Render("●")
		case w.IsUrgent:
			mark = urgentMark.Render("!")
		case w.IsFloating:
			mark = "~"
		}
		rows = append(rows, table.Row{
			mark,
			fmt.Sprintf("%d", w.ID),
			fmt.Sprintf("%d", w.WorkspaceID),
			w.AppID,
			w.Title,
		})
	}
	m.windowTable.SetRows(rows)
}

func (m WindowsModel) View() string {
	if m.width == 0 {
		return "Connecting..."
	}

	status := statusOK.Render("CONNECTED")
	if !m.connected {
		status = statusFailed.Render("WAITING")
	}
	header := borderStyle.Width(m.width - 4).Render(
		fmt.Sprintf(" NIRIGLUE WINDOWS  %s  %d windows", status, len(m.windows)),
	)

	windowsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Windows"),
			m.windowTable.View(),
		),
	)

	eventsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Event Stream"),
			m.renderEvents(),
		),
	)

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(" [q] Quit • [↑/↓] Scroll Windows")

	return docStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			windowsView,
			eventsView,
			help,
		),
	)
}

func (m WindowsModel) renderEvents() string {
	var lines []string
	for i, e := range m.eventLog {
		if i >= 8 {
			break
		}
		ts := e.At.Local().Format("15:04:05")
		payload := string(e.Payload)
		if len(payload) > 60 {
			payload = payload[:60] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s | %-28s | %s", ts, e.Tag, payload))
	}
	if len(lines) == 0 {
		return "  No events yet..."
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func (m WindowsModel) subscribeToEvents() tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{}
		resp, err := client.Get(m.apiURL + "/v1/events")
		if err != nil {
			return errMsg(err)
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data: ") {
				var entry events.Entry
				if err := json.Unmarshal([]byte(line[6:]), &entry); err == nil {
					m.entries <- entry
				}
			}
		}
		return nil
	}
}

func (m WindowsModel) receiveNextEntry() tea.Cmd {
	return func() tea.Msg {
		return entryMsg(<-m.entries)
	}
}

// Run starts the windows monitor and blocks until the user quits.
func Run(apiURL string) error {
	p := tea.NewProgram(NewWindowsModel(apiURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("windows monitor: %w", err)
	}
	return nil
}
