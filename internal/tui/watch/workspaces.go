package watch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"niriglue/internal/events"
	"niriglue/internal/niri"
)

// WorkspaceState mirrors what the compositor reports about one workspace.
type WorkspaceState struct {
	ID       uint64
	Idx      int
	Name     string
	Output   string
	IsActive bool
	IsFocus  bool
	IsUrgent bool
}

// updateWorkspaceState folds a compositor event into the workspace map.
func updateWorkspaceState(workspaces map[uint64]*WorkspaceState, entry events.Entry) {
	switch entry.Tag {
	case niri.WorkspacesChanged:
		var payload struct {
			Workspaces []struct {
				ID        uint64 `json:"id"`
				Idx       int    `json:"idx"`
				Name      string `json:"name"`
				Output    string `json:"output"`
				IsActive  bool   `json:"is_active"`
				IsFocused bool   `json:"is_focused"`
				IsUrgent  bool   `json:"is_urgent"`
			} `json:"workspaces"`
		}
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return
		}
		for id := range workspaces {
			delete(workspaces, id)
		}
		for _, ws := range payload.Workspaces {
			workspaces[ws.ID] = &WorkspaceState{
				ID:       ws.ID,
				Idx:      ws.Idx,
				Name:     ws.Name,
				Output:   ws.Output,
				IsActive: ws.IsActive,
				IsFocus:  ws.IsFocused,
				IsUrgent: ws.IsUrgent,
			}
		}

	case niri.WorkspaceActivated:
		var payload struct {
			ID      uint64 `json:"id"`
			Focused bool   `json:"focused"`
		}
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return
		}
		activated, ok := workspaces[payload.ID]
		if !ok {
			return
		}
		// Activation is per output; focus is global.
		for _, ws := range workspaces {
			if ws.Output == activated.Output {
				ws.IsActive = false
			}
			if payload.Focused {
				ws.IsFocus = false
			}
		}
		activated.IsActive = true
		if payload.Focused {
			activated.IsFocus = true
		}

	case niri.WorkspaceUrgencyChanged:
		var payload struct {
			ID     uint64 `json:"id"`
			Urgent bool   `json:"urgent"`
		}
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return
		}
		if ws, ok := workspaces[payload.ID]; ok {
			ws.IsUrgent = payload.Urgent
		}
	}
}

func renderWorkspaces(workspaces map[uint64]*WorkspaceState, theme Theme, width int) string {
	innerWidth := width - 4

	if len(workspaces) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("WORKSPACES"),
			theme.Dim.Render("  No workspaces reported yet"),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	sorted := make([]*WorkspaceState, 0, len(workspaces))
	for _, ws := range workspaces {
		sorted = append(sorted, ws)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Output != sorted[j].Output {
			return sorted[i].Output < sorted[j].Output
		}
		return sorted[i].Idx < sorted[j].Idx
	})

	byOutput := make(map[string][]string)
	var outputs []string
	for _, ws := range sorted {
		if _, ok := byOutput[ws.Output]; !ok {
			outputs = append(outputs, ws.Output)
		}
		byOutput[ws.Output] = append(byOutput[ws.Output], formatWorkspace(ws, theme))
	}

	var lines []string
	for _, output := range outputs {
		lines = append(lines, fmt.Sprintf(" %s %s",
			theme.Highlight.Render(output),
			strings.Join(byOutput[output], " ")))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("WORKSPACES"),
		strings.Join(lines, "\n"),
	)
	return theme.Border.Width(innerWidth).Render(content)
}

func formatWorkspace(ws *WorkspaceState, theme Theme) string {
	label := fmt.Sprintf("%d", ws.Idx)
	if ws.Name != "" {
		label = ws.Name
	}
	switch {
	case ws.IsFocus:
		return theme.Focused.Render("[" + label + "]")
	case ws.IsUrgent:
		return theme.Urgent.Render("!" + label)
	case ws.IsActive:
		return theme.Highlight.Render("(" + label + ")")
	default:
		return theme.Dim.Render(label)
	}
}
