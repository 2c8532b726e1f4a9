package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"niriglue/internal/events"
	"niriglue/internal/niri"
)

func renderEventStream(eventLog []events.Entry, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 12 {
			break
		}
		lines = append(lines, formatEntry(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatEntry(e events.Entry, theme Theme) string {
	ts := theme.Dim.Render(e.At.Local().Format("15:04:05"))

	var tagStyle lipgloss.Style
	switch {
	case !e.Known:
		tagStyle = theme.Urgent
	case strings.HasPrefix(e.Tag, "Window"):
		tagStyle = theme.StatusOK
	case strings.HasPrefix(e.Tag, "Workspace"):
		tagStyle = theme.Highlight
	default:
		tagStyle = theme.Dim
	}

	tag := tagStyle.Render(fmt.Sprintf("%-28s", e.Tag))

	return fmt.Sprintf("%s %s %s", ts, tag, extractEntryDesc(e))
}

// extractEntryDesc pulls the most telling fields out of an event payload.
func extractEntryDesc(e events.Entry) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Payload, &data)

	var parts []string

	if id, ok := data["id"].(float64); ok {
		parts = append(parts, fmt.Sprintf("id=%d", int64(id)))
	}
	if window, ok := data["window"].(map[string]any); ok {
		if appID, ok := window["app_id"].(string); ok && appID != "" {
			parts = append(parts, appID)
		}
		if title, ok := window["title"].(string); ok && title != "" {
			if len(title) > 40 {
				title = title[:40] + "..."
			}
			parts = append(parts, fmt.Sprintf("%q", title))
		}
	}
	if e.Tag == niri.ConfigLoaded {
		if failed, ok := data["failed"].(bool); ok && failed {
			parts = append(parts, "failed")
		} else {
			parts = append(parts, "ok")
		}
	}
	if open, ok := data["is_open"].(bool); ok {
		parts = append(parts, fmt.Sprintf("open=%t", open))
	}

	if len(parts) == 0 {
		raw := string(e.Payload)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
