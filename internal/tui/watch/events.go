package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/flowdeck/internal/events"
)

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for workspace activity..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	var typeStyle lipgloss.Style
	switch {
	case e.Type == events.TypeEdgeRejected:
		typeStyle = theme.StatusFailed
	case e.Type == events.TypePipelineSaved, e.Type == events.TypeEdgeConnected,
		e.Type == events.TypeRunSubmitted:
		typeStyle = theme.StatusOK
	case strings.HasPrefix(e.Type, "node."):
		typeStyle = theme.StatusDirty
	case strings.HasPrefix(e.Type, "pipeline."):
		typeStyle = theme.Highlight
	default:
		typeStyle = theme.Dim
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-22s", e.Type))

	return fmt.Sprintf("%s %s %s", ts, typeName, extractEventDesc(e))
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	shorten := func(id string) string {
		if len(id) > 8 {
			return id[:8]
		}
		return id
	}

	if name, ok := data["name"].(string); ok && name != "" {
		parts = append(parts, name)
	}
	if pipelineID, ok := data["pipeline_id"].(string); ok && pipelineID != "" {
		parts = append(parts, fmt.Sprintf("[%s]", shorten(pipelineID)))
	}
	if pluginName, ok := data["plugin"].(string); ok && pluginName != "" {
		parts = append(parts, pluginName)
	}
	if nodeID, ok := data["node_id"].(string); ok && nodeID != "" {
		parts = append(parts, shorten(nodeID))
	}
	if reason, ok := data["reason"].(string); ok && reason != "" {
		parts = append(parts, reason)
	}
	if path, ok := data["path"].(string); ok && path != "" {
		parts = append(parts, path)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
