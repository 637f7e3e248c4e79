package app

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	xansi "github.com/charmbracelet/x/ansi"

	"agentwatch/internal/types"
	"agentwatch/internal/workflowsync"
)

const (
	maxLogLines     = 8
	timestampLayout = "15:04:05"
)

const emptySessionText = "No session. Use /new <agent> [title] or /open <session-id>."

// renderHeader is the single status line above the transcript.
func renderHeader(view workflowsync.View, width int, spinnerFrame string) string {
	parts := []string{headerStyle.Render("agentwatch")}
	if view.SessionID != "" {
		label := view.SessionID
		if view.CurrentSession != nil && view.CurrentSession.Title != "" {
			label = view.CurrentSession.Title + " (" + view.SessionID + ")"
		}
		parts = append(parts, label)
	}
	if view.Workflow != nil {
		status := string(view.Workflow.Status)
		text := workflowStyle(status).Render(status)
		if view.Workflow.Step != "" {
			text += " " + statusStyle.Render(view.Workflow.Step)
		}
		parts = append(parts, text)
	}
	if view.State == workflowsync.StateActive {
		parts = append(parts, activityStyle.Render(strings.TrimSpace(spinnerFrame+" polling")))
	}
	return xansi.Truncate(strings.Join(parts, dividerStyle.Render(" │ ")), width, "…")
}

// renderSession lays out messages, sources and recent logs for the viewport.
func renderSession(view workflowsync.View, width int, md *markdownRenderer) string {
	if view.SessionID == "" {
		return emptySessionText
	}
	if view.CurrentSession == nil {
		if view.IsLoading {
			return "Loading " + view.SessionID + "…"
		}
		return "Session " + view.SessionID + " is not available."
	}
	if width <= 0 {
		width = 80
	}
	var blocks []string
	if len(view.Messages) == 0 {
		blocks = append(blocks, helpStyle.Render("No messages yet. Type a task and press enter."))
	}
	for _, message := range view.Messages {
		blocks = append(blocks, renderMessage(message, width, md))
	}
	if view.Workflow != nil && view.Workflow.Error != "" {
		blocks = append(blocks, logErrorStyle.Render("workflow error: "+view.Workflow.Error))
	}
	if len(view.Sources) > 0 {
		blocks = append(blocks, renderSources(view.Sources, width))
	}
	if len(view.Logs) > 0 {
		blocks = append(blocks, renderLogs(view.Logs, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderMessage(message types.Message, width int, md *markdownRenderer) string {
	style := agentBubbleStyle
	switch message.Role {
	case types.MessageRoleUser:
		style = userBubbleStyle
	case types.MessageRoleSystem:
		style = systemBubbleStyle
	}
	inner := width - style.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}
	body := message.Content
	if message.Role == types.MessageRoleAssistant {
		body = md.Render(body, inner)
	} else {
		body = xansi.Hardwrap(body, inner, true)
	}
	meta := string(message.Role)
	if !message.CreatedAt.IsZero() {
		meta += " · " + message.CreatedAt.Local().Format(timestampLayout)
	}
	return lipgloss.JoinVertical(lipgloss.Left, chatMetaStyle.Render(meta), style.Render(body))
}

func renderSources(sources []types.Source, width int) string {
	lines := []string{sectionStyle.Render("Sources")}
	for i, source := range sources {
		title := source.Title
		if title == "" {
			title = source.ID
		}
		line := fmt.Sprintf("%d. %s", i+1, title)
		if source.URL != "" {
			line += " " + source.URL
		}
		lines = append(lines, sourceStyle.Render(xansi.Truncate(line, width, "…")))
	}
	return strings.Join(lines, "\n")
}

func renderLogs(logs []types.LogEntry, width int) string {
	if len(logs) > maxLogLines {
		logs = logs[len(logs)-maxLogLines:]
	}
	lines := []string{sectionStyle.Render("Logs")}
	for _, entry := range logs {
		line := entry.Message
		if entry.Level != "" {
			line = entry.Level + " " + line
		}
		if !entry.Time.IsZero() {
			line = entry.Time.Local().Format(timestampLayout) + " " + line
		}
		style := logStyle
		if strings.EqualFold(entry.Level, "error") {
			style = logErrorStyle
		}
		lines = append(lines, style.Render(xansi.Truncate(line, width, "…")))
	}
	return strings.Join(lines, "\n")
}

// stopSummary describes how an episode ended.
func stopSummary(msg workflowsync.PollingStoppedMsg, timeout string) string {
	switch msg.Reason {
	case workflowsync.StopReasonTerminal:
		if msg.Workflow != nil && msg.Workflow.Status == types.WorkflowStatusError {
			if msg.Workflow.Error != "" {
				return "workflow failed: " + msg.Workflow.Error
			}
			return "workflow failed"
		}
		return "workflow completed"
	case workflowsync.StopReasonTimeout:
		return "stopped polling after " + timeout + " without a terminal status"
	case workflowsync.StopReasonSwitched:
		return "stopped polling " + msg.SessionID
	}
	return ""
}
