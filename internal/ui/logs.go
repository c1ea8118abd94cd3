package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/arbox/internal/logtail"
)

const logLineLimit = 500

type logLinesMsg struct {
	lines []string
	err   error
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, logLineLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) resizeLogViewport() {
	width, height := max(m.width-2, 1), max(m.height-5, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
		m.logViewport.Style = lipgloss.NewStyle()
		return
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	if msg.err != nil {
		m.status = errorStatus("read log", msg.err)
		return
	}
	atBottom := m.logViewport.AtBottom() || len(m.logLines) == 0
	m.logLines = msg.lines

	formatted := make([]string, len(msg.lines))
	for i, line := range msg.lines {
		formatted[i] = m.colorizeLogLine(logtail.Format(line))
	}
	m.logViewport.SetContent(strings.Join(formatted, "\n"))
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

// colorizeLogLine tints a formatted line by its level column.
func (m Model) colorizeLogLine(line string) string {
	styles := m.theme.Styles()
	switch {
	case strings.Contains(line, " ERROR "):
		return styles.DangerText.Render(line)
	case strings.Contains(line, " WARN "):
		return styles.WarningText.Render(line)
	case strings.Contains(line, " DEBUG "):
		return styles.FaintText.Render(line)
	default:
		return styles.Text.Render(line)
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.HalfPageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	}
	return m, nil
}

func (m Model) renderLogs() string {
	title := "Log"
	if m.logPath != "" {
		title = "Log " + truncate(m.logPath, 60)
	}
	content := m.logViewport.View()
	if len(m.logLines) == 0 {
		content = m.theme.Styles().MutedText.Render("No log output yet")
	}
	return m.renderTitledBox(title, content, m.width, m.height-3, true)
}
