package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: day, class counts, freshness and
// connection problems.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{bg.Render("arbox", styles.Logo)}

	dayLabel := m.day.Format("Mon 02 Jan 2006")
	if m.day.Equal(today(m.now())) {
		dayLabel += " · today"
	}
	parts = append(parts, bg.Render(dayLabel, styles.Text))

	if !m.snapshot.HasSchedule && m.snapshot.LastError == nil {
		parts = append(parts, bg.Render("Loading schedule...", styles.WarningText.Bold(true)))
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	slots := m.visibleSlots()
	booked, open := 0, 0
	now := m.now()
	for _, slot := range slots {
		switch slotState(slot, now) {
		case "booked":
			booked++
		case "open":
			open++
		}
	}
	parts = append(parts,
		bg.Render("Classes:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", len(slots)), styles.Text),
		bg.Render("Open:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", open), styles.InfoText),
	)
	bookedStyle := styles.MutedText
	if booked > 0 {
		bookedStyle = styles.SuccessText
	}
	parts = append(parts, bg.Render("Booked:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", booked), bookedStyle))

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText))
	}
	if m.snapshot.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render(classifyError(m.snapshot.LastError), styles.DangerText)+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), maxErr), styles.DangerText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last update time with a relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}
	since := m.now().Sub(m.lastUpdated)
	ts := m.lastUpdated.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyError returns a short label for a poll failure.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return "AUTH"
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd
	switch m.currentView {
	case ViewLogs:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"r", "Reload"},
			{"l", "Schedule"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"[/]", "Day"},
			{"t", "Today"},
			{"j/k", "Navigate"},
			{"b", "Book"},
			{"c", "Cancel"},
			{"r", "Refresh"},
			{"l", "Log"},
			{"?", "More"},
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments, bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
