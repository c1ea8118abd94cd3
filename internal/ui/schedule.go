package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/arbox/internal/arbox"
)

// visibleSlots returns the classes of the selected day ordered by start time.
// It is empty while the store still holds another day.
func (m Model) visibleSlots() []arbox.Slot {
	if !m.snapshot.HasSchedule || !m.snapshot.Day.Equal(m.day) {
		return nil
	}
	slots := append([]arbox.Slot(nil), m.snapshot.Slots...)
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Time != slots[j].Time {
			return clock(slots[i].Time) < clock(slots[j].Time)
		}
		return slots[i].ID < slots[j].ID
	})
	return slots
}

func (m Model) selectedSlot() (arbox.Slot, bool) {
	slots := m.visibleSlots()
	if m.selectedRow < 0 || m.selectedRow >= len(slots) {
		return arbox.Slot{}, false
	}
	return slots[m.selectedRow], true
}

func (m *Model) clampSelection() {
	count := len(m.visibleSlots())
	if m.selectedRow >= count {
		m.selectedRow = count - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// slotState is the slot's own state, except that unbooked classes that have
// already started show as past.
func slotState(slot arbox.Slot, now time.Time) string {
	state := slot.State()
	if state == "booked" || state == "standby" {
		return state
	}
	if start := slot.Start(time.Local); !start.IsZero() && start.Before(now) {
		return "past"
	}
	return state
}

func slotLabel(slot arbox.Slot) string {
	if t := clock(slot.Time); t != "" {
		return slot.Name() + " " + t
	}
	return slot.Name()
}

// clock trims "07:00:00" to "07:00".
func clock(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 5 {
		return value[:5]
	}
	return value
}

// renderSchedule renders the day's classes in a titled box.
func (m Model) renderSchedule() string {
	contentHeight := m.height - 3
	title := m.day.Format("Monday 02 Jan")
	if m.day.Equal(today(m.now())) {
		title += " (today)"
	}

	var content string
	bgColor := m.theme.SurfaceAlt
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Background(lipgloss.Color(bgColor))
	switch slots := m.visibleSlots(); {
	case !m.snapshot.HasSchedule || !m.snapshot.Day.Equal(m.day):
		if m.snapshot.LastError != nil {
			content = muted.Render("Schedule unavailable, retrying")
		} else {
			content = muted.Render("Loading schedule...")
		}
	case len(slots) == 0:
		content = muted.Render("No classes on this day")
	default:
		content = m.renderSlotRows(slots, m.width-2, bgColor)
	}
	return m.renderTitledBox(title, content, m.width, contentHeight, true)
}

func (m Model) renderSlotRows(slots []arbox.Slot, width int, bgColor string) string {
	now := m.now()
	boxHeight := m.height - 5
	start := 0
	if boxHeight > 0 && m.selectedRow >= boxHeight {
		start = m.selectedRow - boxHeight + 1
	}

	var lines []string
	for i := start; i < len(slots); i++ {
		selected := i == m.selectedRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatSlotRow(slots[i], width, rowBg, selected, now)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

// formatSlotRow formats one class as "07:00-08:00  CrossFit  Coach  12/20  Open".
func (m Model) formatSlotRow(slot arbox.Slot, width int, bgColor string, selected bool, now time.Time) string {
	bg := NewBgStyle(bgColor)
	state := slotState(slot, now)

	timeStr := clock(slot.Time)
	if end := slot.End(time.Local); !end.IsZero() {
		timeStr += "-" + end.Format("15:04")
	}
	capacity := fmt.Sprintf("%d", slot.Registered.Int())
	if slot.MaxUsers > 0 {
		capacity = fmt.Sprintf("%d/%d", slot.Registered.Int(), slot.MaxUsers.Int())
	}
	stateStr := titleCase(state)

	nameWidth := max((width-11-7-9-6)*3/5, 8)
	coachWidth := max(width-11-7-9-6-nameWidth, 6)

	var textStyle, mutedStyle, stateStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		textStyle, mutedStyle, stateStyle = sel, sel, sel.Bold(true)
	} else {
		styles := m.theme.Styles()
		textStyle = styles.Text
		mutedStyle = styles.MutedText
		stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StateColor(state)))
	}

	return bg.Render(padRight(timeStr, 11), mutedStyle) + bg.Spaces(2) +
		bg.Render(padRight(slot.Name(), nameWidth), textStyle) + bg.Spaces(2) +
		bg.Render(padRight(slot.CoachName(), coachWidth), mutedStyle) + bg.Spaces(2) +
		bg.Render(padRight(capacity, 7), textStyle) + bg.Spaces(2) +
		bg.Render(stateStr, stateStyle)
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr, bgColorStr := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColorStr = m.theme.BorderFocus
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := len([]rune(title))
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := height - 2

	lines := make([]string, 0, max(boxHeight, 0)+2)
	lines = append(lines, topBorder)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	lines = append(lines, bottomBorder)
	return strings.Join(lines, "\n")
}
