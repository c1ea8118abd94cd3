package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/arbox/internal/arbox"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptCancel
	promptMembership
)

// prompt is the single pending question shown in the status line.
type prompt struct {
	kind  promptKind
	slot  arbox.Slot
	late  bool
	input textinput.Model
}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusSuccess
	statusError
)

type statusLine struct {
	level statusLevel
	text  string
}

func infoStatus(text string) statusLine    { return statusLine{level: statusInfo, text: text} }
func successStatus(text string) statusLine { return statusLine{level: statusSuccess, text: text} }

func errorStatus(op string, err error) statusLine {
	if arbox.IsRejected(err, 0) {
		return statusLine{level: statusError, text: "Rejected: " + err.Error()}
	}
	return statusLine{level: statusError, text: fmt.Sprintf("%s: %v", op, err)}
}

type actionKind int

const (
	actionBook actionKind = iota
	actionCancel
)

type actionMsg struct {
	kind actionKind
	slot arbox.Slot
	err  error
}

func newMembershipInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "membership user id"
	ti.CharLimit = 12
	ti.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("digits only")
			}
		}
		return nil
	}
	return ti
}

// startBooking books the selected slot, asking for the membership id first
// when none is configured.
func (m Model) startBooking() (tea.Model, tea.Cmd) {
	slot, ok := m.selectedSlot()
	if !ok || m.pending {
		return m, nil
	}
	if slot.Booked() {
		m.status = infoStatus("Already booked: " + slotLabel(slot))
		return m, nil
	}
	if m.membership <= 0 {
		m.prompt.kind = promptMembership
		m.prompt.slot = slot
		m.prompt.input.SetValue("")
		return m, m.prompt.input.Focus()
	}
	return m.submitBooking(slot)
}

func (m Model) submitBooking(slot arbox.Slot) (tea.Model, tea.Cmd) {
	if m.bookings == nil {
		return m, nil
	}
	m.pending = true
	m.status = infoStatus("Booking " + slotLabel(slot) + "...")
	ctx, bookings := m.ctx, m.bookings
	req := arbox.BookingRequest{ScheduleID: slot.ID.Int(), MembershipUserID: m.membership}
	return m, func() tea.Msg {
		_, err := bookings.Book(ctx, req)
		return actionMsg{kind: actionBook, slot: slot, err: err}
	}
}

// startCancel asks for confirmation before cancelling the selected booking.
func (m Model) startCancel() (tea.Model, tea.Cmd) {
	slot, ok := m.selectedSlot()
	if !ok || m.pending {
		return m, nil
	}
	if !slot.Booked() {
		m.status = infoStatus("Not booked: " + slotLabel(slot))
		return m, nil
	}
	if slot.BookingID() == 0 {
		m.status = statusLine{level: statusError, text: "No booking id in the schedule for " + slotLabel(slot)}
		return m, nil
	}
	m.prompt = prompt{kind: promptCancel, slot: slot, input: m.prompt.input}
	return m, nil
}

func (m Model) submitCancel(slot arbox.Slot, late bool) (tea.Model, tea.Cmd) {
	if m.bookings == nil {
		return m, nil
	}
	m.pending = true
	m.status = infoStatus("Cancelling " + slotLabel(slot) + "...")
	ctx, bookings := m.ctx, m.bookings
	req := arbox.CancelRequest{ScheduleID: slot.ID.Int(), ScheduleUserID: slot.BookingID(), LateCancel: late}
	return m, func() tea.Msg {
		_, err := bookings.Cancel(ctx, req)
		return actionMsg{kind: actionCancel, slot: slot, err: err}
	}
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.prompt.kind {
	case promptCancel:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			slot, late := m.prompt.slot, m.prompt.late
			m.closePrompt()
			return m.submitCancel(slot, late)
		case key.Matches(msg, m.keys.ToggleLate):
			m.prompt.late = !m.prompt.late
		case key.Matches(msg, m.keys.Deny):
			m.closePrompt()
			m.status = infoStatus("Cancel aborted")
		}
		return m, nil

	case promptMembership:
		switch {
		case key.Matches(msg, m.keys.Submit):
			id, err := strconv.Atoi(strings.TrimSpace(m.prompt.input.Value()))
			if err != nil || id <= 0 {
				m.status = statusLine{level: statusError, text: "Membership user id must be a positive number"}
				return m, nil
			}
			slot := m.prompt.slot
			m.membership = id
			m.closePrompt()
			return m.submitBooking(slot)
		case msg.Type == tea.KeyEsc || msg.Type == tea.KeyCtrlC:
			m.closePrompt()
			return m, nil
		}
		var cmd tea.Cmd
		m.prompt.input, cmd = m.prompt.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) closePrompt() {
	m.prompt.input.Blur()
	m.prompt = prompt{input: m.prompt.input}
}

func (m Model) handleActionResult(msg actionMsg) (tea.Model, tea.Cmd) {
	m.pending = false
	op := "book"
	if msg.kind == actionCancel {
		op = "cancel"
	}
	if msg.err != nil {
		m.log.Warn("booking action failed", zap.String("action", op), zap.Int("schedule_id", msg.slot.ID.Int()), zap.Error(msg.err))
		m.status = errorStatus(op, msg.err)
		return m, nil
	}

	m.log.Info("booking action succeeded", zap.String("action", op), zap.Int("schedule_id", msg.slot.ID.Int()))
	if msg.kind == actionCancel {
		m.status = successStatus("Cancelled " + slotLabel(msg.slot))
	} else {
		m.status = successStatus("Booked " + slotLabel(msg.slot))
	}
	return m, m.refreshCmd()
}

// renderStatusLine shows the active prompt or the last action result.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)

	switch m.prompt.kind {
	case promptCancel:
		late := "off"
		if m.prompt.late {
			late = "on"
		}
		return bg.Render("Cancel "+slotLabel(m.prompt.slot)+"?", styles.WarningText.Bold(true)) + bg.Space() +
			bg.Render("y", styles.AccentText) + bg.Render("/", styles.FaintText) + bg.Render("n", styles.AccentText) + bg.Spaces(2) +
			bg.Render("L", styles.AccentText) + bg.Render(":late cancel "+late, styles.MutedText)
	case promptMembership:
		return bg.Render("Membership id:", styles.AccentText) + bg.Space() + m.prompt.input.View() + bg.Spaces(2) +
			bg.Render("enter to book, esc to abort", styles.FaintText)
	}

	if m.status.text == "" {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	text := truncate(m.status.text, width-2)
	switch m.status.level {
	case statusError:
		return bg.Render(text, styles.DangerText)
	case statusSuccess:
		return bg.Render(text, styles.SuccessText)
	default:
		return bg.Render(text, styles.MutedText)
	}
}
