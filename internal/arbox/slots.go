package arbox

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04:05"
)

// Slot is a display-oriented view of one schedule entry. Only the fields the
// terminal UI shows are decoded; everything else in the payload is ignored.
type Slot struct {
	ID         FlexInt  `json:"id"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	EndTime    string   `json:"end_time"`
	Category   Category `json:"box_categories"`
	Coach      Coach    `json:"coach"`
	Registered FlexInt  `json:"registered"`
	MaxUsers   FlexInt  `json:"max_users"`
	// UserBooked carries the schedule-user id of the caller's booking, or a
	// zero value when the caller is not booked.
	UserBooked     FlexInt `json:"user_booked"`
	ScheduleUserID FlexInt `json:"schedule_user_id"`
	Standby        FlexInt `json:"user_in_standby"`
}

// Category is the class type, e.g. CrossFit or Yoga.
type Category struct {
	Name string `json:"name"`
}

type Coach struct {
	FullName string `json:"full_name"`
}

// Name returns the class category name.
func (s Slot) Name() string {
	if name := strings.TrimSpace(s.Category.Name); name != "" {
		return name
	}
	return "Class"
}

// CoachName returns the coach's name, or an empty string.
func (s Slot) CoachName() string {
	return strings.TrimSpace(s.Coach.FullName)
}

// Booked reports whether the caller holds a booking for this slot.
func (s Slot) Booked() bool {
	return s.UserBooked > 0
}

// BookingID returns the schedule-user id needed to cancel the caller's
// booking, or 0 when there is none.
func (s Slot) BookingID() int {
	if s.ScheduleUserID > 0 {
		return s.ScheduleUserID.Int()
	}
	// user_booked may be a plain true, which decodes to 1.
	if s.UserBooked > 1 {
		return s.UserBooked.Int()
	}
	return 0
}

// Full reports whether every place is taken.
func (s Slot) Full() bool {
	return s.MaxUsers > 0 && s.Registered >= s.MaxUsers
}

// Start returns the class start in loc, or the zero time when unparseable.
func (s Slot) Start(loc *time.Location) time.Time {
	return parseSlotTime(s.Date, s.Time, loc)
}

// End returns the class end in loc, or the zero time when unparseable.
func (s Slot) End(loc *time.Location) time.Time {
	return parseSlotTime(s.Date, s.EndTime, loc)
}

// State summarises the slot for display: booked, standby, full or open.
func (s Slot) State() string {
	switch {
	case s.Booked():
		return "booked"
	case s.Standby > 0:
		return "standby"
	case s.Full():
		return "full"
	default:
		return "open"
	}
}

// DecodeSlots reads a schedule payload, which is either a bare array or an
// object wrapping the array under "data".
func DecodeSlots(raw json.RawMessage) ([]Slot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var wrapped struct {
			Data []Slot `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
		return wrapped.Data, nil
	}
	var slots []Slot
	if err := json.Unmarshal(trimmed, &slots); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return slots, nil
}

func parseSlotTime(date, clock string, loc *time.Location) time.Time {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{slotTimeLayout, "15:04"} {
		if t, err := time.ParseInLocation(slotDateLayout+" "+layout, date+" "+clock, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FlexInt accepts numbers, numeric strings, booleans and null. The API is
// not consistent about which it sends.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	switch text {
	case "", "null", "false":
		*f = 0
		return nil
	case "true":
		*f = 1
		return nil
	}
	text = strings.Trim(text, `"`)
	if text == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the value as an int.
func (f FlexInt) Int() int {
	return int(f)
}
