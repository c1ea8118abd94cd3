package arbox

import (
	"time"

	"github.com/goccy/go-json"
)

// timestampLayout is the wire format for schedule query bounds: millisecond
// precision with a literal Z, always rendered in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Credentials authenticate a login call.
type Credentials struct {
	Email    string
	Password string
}

// TokenPair is the session produced by Login and consumed by every
// authenticated call. There is no expiry tracking.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Empty reports whether the access token is missing.
func (t TokenPair) Empty() bool {
	return t.AccessToken == ""
}

// ScheduleQuery selects the classes listed by ScheduleBetweenDates.
type ScheduleQuery struct {
	From          time.Time
	To            time.Time
	LocationBoxID int
	BoxID         int
}

// BookingRequest books a class for a membership.
type BookingRequest struct {
	ScheduleID       int
	MembershipUserID int
	// Extras is passed through untouched; nil is sent as JSON null.
	Extras json.RawMessage
}

// CancelRequest removes a booking.
type CancelRequest struct {
	ScheduleID     int
	ScheduleUserID int
	LateCancel     bool
}

// FormatTimestamp renders t the way the schedule endpoint expects it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type scheduleBody struct {
	From           string `json:"from"`
	To             string `json:"to"`
	LocationsBoxID int    `json:"locations_box_id"`
	BoxesID        int    `json:"boxes_id"`
}

type bookingBody struct {
	ScheduleID       int `json:"schedule_id"`
	MembershipUserID int `json:"membership_user_id"`
	Extras           any `json:"extras"`
}

type cancelBody struct {
	ScheduleUserID int  `json:"schedule_user_id"`
	ScheduleID     int  `json:"schedule_id"`
	LateCancel     bool `json:"late_cancel"`
}
