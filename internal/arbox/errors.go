package arbox

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned before any request is sent when a call
// needs tokens the caller does not have.
var ErrNotAuthenticated = errors.New("not logged in or missing access token")

var errInvalidJSON = errors.New("body is not valid JSON")

// APIError reports a response with a status other than 200. Body holds the
// raw response text.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, e.Body)
}

// IsRejected reports whether err carries an APIError with the given status.
// A zero status matches any rejection.
func IsRejected(err error, status int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return status == 0 || apiErr.StatusCode == status
}
