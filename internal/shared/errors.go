package shared

import (
	"errors"
	"fmt"
)

// SessionExpiredMessage is shown wherever a lost session sends the user back to login.
const SessionExpiredMessage = "Session expired. Please log in again."

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired, please log in again")
	ErrInvalidToken     = fmt.Errorf("invalid session token")
	ErrForbidden        = fmt.Errorf("insufficient permissions")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Export errors
	ErrNoData        = fmt.Errorf("no data to export")
	ErrUnknownFormat = fmt.Errorf("unknown export format")
)

// IsUnauthenticated reports whether err means the user has to log in (again).
//
// An expired token and a missing token are the same state.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrSessionExpired)
}
