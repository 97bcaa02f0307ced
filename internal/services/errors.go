package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/equipx/internal/shared"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	// Public is set for calls made without a session (login, register).
	Public bool
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.Status {
	case http.StatusNotFound:
		errs = append(errs, shared.ErrNotFound)
	case http.StatusForbidden:
		errs = append(errs, shared.ErrForbidden)
	case http.StatusUnauthorized:
		errs = append(errs, shared.ErrAuthFailed)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}

// newAPIError builds an APIError from a response body, preferring the
// backend's "message" field.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	msg := fmt.Sprintf("Request failed with status %d", status)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &APIError{Status: status, Message: msg}
}

// Message is the text to show a user for err: the backend's message when
// there is one, the error string otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
