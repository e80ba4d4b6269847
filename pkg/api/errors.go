package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the backend. Message holds the backend's
// own message and is empty when the body carried none.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// BackendMessage returns the message the backend attached to err, if any.
func BackendMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsUnauthorized reports whether the backend rejected the session token.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
