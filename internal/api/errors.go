package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a failed API call. Expected failures are returned as *Error so
// callers can branch on the HTTP status; anything else (transport, decode)
// surfaces as a plain wrapped error.
type Error struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed (status %d)", e.StatusCode)
}

// UserMessage flattens the backend message and any field validation errors
// into a single line suitable for display.
func (e *Error) UserMessage() string {
	if len(e.Fields) > 0 {
		var parts []string
		for _, msgs := range e.Fields {
			parts = append(parts, msgs...)
		}
		return strings.Join(parts, ", ")
	}
	return e.Message
}

func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ErrorMessage extracts the backend-provided message when err is an *Error,
// falling back to the supplied default.
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
