// Package errors defines the client-side error kinds surfaced by the wizard:
// validation failures caught before any request is sent, and API failures
// carrying the server-provided detail message.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ValidationError is a client-side input failure, caught before a request
// is dispatched
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// APIError is a failed remote call. Detail carries the server-provided
// message, which may span multiple lines.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return e.Detail
}

// NewAPI creates an APIError
func NewAPI(statusCode int, detail string) *APIError {
	return &APIError{StatusCode: statusCode, Detail: detail}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// IsAPI reports whether err is an APIError
func IsAPI(err error) bool {
	var ae *APIError
	return stderrors.As(err, &ae)
}
