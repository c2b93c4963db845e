package mailing

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is returned when no template row matches the
// requested slug. Dispatch short-circuits before any provider call.
var ErrTemplateNotFound = errors.New("email template not found")

// ValidationError reports a missing or malformed request field. It is
// surfaced as a 4xx response before any external call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProviderError reports a rejected or failed send at the external email
// API. The attempt is still logged with status failed.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// PersistenceError reports a failed database read or write on the
// primary operation path.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
