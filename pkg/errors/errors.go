package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the different classes of failure in a crawl
type ErrorType string

const (
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeInput       ErrorType = "input"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeDiscovery   ErrorType = "discovery"
	ErrorTypeProfileLoad ErrorType = "profile_load"
	ErrorTypeLedger      ErrorType = "ledger"
	ErrorTypeSession     ErrorType = "session"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error carries a failure class alongside the underlying cause
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without a cause
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// Wrap creates a typed error around err
func Wrap(t ErrorType, msg string, err error) *Error {
	return &Error{Type: t, Message: msg, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsFatal checks if an error must abort the run. Everything else is
// converted into a skip or a recorded decision.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch TypeOf(err) {
	case ErrorTypeInput, ErrorTypeLedger:
		return true
	default:
		return false
	}
}
