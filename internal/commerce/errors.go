package commerce

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a commerce error for transport-layer status mapping
// and for deciding execution-mode behavior (atomic vs partial plan runs).
type ErrorKind string

const (
	ErrValidation     ErrorKind = "validation"
	ErrNotFound       ErrorKind = "not_found"
	ErrConflict       ErrorKind = "conflict"
	ErrClarification  ErrorKind = "clarification"
	ErrRateLimited    ErrorKind = "rate_limited"
	ErrUpstream       ErrorKind = "upstream"
	ErrSuppressed     ErrorKind = "suppressed"
	ErrInternal       ErrorKind = "internal"
)

// Error is the commerce domain's error type. Kind drives how the
// orchestrator and voice control loop react; the wrapped Err (if any)
// carries the underlying cause for logging. Options is populated only
// for ErrClarification, capped at 3 choices for the shopper to pick from.
type Error struct {
	Kind    ErrorKind
	Message string
	Options []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error with no wrapped cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error wrapping cause.
func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NewClarification builds an ErrClarification, capping options at 3 as
// the wire protocol's `{code:"CLARIFICATION_REQUIRED", options}` shape expects.
func NewClarification(message string, options []string) *Error {
	if len(options) > 3 {
		options = options[:3]
	}
	return &Error{Kind: ErrClarification, Message: message, Options: options}
}

// IsClarification reports whether err represents an agent needing more
// information from the shopper before it can act.
func IsClarification(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == ErrClarification
}

// Kind extracts the ErrorKind of err, or ErrInternal if err is not an *Error.
func Kind(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrInternal
}
