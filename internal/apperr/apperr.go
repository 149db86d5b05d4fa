// Package apperr defines the error kinds shared by the CLI, the HTTP API and
// the background jobs.
//
// Every failure is scoped to one user-initiated action. The kind decides how
// it is surfaced: a message on the terminal, an HTTP status, or an entry in a
// batch report.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Unknown is the kind of errors that were never classified.
	Unknown Kind = iota
	// InvalidInput covers malformed postcodes, clock strings and request bodies.
	InvalidInput
	// NotFound covers unresolvable postcodes and missing records.
	NotFound
	// NetworkFailure covers failed or non-2xx calls to external services.
	NetworkFailure
	// PersistenceFailure covers database and cache write failures.
	PersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case NotFound:
		return "not found"
	case NetworkFailure:
		return "network failure"
	case PersistenceFailure:
		return "persistence failure"
	default:
		return "unknown"
	}
}

// Error is a classified error. Message is safe to show to end users; Err holds
// the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error without a cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the user-facing message for err, falling back to a
// generic one for unclassified errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "something went wrong, please try again"
}
