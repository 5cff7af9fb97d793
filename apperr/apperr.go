// Package apperr defines the error kinds every resource operation resolves to
// and the deterministic mapping from kind to HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport layer
type Kind int

// Error kinds
const (
	InternalError Kind = iota
	InvalidInput
	Unauthorized
	Forbidden
	NotFound
	Conflict
	QuotaExceeded
	InvalidCredentials
	Expired
	PartialFailure
	InconsistentState
)

var kindNames = map[Kind]string{
	InternalError:      "internal error",
	InvalidInput:       "invalid input",
	Unauthorized:       "unauthorized",
	Forbidden:          "forbidden",
	NotFound:           "not found",
	Conflict:           "conflict",
	QuotaExceeded:      "quota exceeded",
	InvalidCredentials: "invalid credentials",
	Expired:            "expired",
	PartialFailure:     "partial failure",
	InconsistentState:  "inconsistent state",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a categorized error. Message is safe to show to callers, Err is not.
type Error struct {
	Kind    Kind
	Message string
	// Failed lists the ids a PartialFailure could not process
	Failed []string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind that keeps err for logging
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Partial returns a PartialFailure naming the ids that could not be processed
func Partial(message string, failed []string) *Error {
	return &Error{Kind: PartialFailure, Message: message, Failed: failed}
}

// KindOf classifies err. Errors that were never categorized are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}

// MessageOf returns the caller-safe message of err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// FailedOf returns the ids attached to a PartialFailure, if any
func FailedOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Failed
	}
	return nil
}

// Status maps a kind to the HTTP status code returned to clients
func Status(kind Kind) int {
	switch kind {
	case InvalidInput, Conflict, QuotaExceeded, InvalidCredentials, Expired:
		return http.StatusBadRequest
	case Unauthorized, Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
