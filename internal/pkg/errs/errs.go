/*
Package errs provides the client's error taxonomy and classification helpers.

This file defines the Error struct, which implements the standard Go error interface
and carries a Kind, the originating HTTP status (when there was one), a user-friendly
message, and the wrapped underlying error.
*/
package errs

import (
	"errors"
	"fmt"
)

// Error is the classified error structure used throughout the client.
// It wraps the Go error interface, adding a Kind and the HTTP status that produced it.
type Error struct {
	// Kind is the taxonomy value consumed by fallback UIs (see Kind constants).
	Kind Kind

	// Status is the HTTP status code that produced this error, or 0 when
	// no response was involved (missing token, transport failure).
	Status int

	// Message is the user-friendly error description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the standard Go error interface. It returns a formatted
// error string containing the kind, HTTP status, and message.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (HTTP %d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a classified error of the given kind with the kind's
// default user-facing message.
func New(kind Kind) *Error {
	template, ok := kindMap[kind]
	if !ok {
		template = kindMap[KindNetwork]
	}

	return &Error{
		Kind:    template.Kind,
		Status:  template.Status,
		Message: template.Message,
	}
}

// Wrap constructs a classified error of the given kind carrying err as its cause.
func Wrap(kind Kind, err error) *Error {
	e := New(kind)
	e.Err = err
	return e
}

// FromStatus classifies a non-2xx HTTP status code into an Error.
// The returned error records the exact status alongside the kind.
func FromStatus(status int) *Error {
	e := New(Classify(status))
	e.Status = status
	return e
}

// KindOf extracts the Kind from any error. Errors that do not carry a
// classification are reported as KindNetwork: any failure during a fetch or
// decode that we could not classify is, from the UI's point of view, a
// transport problem.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	return KindNetwork
}
