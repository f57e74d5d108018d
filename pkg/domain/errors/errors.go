// Package errors defines the error taxonomy of kagami's core:
// missing referents, invalid requests and conflicting writes.
//
// Mirror and cluster-client operations are thin: they classify errors with
// these types and propagate them, and never retry by themselves.
// Automatic recovery lives in the task manager only.
package errors

import (
	"errors"
	"fmt"

	xe "github.com/mikage-io/kagami/pkg/errors"
)

type wrappingError struct {
	message  string
	causedBy error
}

func as[E error](err error) bool {
	if err == nil {
		return false
	}
	p := new(E)
	return errors.As(err, p)
}

func format(e wrappingError) string {
	if e.causedBy == nil {
		return e.message
	}
	if e.message == "" {
		return fmt.Sprintf("caused by: %+v", e.causedBy)
	}
	return fmt.Sprintf("%s / caused by: %+v", e.message, e.causedBy)
}

// Referenced cluster, mirror row or live resource does not exist.
//
// Not retried, surfaced to the caller.
type ErrMissing wrappingError

var AsMissingError = as[*ErrMissing]

func NewMissing(message string) error {
	return xe.WrapAsOuter(&ErrMissing{message: message}, 1)
}

func NewMissingCausedBy(message string, err error) error {
	return xe.WrapAsOuter(&ErrMissing{message: message, causedBy: err}, 1)
}

func (e *ErrMissing) Error() string {
	return format(wrappingError(*e))
}

func (e *ErrMissing) Unwrap() error {
	return e.causedBy
}

// Malformed meta or filter (e.g. user id missing while the mirror
// enforces per-user scoping).
//
// Never retried.
type ErrInvalid wrappingError

var AsInvalidError = as[*ErrInvalid]

func NewInvalid(message string) error {
	return xe.WrapAsOuter(&ErrInvalid{message: message}, 1)
}

func NewInvalidCausedBy(message string, err error) error {
	return xe.WrapAsOuter(&ErrInvalid{message: message, causedBy: err}, 1)
}

func (e *ErrInvalid) Error() string {
	return format(wrappingError(*e))
}

func (e *ErrInvalid) Unwrap() error {
	return e.causedBy
}

// Write lost against a concurrent writer, or a resource exists already.
type ErrConflict wrappingError

var AsConflict = as[*ErrConflict]

func NewConflict(message string) error {
	return xe.WrapAsOuter(&ErrConflict{message: message}, 1)
}

func NewConflictCausedBy(message string, err error) error {
	return xe.WrapAsOuter(&ErrConflict{message: message, causedBy: err}, 1)
}

func (e *ErrConflict) Error() string {
	return format(wrappingError(*e))
}

func (e *ErrConflict) Unwrap() error {
	return e.causedBy
}
