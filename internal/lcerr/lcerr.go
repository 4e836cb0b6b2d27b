// Package lcerr defines the internal error taxonomy LC components use to
// classify failures (spec §7), so callers like the command handler can
// branch on kind instead of parsing error text.
package lcerr

import (
	"errors"
	"fmt"
)

// Kind classifies an internal error.
type Kind uint8

const (
	LengthMismatch Kind = iota
	InvalidIndex
	InvalidEnum
	InvalidStateTransition
	FieldReadFault
	RPNMalformed
	RPNRuntime
	CustomPredicateFault
)

func (k Kind) String() string {
	switch k {
	case LengthMismatch:
		return "LengthMismatch"
	case InvalidIndex:
		return "InvalidIndex"
	case InvalidEnum:
		return "InvalidEnum"
	case InvalidStateTransition:
		return "InvalidStateTransition"
	case FieldReadFault:
		return "FieldReadFault"
	case RPNMalformed:
		return "RPNMalformed"
	case RPNRuntime:
		return "RPNRuntime"
	case CustomPredicateFault:
		return "CustomPredicateFault"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a classification kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
