// Package flame defines the wire types and error taxonomy shared by every
// other Flame package: sessions, tasks, applications and object references.
package flame

import (
	"errors"
	"fmt"
)

// Code enumerates the Flame error taxonomy. Every failure the SDK surfaces
// to callers carries one of these codes.
type Code string

const (
	// CodeInvalidConfig indicates bad addresses, missing config keys, or an
	// unsupported URL scheme.
	CodeInvalidConfig Code = "invalid_config"
	// CodeInvalidArgument indicates a malformed request, wrong common_data
	// type, or a missing/non-callable method.
	CodeInvalidArgument Code = "invalid_argument"
	// CodeInvalidState indicates an operation on a closed session, an
	// open_session spec mismatch, or an incompatible stateful/class pairing.
	CodeInvalidState Code = "invalid_state"
	// CodeNotFound indicates a missing session, application, or task.
	CodeNotFound Code = "not_found"
	// CodeInternal indicates a transport failure, cache failure,
	// serialization failure, or a user-code exception.
	CodeInternal Code = "internal"
)

// Error is the single public failure type returned by the SDK. Transport and
// storage failures are always wrapped into one of these before reaching
// caller code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("flame: %s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("flame: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that carries cause as its wrapped error. Used at RPC
// and object-cache boundaries to convert transport failures into the single
// public failure type without losing the original error for logging.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// AsError reports whether err is, or wraps, a *Error, returning it if so.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
