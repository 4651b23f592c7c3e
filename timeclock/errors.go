package timeclock

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure at the domain boundary. Only the web
// layer translates kinds into HTTP statuses; the engine itself never sees
// transport codes.
type ErrorKind string

const (
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindPermissionDenied   ErrorKind = "permission-denied"
	KindNotFound           ErrorKind = "not-found"
	KindInvalidArgument    ErrorKind = "invalid-argument"
	KindFailedPrecondition ErrorKind = "failed-precondition"
	KindInternal           ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap marks an unexpected store or infrastructure failure as internal.
func Wrap(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: err}
}

// KindOf extracts the kind from any error chain. Unclassified errors are
// internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
