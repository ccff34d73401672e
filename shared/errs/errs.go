package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Validation     Kind = "validation"
	Authentication Kind = "authentication"
	Authorization  Kind = "authorization"
	NotFound       Kind = "not_found"
	Conflict       Kind = "conflict"
	Configuration  Kind = "configuration"
	Upstream       Kind = "upstream"
)

// Error is the domain error carried from services up to the HTTP layer.
// Status overrides the default status of Kind when non-zero.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so package-level
// sentinels work with errors.Is after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validationf(format string, args ...any) *Error {
	return New(Validation, fmt.Sprintf(format, args...))
}

// UpstreamWithStatus wraps a third-party failure that reported its own status.
func UpstreamWithStatus(status int, message string, err error) *Error {
	return &Error{Kind: Upstream, Message: message, Status: status, Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// StatusOf maps an error to an HTTP status code. Unknown errors are 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case Validation, Conflict:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
