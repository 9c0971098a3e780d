// Package apperr defines the error kinds every core operation reports.
//
// Domain errors wrap exactly one of the kind sentinels so callers can
// branch with errors.Is without knowing the concrete error. Anything that
// wraps none of them is an internal failure.
package apperr

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrDependency = errors.New("dependency failure")
)

// Kind names the category of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrDependency):
		return "dependency"
	default:
		return "internal"
	}
}

// IsDomain reports whether err is one of the expected domain rejections.
func IsDomain(err error) bool {
	k := Kind(err)
	return k != "ok" && k != "internal"
}

// Error is a domain error with its own message and one kind.
type Error struct {
	kind error
	msg  string
}

// New returns an error that reports msg and matches kind with errors.Is.
func New(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }
