package clinicerrors

import "fmt"

// kind classifies a failure so the API layer can map it to a response
// without parsing message text.
type kind int

const (
	kindPermissionDenied kind = iota + 1
	kindNotFound
	kindInvalidStateTransition
	kindInsufficientStock
	kindConcurrentModification
	kindValidation
)

// Error is a typed failure returned by the clinic core. Two Errors match
// under errors.Is when they carry the same kind, so call sites compare
// against the exported sentinels regardless of message text or wrapping.
type Error struct {
	kind kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// Sentinels for errors.Is checks.
var (
	ErrPermissionDenied       = &Error{kindPermissionDenied, "permission denied"}
	ErrNotFound               = &Error{kindNotFound, "not found"}
	ErrInvalidStateTransition = &Error{kindInvalidStateTransition, "invalid state transition"}
	ErrInsufficientStock      = &Error{kindInsufficientStock, "insufficient stock"}
	ErrConcurrentModification = &Error{kindConcurrentModification, "concurrent modification"}
	ErrValidation             = &Error{kindValidation, "validation failed"}
)

// PermissionDenied reports that the caller's role lacks the capability.
func PermissionDenied(format string, args ...interface{}) error {
	return &Error{kindPermissionDenied, fmt.Sprintf(format, args...)}
}

// NotFound reports that a referenced entity does not exist.
func NotFound(format string, args ...interface{}) error {
	return &Error{kindNotFound, fmt.Sprintf(format, args...)}
}

// InvalidStateTransition reports an operation against an entity that is not
// in the required source state.
func InvalidStateTransition(format string, args ...interface{}) error {
	return &Error{kindInvalidStateTransition, fmt.Sprintf(format, args...)}
}

// InsufficientStock reports that the requested quantity exceeds the current
// stock at reservation time.
func InsufficientStock(format string, args ...interface{}) error {
	return &Error{kindInsufficientStock, fmt.Sprintf(format, args...)}
}

// ConcurrentModification reports a lost optimistic-concurrency race; the
// caller should re-read and retry.
func ConcurrentModification(format string, args ...interface{}) error {
	return &Error{kindConcurrentModification, fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...interface{}) error {
	return &Error{kindValidation, fmt.Sprintf(format, args...)}
}
