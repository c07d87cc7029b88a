package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures so transports can map them to stable codes.
type Kind string

const (
	KindValidation         Kind = "validation_failed"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindUnauthorized       Kind = "unauthorized"
	KindConflict           Kind = "conflict"
	KindNotAvailable       Kind = "not_available"
	KindDurationExceeded   Kind = "duration_exceeded"
	KindScheduleIncomplete Kind = "schedule_incomplete"
	KindCapacityExhausted  Kind = "capacity_exhausted"
)

// Sentinels for errors.Is checks. Concrete errors carry more context but match these.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "conflict"}
	ErrNotAvailable       = &Error{Kind: KindNotAvailable, Message: "quiz is not available at this time"}
	ErrDurationExceeded   = &Error{Kind: KindDurationExceeded, Message: "quiz duration exceeded"}
	ErrScheduleIncomplete = &Error{Kind: KindScheduleIncomplete, Message: "quiz scheduling data is incomplete"}
	ErrCapacityExhausted  = &Error{Kind: KindCapacityExhausted, Message: "access code space exhausted"}

	// ErrAccessCodeTaken is returned by stores when the unique constraint on access code fires.
	ErrAccessCodeTaken = errors.New("access code already in use")
)

// Error is a classified failure. Field names the offending input for validation errors.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation builds a validation error for a specific input field.
func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// NotFound builds a not-found error for the named entity.
func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Forbidden builds a forbidden error with a user-facing reason.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, or "" when it is unclassified.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
