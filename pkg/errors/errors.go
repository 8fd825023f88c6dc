package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Details
// carries a structured payload for errors that need more than a message,
// such as the conflicting entry behind a placement rejection.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. The four conflict-axis codes and
// the two referential mismatches are distinct so callers can render
// field-specific messages without string matching.
var (
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrConflict             = New("CONFLICT", http.StatusConflict, "conflict")
	ErrClassConflict        = New("CLASS_CONFLICT", http.StatusConflict, "class already scheduled for this slot")
	ErrTeacherConflict      = New("TEACHER_CONFLICT", http.StatusConflict, "teacher already scheduled for this slot")
	ErrRoomConflict         = New("ROOM_CONFLICT", http.StatusConflict, "room already booked for this slot")
	ErrPeriodDayMismatch    = New("PERIOD_DAY_MISMATCH", http.StatusUnprocessableEntity, "entry day does not match the period's day of week")
	ErrSubjectClassMismatch = New("SUBJECT_CLASS_MISMATCH", http.StatusUnprocessableEntity, "subject does not belong to the entry's class")
	ErrDuplicatePeriod      = New("DUPLICATE_PERIOD", http.StatusConflict, "a period with the same day and time range already exists")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss            = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
