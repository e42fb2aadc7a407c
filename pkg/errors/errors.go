package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error. Handlers map kinds to HTTP statuses;
// services return kinds, never statuses.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindDoctorUnavailable      Kind = "doctor_unavailable"
	KindDateOutOfRange         Kind = "date_out_of_range"
	KindSlotUnavailable        Kind = "slot_unavailable"
	KindDuplicateDoctorBooking Kind = "duplicate_doctor_booking"
	KindPatientTimeConflict    Kind = "patient_time_conflict"
	KindIllegalTransition      Kind = "illegal_transition"
	KindNotFound               Kind = "not_found"
	KindForbidden              Kind = "forbidden"
	KindUnauthorized           Kind = "unauthorized"
	KindConflict               Kind = "conflict"
	KindInternal               Kind = "internal"
)

// AppError represents an application error with a machine-readable kind.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func DoctorUnavailable() *AppError {
	return &AppError{Kind: KindDoctorUnavailable, Message: "doctor is not available for booking"}
}

func DateOutOfRange() *AppError {
	return &AppError{Kind: KindDateOutOfRange, Message: "date must be within the next 7 days (no same-day booking)"}
}

func SlotUnavailable() *AppError {
	return &AppError{Kind: KindSlotUnavailable, Message: "selected slot is not available"}
}

func DuplicateDoctorBooking() *AppError {
	return &AppError{Kind: KindDuplicateDoctorBooking, Message: "you already have a future booked appointment with this doctor"}
}

func PatientTimeConflict() *AppError {
	return &AppError{Kind: KindPatientTimeConflict, Message: "you already have another appointment at this time"}
}

func IllegalTransition(from, to string) *AppError {
	return &AppError{
		Kind:    KindIllegalTransition,
		Message: fmt.Sprintf("cannot change appointment status from %s to %s", from, to),
	}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}
