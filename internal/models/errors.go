package models

import (
	"errors"
	"fmt"
)

// ReasonCode is a stable, machine-readable code returned to API clients so
// they can react to specific failures (prompt seat reselection, show
// "booking closed", and so on) without parsing error strings.
type ReasonCode string

const (
	ReasonValidation       ReasonCode = "VALIDATION"
	ReasonPastDate         ReasonCode = "PAST_DATE"
	ReasonFutureDate       ReasonCode = "FUTURE_DATE"
	ReasonSameDayOpen      ReasonCode = "SAME_DAY_OPEN"
	ReasonDeparted         ReasonCode = "DEPARTED"
	ReasonSeatConflict     ReasonCode = "SEAT_CONFLICT"
	ReasonIntentExpired    ReasonCode = "INTENT_EXPIRED"
	ReasonIntentTerminal   ReasonCode = "INTENT_TERMINAL"
	ReasonAlreadyPaid      ReasonCode = "ALREADY_PAID"
	ReasonInvalidSignature ReasonCode = "INVALID_SIGNATURE"
	ReasonGatewayError     ReasonCode = "GATEWAY_ERROR"
	ReasonNotFound         ReasonCode = "NOT_FOUND"
	ReasonForbidden        ReasonCode = "FORBIDDEN"
)

// BookingError carries a reason code alongside a human-readable message.
// Handlers translate the code into an HTTP status; the message is safe to
// return to clients (integrity failures use a generic message and log the
// details server-side instead).
type BookingError struct {
	Code    ReasonCode
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBookingError creates a BookingError with the given code and message.
func NewBookingError(code ReasonCode, format string, args ...interface{}) *BookingError {
	return &BookingError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsBookingError unwraps err into a *BookingError if possible.
func AsBookingError(err error) (*BookingError, bool) {
	var be *BookingError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// Sentinel errors shared across repositories and services.
var (
	// ErrSeatConflict is returned when the storage layer rejects a ticket
	// because another non-cancelled ticket already holds the seat key.
	// Expected under concurrency; translated to HTTP 409.
	ErrSeatConflict = &BookingError{Code: ReasonSeatConflict, Message: "seat is already booked for this train and date"}

	ErrTrainNotFound  = &BookingError{Code: ReasonNotFound, Message: "train not found"}
	ErrIntentNotFound = &BookingError{Code: ReasonNotFound, Message: "booking intent not found"}
	ErrTicketNotFound = &BookingError{Code: ReasonNotFound, Message: "ticket not found"}
)
