package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingIntentStatus is the lifecycle status of a booking intent.
// Matches PostgreSQL ENUM: booking_intent_status.
type BookingIntentStatus string

const (
	// IntentPaymentPending is the only non-terminal state: the seat is
	// soft-held while the user completes checkout.
	IntentPaymentPending BookingIntentStatus = "PAYMENT_PENDING"
	// IntentConfirmed is terminal-success; the intent is linked to exactly
	// one ticket.
	IntentConfirmed BookingIntentStatus = "CONFIRMED"
	// IntentExpired and IntentFailed are terminal-failure; the user must
	// create a fresh booking to get a new intent.
	IntentExpired BookingIntentStatus = "EXPIRED"
	IntentFailed  BookingIntentStatus = "FAILED"
)

// IsTerminalIntentStatus reports whether no further transitions are allowed.
func IsTerminalIntentStatus(s BookingIntentStatus) bool {
	return s == IntentConfirmed || s == IntentExpired || s == IntentFailed
}

// BookingIntent represents "a user wants to buy seat X on train Y for date Z"
// before payment. Rows are never deleted; they are the audit trail of every
// purchase attempt.
//
// The expiry acts as an advisory soft seat hold: competing intents for the
// same seat key may coexist, and only one can ever become a ticket because
// ticket creation re-checks seat occupancy under the storage uniqueness
// constraint.
type BookingIntent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserEmail  string    `json:"user_email" db:"user_email"`
	TrainID    int64     `json:"train_id" db:"train_id"`
	TravelDate time.Time `json:"travel_date" db:"travel_date"`
	SeatNo     string    `json:"seat_no" db:"seat_no"`
	Amount     float64   `json:"amount" db:"amount"`

	Status         BookingIntentStatus `json:"status" db:"status"`
	GatewayOrderID *string             `json:"gateway_order_id,omitempty" db:"gateway_order_id"`
	TicketID       *int64              `json:"ticket_id,omitempty" db:"ticket_id"`

	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired checks the advisory hold against the supplied clock. Expiry is
// evaluated lazily on read; there is no background sweep.
func (i *BookingIntent) IsExpired(now time.Time) bool {
	return i.Status == IntentPaymentPending && now.After(i.ExpiresAt)
}

// ValidationResult is the outcome of re-validating an intent before payment.
type ValidationResult struct {
	OK     bool       `json:"ok"`
	Reason ReasonCode `json:"reasonCode,omitempty"`
}

// CreateOrderRequest is the request schema for POST /payment/create-order.
type CreateOrderRequest struct {
	IntentID string `json:"intentId" binding:"required,uuid"`
}

// CreateOrderResponse echoes the gateway order for the client checkout step.
type CreateOrderResponse struct {
	OrderID  string  `json:"orderId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// VerifyPaymentRequest is the request schema for POST /payment/verify.
type VerifyPaymentRequest struct {
	IntentID         string `json:"intentId" binding:"required,uuid"`
	GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// PaymentFailureRequest is the request schema for POST /payment/failure and
// POST /payment/simulate.
type PaymentFailureRequest struct {
	IntentID string `json:"intentId" binding:"required,uuid"`
}
