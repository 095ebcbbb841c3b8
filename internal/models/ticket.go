package models

import (
	"fmt"
	"time"
)

// BookingStatus is the lifecycle status of a ticket.
// PAYMENT_PENDING and PAYMENT_FAILED exist only for the legacy direct-booking
// path; tickets created through the intent flow are born CONFIRMED.
type BookingStatus string

const (
	BookingPaymentPending BookingStatus = "PAYMENT_PENDING"
	BookingConfirmed      BookingStatus = "CONFIRMED"
	BookingCancelled      BookingStatus = "CANCELLED"
	BookingPaymentFailed  BookingStatus = "PAYMENT_FAILED"
)

// PaymentStatus is the payment state recorded on a ticket.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Ticket is the sellable artifact. Its identity (ID, PNR) never changes
// after creation. Cancellation clears SeatNo (releasing the seat key for
// re-sale) but retains the row for history.
//
// Seat exclusivity is enforced by a partial unique index on
// (train_id, travel_date, seat_no) over non-cancelled rows; application code
// treats the resulting conflict error as the synchronization signal, not a
// pre-check.
type Ticket struct {
	ID         int64         `json:"id" db:"id"`
	UserEmail  string        `json:"user_email" db:"user_email"`
	TrainID    int64         `json:"train_id" db:"train_id"`
	TravelDate time.Time     `json:"travel_date" db:"travel_date"`
	SeatNo     *string       `json:"seat_no" db:"seat_no"` // NULL once cancelled
	Price      float64       `json:"price" db:"price"`
	PNR        string        `json:"pnr" db:"pnr"`
	Status     BookingStatus `json:"status" db:"status"`
	PayStatus  PaymentStatus `json:"payment_status" db:"payment_status"`

	GatewayOrderID   *string `json:"gateway_order_id,omitempty" db:"gateway_order_id"`
	GatewayPaymentID *string `json:"gateway_payment_id,omitempty" db:"gateway_payment_id"`

	// DedupKey identifies the logical purchase (user|train|date|seat) so a
	// duplicate confirmation can be recognised independent of the intent id.
	DedupKey string `json:"-" db:"dedup_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsLive reports whether the ticket still holds its seat key.
func (t *Ticket) IsLive() bool {
	return t.Status != BookingCancelled && t.SeatNo != nil
}

// QRPayload is the content encoded into the ticket QR/barcode by the
// rendering service.
func (t *Ticket) QRPayload() string {
	return fmt.Sprintf("%d|%s", t.ID, t.PNR)
}

// SeatDedupKey builds the idempotency key for a logical purchase.
func SeatDedupKey(email string, trainID int64, travelDate time.Time, seatNo string) string {
	return fmt.Sprintf("%s|%d|%s|%s", email, trainID, travelDate.Format("2006-01-02"), seatNo)
}

// BookTicketRequest is the request schema for POST /book-ticket. Unknown
// shapes are rejected at the boundary before they reach the state machine.
type BookTicketRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	TrainID    int64   `json:"trainId" binding:"required"`
	TravelDate string  `json:"travelDate" binding:"required"` // YYYY-MM-DD
	SeatNo     string  `json:"seatNo" binding:"required"`
	Price      float64 `json:"price" binding:"required,gt=0"`
}

// BookTicketResponse is returned from POST /book-ticket. Either a new intent
// was created (IntentID set) or the caller already holds a live ticket for
// this exact seat key and the existing ticket is echoed back.
type BookTicketResponse struct {
	IntentID  string    `json:"intentId,omitempty"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Ticket    *Ticket   `json:"ticket,omitempty"`
}

// DirectBookRequest is the legacy direct-booking request (no intent, no
// gateway). Retained for backward compatibility.
type DirectBookRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	TrainID    int64   `json:"trainId" binding:"required"`
	TravelDate string  `json:"travelDate" binding:"required"`
	SeatNo     string  `json:"seatNo" binding:"required"`
	Price      float64 `json:"price" binding:"required,gt=0"`
}

// CancelTicketRequest identifies the owner on POST /tickets/:id/cancel.
type CancelTicketRequest struct {
	Email string `json:"email" binding:"required,email"`
}
