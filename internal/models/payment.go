package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentLedgerEntry is an append-only record of a payment-gateway
// transaction tied to a ticket. Used for revenue reporting, never for
// authorization. Duplicate inserts for the same gateway payment id are
// ignored at the storage layer.
type PaymentLedgerEntry struct {
	ID               int64     `json:"id" db:"id"`
	TicketID         int64     `json:"ticket_id" db:"ticket_id"`
	GatewayPaymentID string    `json:"gateway_payment_id" db:"gateway_payment_id"`
	GatewayOrderID   string    `json:"gateway_order_id" db:"gateway_order_id"`
	Amount           float64   `json:"amount" db:"amount"`
	Status           string    `json:"status" db:"status"` // "captured", "failed"
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

const (
	LedgerCaptured = "captured"
	LedgerFailed   = "failed"
)

// PaymentEventType classifies payment audit entries.
type PaymentEventType string

const (
	PaymentEventOrderCreated PaymentEventType = "order_created"
	PaymentEventVerified     PaymentEventType = "verified"
	PaymentEventSignatureBad PaymentEventType = "signature_mismatch"
	PaymentEventConflict     PaymentEventType = "seat_conflict"
	PaymentEventFailure      PaymentEventType = "failure_reported"
	PaymentEventSimulated    PaymentEventType = "simulated"
)

// PaymentAudit records one payment-flow attempt with enough client context
// to investigate disputes and probe attempts. Written best-effort; an audit
// failure never blocks the flow it describes.
type PaymentAudit struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	IntentID      *uuid.UUID       `json:"intent_id,omitempty" db:"intent_id"`
	EventType     PaymentEventType `json:"event_type" db:"event_type"`
	Outcome       string           `json:"outcome" db:"outcome"` // "ok" or "rejected"
	ErrorCode     *string          `json:"error_code,omitempty" db:"error_code"`
	IPAddress     string           `json:"ip_address" db:"ip_address"`
	ClientOS      string           `json:"client_os" db:"client_os"`
	ClientBrowser string           `json:"client_browser" db:"client_browser"`
	CorrelationID uuid.UUID        `json:"correlation_id" db:"correlation_id"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// ClientMeta is the request-level context (extracted in handlers) attached
// to payment audit rows.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// VerifyPaymentResponse is returned from POST /payment/verify and
// POST /payment/simulate.
type VerifyPaymentResponse struct {
	Success   bool    `json:"success"`
	Simulated bool    `json:"simulated,omitempty"`
	Ticket    *Ticket `json:"ticket,omitempty"`
}

// RevenueReport aggregates the ledger for the operator dashboard.
type RevenueReport struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Transactions int64     `json:"transactions"`
	TotalAmount  float64   `json:"total_amount"`
}
