package queue

import "time"

// TicketConfirmedEvent is emitted after a ticket is confirmed and paid.
// Consumed by downstream services (PDF rendering, analytics).
type TicketConfirmedEvent struct {
	TicketID   int64     `json:"ticket_id"`
	PNR        string    `json:"pnr"`
	UserEmail  string    `json:"user_email"`
	TrainID    int64     `json:"train_id"`
	TravelDate string    `json:"travel_date"`
	SeatNo     string    `json:"seat_no"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TicketCancelledEvent is emitted after a ticket cancellation releases a seat.
type TicketCancelledEvent struct {
	TicketID   int64     `json:"ticket_id"`
	PNR        string    `json:"pnr"`
	TrainID    int64     `json:"train_id"`
	TravelDate string    `json:"travel_date"`
	OccurredAt time.Time `json:"occurred_at"`
}
