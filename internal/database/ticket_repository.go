package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/railswift/booking-backend/internal/models"
)

// TicketRepository handles ticket database operations
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `
	id, user_email, train_id, travel_date, seat_no, price, pnr,
	status, payment_status, gateway_order_id, gateway_payment_id,
	dedup_key, created_at`

// Create inserts a new ticket row. The partial unique index on
// (train_id, travel_date, seat_no) decides seat ownership; a losing
// insert surfaces as models.ErrSeatConflict.
func (r *TicketRepository) Create(ticket *models.Ticket) error {
	ticket.CreatedAt = time.Now()

	query := `
		INSERT INTO tickets (
			user_email, train_id, travel_date, seat_no, price, pnr,
			status, payment_status, gateway_order_id, gateway_payment_id,
			dedup_key, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id`

	err := r.db.QueryRow(query,
		ticket.UserEmail, ticket.TrainID, ticket.TravelDate, ticket.SeatNo,
		ticket.Price, ticket.PNR, ticket.Status, ticket.PayStatus,
		ticket.GatewayOrderID, ticket.GatewayPaymentID,
		ticket.DedupKey, ticket.CreatedAt,
	).Scan(&ticket.ID)
	if err != nil {
		if IsUniqueViolation(err, seatExclusivityConstraint) {
			return models.ErrSeatConflict
		}
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetByID retrieves a ticket by ID. Returns nil when no ticket exists.
func (r *TicketRepository) GetByID(ticketID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	err := r.db.Get(&ticket, query, ticketID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByPNR retrieves a ticket by its PNR
func (r *TicketRepository) GetByPNR(pnr string) (*models.Ticket, error) {
	var ticket models.Ticket
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE pnr = $1`

	err := r.db.Get(&ticket, query, pnr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetLiveByDedupKey finds the live ticket matching a dedup key, if any.
// Cancelled tickets never match.
func (r *TicketRepository) GetLiveByDedupKey(dedupKey string) (*models.Ticket, error) {
	var ticket models.Ticket
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE dedup_key = $1 AND status <> 'CANCELLED'
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.Get(&ticket, query, dedupKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListByEmail returns all tickets for a passenger, newest first
func (r *TicketRepository) ListByEmail(email string) ([]models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_email = $1
		ORDER BY created_at DESC`

	tickets := make([]models.Ticket, 0)
	if err := r.db.Select(&tickets, query, email); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Cancel marks a confirmed ticket cancelled and releases its seat by
// nulling seat_no, which frees the slot under the partial unique index.
func (r *TicketRepository) Cancel(ticketID int64) error {
	query := `
		UPDATE tickets
		SET status = 'CANCELLED', seat_no = NULL
		WHERE id = $1 AND status = 'CONFIRMED'`

	result, err := r.db.Exec(query, ticketID)
	if err != nil {
		return fmt.Errorf("failed to cancel ticket: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.NewBookingError(models.ReasonIntentTerminal, "ticket is not in a cancellable state")
	}
	return nil
}

// MarkPaymentFailed flips a pending ticket's payment status to FAILED.
// Only PENDING rows are touched; a paid ticket never regresses.
func (r *TicketRepository) MarkPaymentFailed(ticketID int64) error {
	query := `
		UPDATE tickets
		SET payment_status = 'FAILED'
		WHERE id = $1 AND payment_status = 'PENDING'`

	_, err := r.db.Exec(query, ticketID)
	return err
}

// CountBookedSeats returns the number of live seats for a train on a travel date
func (r *TicketRepository) CountBookedSeats(trainID int64, travelDate time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM tickets
		WHERE train_id = $1
		  AND travel_date = $2
		  AND status <> 'CANCELLED'
		  AND seat_no IS NOT NULL`

	if err := r.db.Get(&count, query, trainID, travelDate); err != nil {
		return 0, err
	}
	return count, nil
}

// SeatTaken reports whether any live ticket holds the seat key. Advisory
// only; the unique index remains the authority at insert time.
func (r *TicketRepository) SeatTaken(trainID int64, travelDate time.Time, seatNo string) (bool, error) {
	var taken bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM tickets
			WHERE train_id = $1 AND travel_date = $2 AND seat_no = $3
			  AND status <> 'CANCELLED'
		)`
	err := r.db.Get(&taken, query, trainID, travelDate, seatNo)
	return taken, err
}

// PNRExists reports whether a PNR is already assigned
func (r *TicketRepository) PNRExists(pnr string) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM tickets WHERE pnr = $1)`, pnr)
	return exists, err
}
