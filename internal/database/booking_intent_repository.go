package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/railswift/booking-backend/internal/models"
)

// BookingIntentRepository handles booking intent database operations
type BookingIntentRepository struct {
	db *sqlx.DB
}

// NewBookingIntentRepository creates a new BookingIntentRepository
func NewBookingIntentRepository(db *sqlx.DB) *BookingIntentRepository {
	return &BookingIntentRepository{db: db}
}

const intentColumns = `
	id, user_email, train_id, travel_date, seat_no, amount,
	status, gateway_order_id, ticket_id,
	expires_at, created_at, updated_at`

// ============================================================================
// BOOKING INTENT CRUD OPERATIONS
// ============================================================================

// Create inserts a new booking intent in PAYMENT_PENDING state
func (r *BookingIntentRepository) Create(intent *models.BookingIntent) error {
	intent.ID = uuid.New()
	intent.Status = models.IntentPaymentPending
	intent.CreatedAt = time.Now()
	intent.UpdatedAt = intent.CreatedAt

	query := `
		INSERT INTO booking_intents (
			id, user_email, train_id, travel_date, seat_no, amount,
			status, expires_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.db.Exec(query,
		intent.ID, intent.UserEmail, intent.TrainID, intent.TravelDate,
		intent.SeatNo, intent.Amount, intent.Status,
		intent.ExpiresAt, intent.CreatedAt, intent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking intent: %w", err)
	}
	return nil
}

// GetByID retrieves an intent by ID. Returns nil when no intent exists.
func (r *BookingIntentRepository) GetByID(intentID uuid.UUID) (*models.BookingIntent, error) {
	var intent models.BookingIntent
	query := `SELECT ` + intentColumns + ` FROM booking_intents WHERE id = $1`

	err := r.db.Get(&intent, query, intentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// SetGatewayOrder records the gateway order id created for this intent
func (r *BookingIntentRepository) SetGatewayOrder(intentID uuid.UUID, orderID string) error {
	query := `
		UPDATE booking_intents
		SET gateway_order_id = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'PAYMENT_PENDING'`

	result, err := r.db.Exec(query, orderID, intentID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.NewBookingError(models.ReasonIntentTerminal, "intent is no longer awaiting payment")
	}
	return nil
}

// MarkExpired flips a pending intent to EXPIRED. Guarded so a concurrent
// confirmation is never overwritten; expiring an already-terminal intent is
// a no-op.
func (r *BookingIntentRepository) MarkExpired(intentID uuid.UUID) error {
	query := `
		UPDATE booking_intents
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE id = $1 AND status = 'PAYMENT_PENDING'`

	_, err := r.db.Exec(query, intentID)
	return err
}

// MarkFailed flips a pending intent to FAILED. Same guard as MarkExpired.
func (r *BookingIntentRepository) MarkFailed(intentID uuid.UUID) error {
	query := `
		UPDATE booking_intents
		SET status = 'FAILED', updated_at = NOW()
		WHERE id = $1 AND status = 'PAYMENT_PENDING'`

	_, err := r.db.Exec(query, intentID)
	return err
}

// ============================================================================
// CONFIRMATION (INTENT -> TICKET)
// ============================================================================

// ConvertToTicket atomically confirms an intent and materializes its ticket.
//
// The intent row is locked for the duration of the transaction so concurrent
// verify calls for the same intent serialize. If a previous call already
// linked a ticket, that ticket is returned unchanged after making sure its
// payment status is PAID, with replayed reporting true so callers can skip
// their one-shot side effects. Otherwise a new CONFIRMED/PAID ticket is
// inserted; the partial unique index on (train_id, travel_date, seat_no)
// arbitrates races between different intents for the same seat, surfacing
// the loss as models.ErrSeatConflict with the intent left untouched.
func (r *BookingIntentRepository) ConvertToTicket(intentID uuid.UUID, pnr, gatewayPaymentID string) (ticket *models.Ticket, replayed bool, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	// 1. Lock the intent row
	var intent models.BookingIntent
	lockQuery := `SELECT ` + intentColumns + ` FROM booking_intents WHERE id = $1 FOR UPDATE`
	err = tx.Get(&intent, lockQuery, intentID)
	if err == sql.ErrNoRows {
		return nil, false, models.ErrIntentNotFound
	}
	if err != nil {
		return nil, false, err
	}

	// 2. Idempotent replay: a ticket is already linked
	if intent.TicketID != nil {
		var linked models.Ticket
		err = tx.Get(&linked, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, *intent.TicketID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load linked ticket: %w", err)
		}
		if linked.PayStatus != models.PaymentPaid {
			_, err = tx.Exec(`UPDATE tickets SET payment_status = 'PAID' WHERE id = $1`, linked.ID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to settle linked ticket: %w", err)
			}
			linked.PayStatus = models.PaymentPaid
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return &linked, true, nil
	}

	if models.IsTerminalIntentStatus(intent.Status) {
		return nil, false, models.NewBookingError(models.ReasonIntentTerminal, "intent is already %s", intent.Status)
	}

	// 3. Insert the ticket; the seat index decides the winner
	now := time.Now()
	fresh := models.Ticket{
		UserEmail:        intent.UserEmail,
		TrainID:          intent.TrainID,
		TravelDate:       intent.TravelDate,
		SeatNo:           &intent.SeatNo,
		Price:            intent.Amount,
		PNR:              pnr,
		Status:           models.BookingConfirmed,
		PayStatus:        models.PaymentPaid,
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: &gatewayPaymentID,
		DedupKey:         models.SeatDedupKey(intent.UserEmail, intent.TrainID, intent.TravelDate, intent.SeatNo),
		CreatedAt:        now,
	}

	insertQuery := `
		INSERT INTO tickets (
			user_email, train_id, travel_date, seat_no, price, pnr,
			status, payment_status, gateway_order_id, gateway_payment_id,
			dedup_key, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id`

	err = tx.QueryRow(insertQuery,
		fresh.UserEmail, fresh.TrainID, fresh.TravelDate, fresh.SeatNo,
		fresh.Price, fresh.PNR, fresh.Status, fresh.PayStatus,
		fresh.GatewayOrderID, fresh.GatewayPaymentID,
		fresh.DedupKey, fresh.CreatedAt,
	).Scan(&fresh.ID)
	if err != nil {
		if IsUniqueViolation(err, seatExclusivityConstraint) {
			return nil, false, models.ErrSeatConflict
		}
		return nil, false, fmt.Errorf("failed to create ticket: %w", err)
	}

	// 4. Link the ticket and confirm the intent
	_, err = tx.Exec(`
		UPDATE booking_intents
		SET status = 'CONFIRMED', ticket_id = $1, updated_at = NOW()
		WHERE id = $2
	`, fresh.ID, intent.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to confirm intent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &fresh, false, nil
}
