package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/railswift/booking-backend/internal/models"
)

// PaymentLedgerRepository handles the append-only payment ledger
type PaymentLedgerRepository struct {
	db *sqlx.DB
}

// NewPaymentLedgerRepository creates a new PaymentLedgerRepository
func NewPaymentLedgerRepository(db *sqlx.DB) *PaymentLedgerRepository {
	return &PaymentLedgerRepository{db: db}
}

// Append records a payment event. The unique index on gateway_payment_id
// makes replays a no-op, so retried confirmations never double-count revenue.
func (r *PaymentLedgerRepository) Append(entry *models.PaymentLedgerEntry) error {
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO payment_ledger (
			ticket_id, gateway_payment_id, gateway_order_id, amount, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (gateway_payment_id) DO NOTHING`

	_, err := r.db.Exec(query,
		entry.TicketID, entry.GatewayPaymentID, entry.GatewayOrderID,
		entry.Amount, entry.Status, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// ListByTicket returns all ledger entries for a ticket, oldest first
func (r *PaymentLedgerRepository) ListByTicket(ticketID int64) ([]models.PaymentLedgerEntry, error) {
	query := `
		SELECT id, ticket_id, gateway_payment_id, gateway_order_id, amount, status, created_at
		FROM payment_ledger
		WHERE ticket_id = $1
		ORDER BY created_at`

	entries := make([]models.PaymentLedgerEntry, 0)
	if err := r.db.Select(&entries, query, ticketID); err != nil {
		return nil, err
	}
	return entries, nil
}

// Revenue sums captured ledger entries in the given window
func (r *PaymentLedgerRepository) Revenue(from, to time.Time) (*models.RevenueReport, error) {
	report := models.RevenueReport{From: from, To: to}

	query := `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM payment_ledger
		WHERE status = 'captured'
		  AND created_at >= $1 AND created_at < $2`

	err := r.db.QueryRow(query, from, to).Scan(&report.Transactions, &report.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}
	return &report, nil
}
