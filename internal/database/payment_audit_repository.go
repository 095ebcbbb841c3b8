package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
)

// PaymentAuditRepository handles payment audit trail persistence
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new PaymentAuditRepository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db, logger: logger}
}

// Record persists an audit entry. Failures are logged and swallowed so the
// audit trail never blocks the payment flow it observes.
func (r *PaymentAuditRepository) Record(ctx context.Context, audit *models.PaymentAudit) {
	audit.ID = uuid.New()
	audit.CreatedAt = time.Now()
	if audit.CorrelationID == uuid.Nil {
		audit.CorrelationID = uuid.New()
	}

	query := `
		INSERT INTO payment_audits (
			id, intent_id, event_type, outcome, error_code,
			ip_address, client_os, client_browser, correlation_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.db.ExecContext(ctx, query,
		audit.ID, audit.IntentID, audit.EventType, audit.Outcome, audit.ErrorCode,
		audit.IPAddress, audit.ClientOS, audit.ClientBrowser,
		audit.CorrelationID, audit.CreatedAt,
	)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"event_type": audit.EventType,
			"intent_id":  audit.IntentID,
			"error":      err.Error(),
		}).Error("Failed to record payment audit entry")
	}
}

// ListByIntent returns the audit trail for an intent, oldest first
func (r *PaymentAuditRepository) ListByIntent(ctx context.Context, intentID uuid.UUID) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, intent_id, event_type, outcome, error_code,
		       ip_address, client_os, client_browser, correlation_id, created_at
		FROM payment_audits
		WHERE intent_id = $1
		ORDER BY created_at`

	audits := make([]models.PaymentAudit, 0)
	if err := r.db.SelectContext(ctx, &audits, query, intentID); err != nil {
		return nil, err
	}
	return audits, nil
}
