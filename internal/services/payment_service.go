package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/config"
	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/internal/queue"
	"github.com/railswift/booking-backend/internal/utils"
)

// PaymentService orchestrates the path from a pending intent to a
// CONFIRMED/PAID ticket. The ticket is the authoritative booking record;
// the ledger, audit trail, queue events and emails are all best-effort
// side channels that never roll back a confirmed ticket.
type PaymentService struct {
	intentService *BookingIntentService
	intentRepo    *database.BookingIntentRepository
	ticketRepo    *database.TicketRepository
	ledgerRepo    *database.PaymentLedgerRepository
	auditRepo     *database.PaymentAuditRepository
	gateway       *GatewayClient
	notifier      *NotificationService
	publisher     *queue.Publisher
	config        *config.PaymentConfig
	environment   string
	logger        *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	intentService *BookingIntentService,
	intentRepo *database.BookingIntentRepository,
	ticketRepo *database.TicketRepository,
	ledgerRepo *database.PaymentLedgerRepository,
	auditRepo *database.PaymentAuditRepository,
	gateway *GatewayClient,
	notifier *NotificationService,
	publisher *queue.Publisher,
	cfg *config.PaymentConfig,
	environment string,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		intentService: intentService,
		intentRepo:    intentRepo,
		ticketRepo:    ticketRepo,
		ledgerRepo:    ledgerRepo,
		auditRepo:     auditRepo,
		gateway:       gateway,
		notifier:      notifier,
		publisher:     publisher,
		config:        cfg,
		environment:   environment,
		logger:        logger,
	}
}

// CreateOrder registers a gateway order for a pending intent.
//
// Idempotent: an intent that already carries a gateway order id gets that
// order echoed back instead of a duplicate order at the gateway.
func (s *PaymentService) CreateOrder(intentID uuid.UUID, now time.Time, meta *models.ClientMeta) (*models.CreateOrderResponse, error) {
	intent, result, err := s.intentService.ValidateForPayment(intentID, now)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		s.audit(intentID, models.PaymentEventOrderCreated, "rejected", string(result.Reason), meta)
		return nil, models.NewBookingError(result.Reason, "intent cannot proceed to payment")
	}

	if intent.GatewayOrderID != nil {
		return &models.CreateOrderResponse{
			OrderID:  *intent.GatewayOrderID,
			Amount:   intent.Amount,
			Currency: s.config.Currency,
		}, nil
	}

	if intent.Amount <= 0 {
		return nil, models.NewBookingError(models.ReasonValidation, "order amount must be positive")
	}

	order, err := s.gateway.CreateOrder(intent.Amount, intent.ID.String())
	if err != nil {
		s.audit(intentID, models.PaymentEventOrderCreated, "rejected", string(models.ReasonGatewayError), meta)
		return nil, err
	}

	if err := s.intentRepo.SetGatewayOrder(intent.ID, order.ID); err != nil {
		return nil, err
	}

	s.audit(intentID, models.PaymentEventOrderCreated, "ok", "", meta)

	return &models.CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   intent.Amount,
		Currency: s.config.Currency,
	}, nil
}

// VerifyAndConfirm authenticates a gateway approval and promotes the intent
// into a ticket.
//
// The HMAC check is the sole authentication of the payment; a mismatch
// fails the intent and returns a generic error that never leaks the
// expected value. Verifying the same intent twice returns the same ticket
// both times. Losing the seat race surfaces as a conflict with the intent
// left pending for the caller to fail explicitly.
func (s *PaymentService) VerifyAndConfirm(intentID uuid.UUID, req *models.VerifyPaymentRequest, now time.Time, meta *models.ClientMeta) (*models.VerifyPaymentResponse, error) {
	// 1. Signature first; nothing else is trusted until this passes
	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.logger.WithFields(logrus.Fields{
			"intent_id":        intentID,
			"gateway_order_id": req.GatewayOrderID,
			"ip":               meta.IP,
		}).Warn("Payment signature mismatch")
		s.audit(intentID, models.PaymentEventSignatureBad, "rejected", string(models.ReasonInvalidSignature), meta)
		if err := s.intentService.MarkFailed(intentID); err != nil {
			s.logger.WithField("intent_id", intentID).WithError(err).Error("Failed to fail intent after signature mismatch")
		}
		return nil, models.NewBookingError(models.ReasonInvalidSignature, "payment verification failed")
	}

	// 2. Re-validate the intent at the current time
	intent, result, err := s.intentService.ValidateForPayment(intentID, now)
	if err != nil {
		return nil, err
	}
	if !result.OK && result.Reason != models.ReasonAlreadyPaid {
		s.audit(intentID, models.PaymentEventVerified, "rejected", string(result.Reason), meta)
		return nil, models.NewBookingError(result.Reason, "intent cannot be confirmed")
	}

	if intent.GatewayOrderID != nil && *intent.GatewayOrderID != req.GatewayOrderID {
		s.audit(intentID, models.PaymentEventVerified, "rejected", string(models.ReasonValidation), meta)
		return nil, models.NewBookingError(models.ReasonValidation, "order does not belong to this intent")
	}

	// 3. Atomic conversion; replays short-circuit to the linked ticket and
	// never consume a PNR
	var pnr string
	if result.OK {
		pnr, err = generatePNR(s.ticketRepo, intent.TrainID, intent.TravelDate)
		if err != nil {
			return nil, err
		}
	}
	ticket, replayed, err := s.intentRepo.ConvertToTicket(intent.ID, pnr, req.GatewayPaymentID)
	if err != nil {
		if err == models.ErrSeatConflict {
			s.audit(intentID, models.PaymentEventConflict, "rejected", string(models.ReasonSeatConflict), meta)
		}
		return nil, err
	}

	// Ledger, queue event and email are one-shot; a webhook retry must not
	// repeat them
	if !replayed {
		s.settle(ticket, req.GatewayPaymentID, req.GatewayOrderID)
	}
	s.audit(intentID, models.PaymentEventVerified, "ok", "", meta)

	return &models.VerifyPaymentResponse{Success: true, Ticket: ticket}, nil
}

// SimulatePayment confirms an intent without a gateway round trip.
//
// Only reachable when simulation is enabled and the environment is not
// production, and never once a real gateway order exists for the intent.
func (s *PaymentService) SimulatePayment(intentID uuid.UUID, now time.Time, meta *models.ClientMeta) (*models.VerifyPaymentResponse, error) {
	if !s.config.SimulationEnabled || s.environment == "production" {
		return nil, models.NewBookingError(models.ReasonForbidden, "payment simulation is disabled")
	}

	intent, result, err := s.intentService.ValidateForPayment(intentID, now)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, models.NewBookingError(result.Reason, "intent cannot be confirmed")
	}
	if intent.GatewayOrderID != nil {
		return nil, models.NewBookingError(models.ReasonForbidden, "a real gateway order exists for this intent")
	}

	paymentID, err := syntheticPaymentID()
	if err != nil {
		return nil, err
	}
	pnr, err := generatePNR(s.ticketRepo, intent.TrainID, intent.TravelDate)
	if err != nil {
		return nil, err
	}

	// Simulation rejects non-pending intents above, so a replay cannot reach
	// this point
	ticket, _, err := s.intentRepo.ConvertToTicket(intent.ID, pnr, paymentID)
	if err != nil {
		if err == models.ErrSeatConflict {
			s.audit(intentID, models.PaymentEventConflict, "rejected", string(models.ReasonSeatConflict), meta)
		}
		return nil, err
	}

	s.settle(ticket, paymentID, "")
	s.audit(intentID, models.PaymentEventSimulated, "ok", "", meta)

	return &models.VerifyPaymentResponse{Success: true, Simulated: true, Ticket: ticket}, nil
}

// RecordFailure handles a gateway decline or abandoned checkout
func (s *PaymentService) RecordFailure(intentID uuid.UUID, meta *models.ClientMeta) error {
	s.audit(intentID, models.PaymentEventFailure, "ok", "", meta)
	return s.intentService.MarkFailed(intentID)
}

// settle runs the post-commit side effects of a confirmed ticket: ledger
// append, queue event, confirmation email. All best-effort.
func (s *PaymentService) settle(ticket *models.Ticket, paymentID, orderID string) {
	entry := &models.PaymentLedgerEntry{
		TicketID:         ticket.ID,
		GatewayPaymentID: paymentID,
		GatewayOrderID:   orderID,
		Amount:           ticket.Price,
		Status:           models.LedgerCaptured,
	}
	if err := s.ledgerRepo.Append(entry); err != nil {
		s.logger.WithFields(logrus.Fields{
			"ticket_id":  ticket.ID,
			"payment_id": paymentID,
		}).WithError(err).Error("Failed to append payment ledger entry")
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTicketConfirmed(ticket); err != nil {
			s.logger.WithField("ticket_id", ticket.ID).WithError(err).Error("Failed to publish ticket confirmation event")
		}
	}

	s.notifier.TicketConfirmed(ticket)

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"pnr":       ticket.PNR,
		"train_id":  ticket.TrainID,
	}).Info("Ticket confirmed and paid")
}

func syntheticPaymentID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate simulated payment id: %w", err)
	}
	return "SIM-" + hex.EncodeToString(buf), nil
}

func (s *PaymentService) audit(intentID uuid.UUID, event models.PaymentEventType, outcome, errorCode string, meta *models.ClientMeta) {
	audit := &models.PaymentAudit{
		IntentID:  &intentID,
		EventType: event,
		Outcome:   outcome,
	}
	if errorCode != "" {
		audit.ErrorCode = &errorCode
	}
	if meta != nil {
		audit.IPAddress = meta.IP
		device := utils.ParseUserAgent(meta.UserAgent)
		audit.ClientOS = device.OS
		audit.ClientBrowser = device.Browser
	}
	s.auditRepo.Record(context.Background(), audit)
}
