package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/config"
	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/pkg/validator"
)

// BookingIntentService drives the intent state machine:
// PAYMENT_PENDING -> {CONFIRMED, EXPIRED, FAILED}, with no transitions out
// of terminal states. Expiry is evaluated lazily whenever an intent is read;
// there is no background sweep.
type BookingIntentService struct {
	intentRepo *database.BookingIntentRepository
	ticketRepo *database.TicketRepository
	trainRepo  *database.TrainRepository
	config     *config.BookingConfig
	logger     *logrus.Logger
}

// NewBookingIntentService creates a new BookingIntentService
func NewBookingIntentService(
	intentRepo *database.BookingIntentRepository,
	ticketRepo *database.TicketRepository,
	trainRepo *database.TrainRepository,
	cfg *config.BookingConfig,
	logger *logrus.Logger,
) *BookingIntentService {
	return &BookingIntentService{
		intentRepo: intentRepo,
		ticketRepo: ticketRepo,
		trainRepo:  trainRepo,
		config:     cfg,
		logger:     logger,
	}
}

// CreateIntent opens a booking attempt for a seat key.
//
// Idempotency contract: if the same user already holds a live ticket for the
// exact seat key, that ticket is returned instead of an error, so a client
// retrying a completed purchase gets its ticket back. A seat held live by
// anyone else is rejected up front with a conflict; this pre-check is
// advisory and the storage uniqueness constraint still arbitrates at
// confirmation time.
//
// The intent's expiry acts as a soft seat hold. Competing intents for the
// same seat are allowed to coexist; only one can ever become a ticket.
func (s *BookingIntentService) CreateIntent(req *models.BookTicketRequest, now time.Time) (*models.BookTicketResponse, error) {
	// 1. Boundary validation beyond binding tags
	travelDate, err := validator.ParseTravelDate(req.TravelDate)
	if err != nil {
		return nil, models.NewBookingError(models.ReasonValidation, "invalid travel date: %s", req.TravelDate)
	}
	if err := validator.ValidateSeatNo(req.SeatNo); err != nil {
		return nil, models.NewBookingError(models.ReasonValidation, "invalid seat number: %s", req.SeatNo)
	}
	req.SeatNo = validator.NormalizeSeatNo(req.SeatNo)

	// 2. Load the train and pin the fare
	train, err := s.trainRepo.GetByID(req.TrainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load train: %w", err)
	}
	if train == nil {
		return nil, models.ErrTrainNotFound
	}
	if req.Price != train.Fare {
		return nil, models.NewBookingError(models.ReasonValidation, "fare mismatch: expected %.2f", train.Fare)
	}

	// 3. Eligibility at current time
	eligibility := CheckEligibility(travelDate, train.DepartureTime, now, s.config.SameDayCutoff)
	if !eligibility.Allowed {
		return nil, models.NewBookingError(eligibility.Reason, "booking window is closed for %s", req.TravelDate)
	}

	// 4. Idempotent retry: same user already holds this exact seat key
	dedupKey := models.SeatDedupKey(req.Email, req.TrainID, travelDate, req.SeatNo)
	existing, err := s.ticketRepo.GetLiveByDedupKey(dedupKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing ticket: %w", err)
	}
	if existing != nil {
		s.logger.WithFields(logrus.Fields{
			"ticket_id": existing.ID,
			"pnr":       existing.PNR,
		}).Info("Returning existing live ticket for repeated booking")
		return &models.BookTicketResponse{
			Status: string(existing.Status),
			Amount: existing.Price,
			Ticket: existing,
		}, nil
	}

	// 5. Seat held live by someone else
	taken, err := s.ticketRepo.SeatTaken(req.TrainID, travelDate, req.SeatNo)
	if err != nil {
		return nil, fmt.Errorf("failed to check seat occupancy: %w", err)
	}
	if taken {
		return nil, models.ErrSeatConflict
	}

	// 6. Open the intent with its soft-hold expiry
	intent := &models.BookingIntent{
		UserEmail:  req.Email,
		TrainID:    req.TrainID,
		TravelDate: travelDate,
		SeatNo:     req.SeatNo,
		Amount:     train.Fare,
		ExpiresAt:  now.Add(s.config.IntentTTL),
	}
	if err := s.intentRepo.Create(intent); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id":  intent.ID,
		"train_id":   intent.TrainID,
		"seat_no":    intent.SeatNo,
		"expires_at": intent.ExpiresAt,
	}).Info("Booking intent created")

	return &models.BookTicketResponse{
		IntentID:  intent.ID.String(),
		Status:    string(intent.Status),
		Amount:    intent.Amount,
		ExpiresAt: intent.ExpiresAt,
	}, nil
}

// ValidateForPayment re-checks an intent immediately before any payment
// action. Eligibility runs against the current time, not intent-creation
// time: an intent created minutes before departure and paid after it must
// be rejected here.
func (s *BookingIntentService) ValidateForPayment(intentID uuid.UUID, now time.Time) (*models.BookingIntent, *models.ValidationResult, error) {
	intent, err := s.intentRepo.GetByID(intentID)
	if err != nil {
		return nil, nil, err
	}
	if intent == nil {
		return nil, nil, models.ErrIntentNotFound
	}

	// Lazy expiry flip
	if intent.IsExpired(now) {
		if err := s.intentRepo.MarkExpired(intent.ID); err != nil {
			s.logger.WithField("intent_id", intent.ID).WithError(err).Error("Failed to mark intent expired")
		}
		intent.Status = models.IntentExpired
		return intent, &models.ValidationResult{OK: false, Reason: models.ReasonIntentExpired}, nil
	}

	switch intent.Status {
	case models.IntentExpired:
		return intent, &models.ValidationResult{OK: false, Reason: models.ReasonIntentExpired}, nil
	case models.IntentFailed:
		return intent, &models.ValidationResult{OK: false, Reason: models.ReasonIntentTerminal}, nil
	case models.IntentConfirmed:
		// A confirmed intent with an unpaid ticket is a resumed payment and
		// may proceed; a paid one is done.
		if intent.TicketID != nil {
			ticket, err := s.ticketRepo.GetByID(*intent.TicketID)
			if err != nil {
				return nil, nil, err
			}
			if ticket != nil && ticket.PayStatus == models.PaymentPaid {
				return intent, &models.ValidationResult{OK: false, Reason: models.ReasonAlreadyPaid}, nil
			}
		}
	}

	train, err := s.trainRepo.GetByID(intent.TrainID)
	if err != nil {
		return nil, nil, err
	}
	if train == nil {
		return nil, nil, models.ErrTrainNotFound
	}

	eligibility := CheckEligibility(intent.TravelDate, train.DepartureTime, now, s.config.SameDayCutoff)
	if !eligibility.Allowed {
		return intent, &models.ValidationResult{OK: false, Reason: eligibility.Reason}, nil
	}

	return intent, &models.ValidationResult{OK: true}, nil
}

// MarkFailed transitions a PAYMENT_PENDING intent to FAILED. No-op when the
// intent is already terminal; the guarded UPDATE never overwrites a
// confirmation. Failed intents are not resumable; the user books again.
func (s *BookingIntentService) MarkFailed(intentID uuid.UUID) error {
	if err := s.intentRepo.MarkFailed(intentID); err != nil {
		return err
	}
	s.logger.WithField("intent_id", intentID).Info("Booking intent marked failed")
	return nil
}

// GetIntent loads an intent by id
func (s *BookingIntentService) GetIntent(intentID uuid.UUID) (*models.BookingIntent, error) {
	intent, err := s.intentRepo.GetByID(intentID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, models.ErrIntentNotFound
	}
	return intent, nil
}
