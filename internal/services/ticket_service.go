package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/internal/queue"
	"github.com/railswift/booking-backend/pkg/validator"
)

// TicketService handles ticket lookup, cancellation and the legacy
// direct-booking path retained for older clients.
type TicketService struct {
	ticketRepo *database.TicketRepository
	trainRepo  *database.TrainRepository
	notifier   *NotificationService
	publisher  *queue.Publisher
	logger     *logrus.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(
	ticketRepo *database.TicketRepository,
	trainRepo *database.TrainRepository,
	notifier *NotificationService,
	publisher *queue.Publisher,
	logger *logrus.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		trainRepo:  trainRepo,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
	}
}

// GetByPNR looks up a ticket by its booking reference
func (s *TicketService) GetByPNR(pnr string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByPNR(pnr)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, models.ErrTicketNotFound
	}
	return ticket, nil
}

// ListByEmail returns a passenger's booking history
func (s *TicketService) ListByEmail(email string) ([]models.Ticket, error) {
	return s.ticketRepo.ListByEmail(email)
}

// Cancel releases a confirmed ticket's seat. Cancellation obeys the same
// eligibility window as booking: once the train has departed the ticket can
// no longer be cancelled. The seat becomes immediately bookable by others.
func (s *TicketService) Cancel(ticketID int64, email string, now time.Time) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, models.ErrTicketNotFound
	}
	if ticket.UserEmail != email {
		return nil, models.NewBookingError(models.ReasonForbidden, "ticket belongs to a different passenger")
	}
	if ticket.Status != models.BookingConfirmed {
		return nil, models.NewBookingError(models.ReasonIntentTerminal, "ticket is not in a cancellable state")
	}

	train, err := s.trainRepo.GetByID(ticket.TrainID)
	if err != nil {
		return nil, err
	}
	if train == nil {
		return nil, models.ErrTrainNotFound
	}

	// Cancellation stays open until the departure instant, no early cutoff
	eligibility := CheckEligibility(ticket.TravelDate, train.DepartureTime, now, 0)
	if !eligibility.Allowed {
		return nil, models.NewBookingError(eligibility.Reason, "cancellation window is closed")
	}

	if err := s.ticketRepo.Cancel(ticket.ID); err != nil {
		return nil, err
	}
	ticket.Status = models.BookingCancelled
	ticket.SeatNo = nil

	if s.publisher != nil {
		if err := s.publisher.PublishTicketCancelled(ticket); err != nil {
			s.logger.WithField("ticket_id", ticket.ID).WithError(err).Error("Failed to publish ticket cancellation event")
		}
	}
	s.notifier.TicketCancelled(ticket)

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"pnr":       ticket.PNR,
	}).Info("Ticket cancelled, seat released")

	return ticket, nil
}

// BookDirect is the legacy booking path: a ticket is created immediately in
// PAYMENT_PENDING without an intent or a gateway order. Seat exclusivity is
// still enforced by the storage constraint, so races lose with a conflict
// exactly as in the intent flow.
func (s *TicketService) BookDirect(req *models.DirectBookRequest, now time.Time) (*models.Ticket, error) {
	travelDate, err := validator.ParseTravelDate(req.TravelDate)
	if err != nil {
		return nil, models.NewBookingError(models.ReasonValidation, "invalid travel date: %s", req.TravelDate)
	}
	if err := validator.ValidateSeatNo(req.SeatNo); err != nil {
		return nil, models.NewBookingError(models.ReasonValidation, "invalid seat number: %s", req.SeatNo)
	}
	seatNo := validator.NormalizeSeatNo(req.SeatNo)

	train, err := s.trainRepo.GetByID(req.TrainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load train: %w", err)
	}
	if train == nil {
		return nil, models.ErrTrainNotFound
	}

	eligibility := CheckEligibility(travelDate, train.DepartureTime, now, 0)
	if !eligibility.Allowed {
		return nil, models.NewBookingError(eligibility.Reason, "booking window is closed for %s", req.TravelDate)
	}

	// Idempotent retry for the same seat key
	dedupKey := models.SeatDedupKey(req.Email, req.TrainID, travelDate, seatNo)
	existing, err := s.ticketRepo.GetLiveByDedupKey(dedupKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	pnr, err := generatePNR(s.ticketRepo, req.TrainID, travelDate)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		UserEmail:  req.Email,
		TrainID:    req.TrainID,
		TravelDate: travelDate,
		SeatNo:     &seatNo,
		Price:      train.Fare,
		PNR:        pnr,
		Status:     models.BookingPaymentPending,
		PayStatus:  models.PaymentPending,
		DedupKey:   dedupKey,
	}
	if err := s.ticketRepo.Create(ticket); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"pnr":       ticket.PNR,
	}).Info("Legacy direct booking created")

	return ticket, nil
}
