package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/models"
)

// TrainService serves schedule reference data
type TrainService struct {
	trainRepo  *database.TrainRepository
	ticketRepo *database.TicketRepository
	logger     *logrus.Logger
}

// NewTrainService creates a new TrainService
func NewTrainService(trainRepo *database.TrainRepository, ticketRepo *database.TicketRepository, logger *logrus.Logger) *TrainService {
	return &TrainService{trainRepo: trainRepo, ticketRepo: ticketRepo, logger: logger}
}

// TrainDetail is a train with its current run state and today's seat usage
type TrainDetail struct {
	models.Train
	RunStatus      models.RunStatus `json:"run_status"`
	Progress       float64          `json:"progress"`
	SeatsBooked    int              `json:"seats_booked"`
	SeatsAvailable int              `json:"seats_available"`
}

// List returns all trains
func (s *TrainService) List() ([]models.Train, error) {
	return s.trainRepo.List()
}

// GetDetail returns a train with its resolved run status and seat counts for
// today's departure
func (s *TrainService) GetDetail(trainID int64, now time.Time) (*TrainDetail, error) {
	train, err := s.trainRepo.GetByID(trainID)
	if err != nil {
		return nil, err
	}
	if train == nil {
		return nil, models.ErrTrainNotFound
	}

	detail := &TrainDetail{Train: *train, RunStatus: models.RunNotStarted}

	if window := ResolveWindow(now, train.DepartureTime, train.ArrivalTime, train.DelayMinutes); window != nil {
		detail.RunStatus = DeriveStatus(now, window)
		detail.Progress = DeriveProgress(now, window)
	}

	booked, err := s.ticketRepo.CountBookedSeats(trainID, travelDateKey(now))
	if err != nil {
		return nil, err
	}
	detail.SeatsBooked = booked
	detail.SeatsAvailable = train.TotalSeats - booked
	if detail.SeatsAvailable < 0 {
		detail.SeatsAvailable = 0
	}

	return detail, nil
}

// UpdateDelay sets a train's delay offset. In-flight simulations pick the
// new value up on their next tick.
func (s *TrainService) UpdateDelay(trainID int64, delayMinutes int) error {
	if err := s.trainRepo.UpdateDelay(trainID, delayMinutes); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"train_id":      trainID,
		"delay_minutes": delayMinutes,
	}).Info("Train delay updated")
	return nil
}
