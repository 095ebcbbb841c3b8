package services

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/pkg/mailer"
)

// notificationKind classifies outbound passenger emails.
type notificationKind string

const (
	notifyConfirmed notificationKind = "ticket_confirmed"
	notifyCancelled notificationKind = "ticket_cancelled"
)

type notification struct {
	Kind   notificationKind
	Ticket *models.Ticket
}

// NotificationService decouples passenger emails from the request path.
// Confirmation and cancellation enqueue onto a buffered channel consumed by
// a single worker; a send failure is logged and dropped, never propagated
// back into the booking flow. A full buffer also drops (with a log) rather
// than blocking a request.
type NotificationService struct {
	mailer mailer.Mailer
	logger *logrus.Logger

	queue chan notification
	done  chan struct{}
	once  sync.Once
}

// NewNotificationService creates a NotificationService and starts its worker
func NewNotificationService(m mailer.Mailer, logger *logrus.Logger) *NotificationService {
	s := &NotificationService{
		mailer: m,
		logger: logger,
		queue:  make(chan notification, 256),
		done:   make(chan struct{}),
	}
	go s.worker()
	return s
}

// TicketConfirmed queues a booking-confirmation email
func (s *NotificationService) TicketConfirmed(ticket *models.Ticket) {
	s.enqueue(notification{Kind: notifyConfirmed, Ticket: ticket})
}

// TicketCancelled queues a cancellation email
func (s *NotificationService) TicketCancelled(ticket *models.Ticket) {
	s.enqueue(notification{Kind: notifyCancelled, Ticket: ticket})
}

// Stop closes the queue and waits for the worker to drain it
func (s *NotificationService) Stop() {
	s.once.Do(func() {
		close(s.queue)
	})
	<-s.done
}

func (s *NotificationService) enqueue(n notification) {
	select {
	case s.queue <- n:
	default:
		s.logger.WithFields(logrus.Fields{
			"kind":      n.Kind,
			"ticket_id": n.Ticket.ID,
		}).Warn("Notification queue full, dropping email")
	}
}

func (s *NotificationService) worker() {
	defer close(s.done)
	for n := range s.queue {
		if err := s.send(n); err != nil {
			s.logger.WithFields(logrus.Fields{
				"kind":      n.Kind,
				"ticket_id": n.Ticket.ID,
				"recipient": n.Ticket.UserEmail,
			}).WithError(err).Error("Failed to send notification email")
		}
	}
}

func (s *NotificationService) send(n notification) error {
	t := n.Ticket
	switch n.Kind {
	case notifyConfirmed:
		subject := fmt.Sprintf("Booking confirmed - PNR %s", t.PNR)
		body := fmt.Sprintf(
			"Your booking is confirmed.\n\nPNR: %s\nTrain: %d\nTravel date: %s\nSeat: %s\nAmount paid: %.2f\n",
			t.PNR, t.TrainID, t.TravelDate.Format("2006-01-02"), derefSeat(t.SeatNo), t.Price,
		)
		return s.mailer.Send(t.UserEmail, subject, body)
	case notifyCancelled:
		subject := fmt.Sprintf("Booking cancelled - PNR %s", t.PNR)
		body := fmt.Sprintf(
			"Your booking with PNR %s for train %d on %s has been cancelled.\n",
			t.PNR, t.TrainID, t.TravelDate.Format("2006-01-02"),
		)
		return s.mailer.Send(t.UserEmail, subject, body)
	default:
		return fmt.Errorf("unknown notification kind: %s", n.Kind)
	}
}

func derefSeat(seat *string) string {
	if seat == nil {
		return "-"
	}
	return *seat
}
