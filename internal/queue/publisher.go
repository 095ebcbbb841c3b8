package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
)

const (
	confirmedQueue = "ticket.confirmed"
	cancelledQueue = "ticket.cancelled"
)

// Publisher emits domain events to RabbitMQ. Connections are opened per
// publish; event volume is low (one per confirmed or cancelled ticket) and
// a dead broker then costs one failed dial instead of a reconnect loop.
// Errors are logged and returned so callers can ignore them without
// interrupting the request flow.
type Publisher struct {
	url    string
	logger *logrus.Logger
}

// NewPublisher creates a Publisher. Returns nil when no broker URL is
// configured; callers treat a nil Publisher as "events disabled".
func NewPublisher(url string, logger *logrus.Logger) *Publisher {
	if url == "" {
		logger.Info("RabbitMQ URL not configured, domain events disabled")
		return nil
	}
	return &Publisher{url: url, logger: logger}
}

// PublishTicketConfirmed emits a TicketConfirmedEvent
func (p *Publisher) PublishTicketConfirmed(ticket *models.Ticket) error {
	event := TicketConfirmedEvent{
		TicketID:   ticket.ID,
		PNR:        ticket.PNR,
		UserEmail:  ticket.UserEmail,
		TrainID:    ticket.TrainID,
		TravelDate: ticket.TravelDate.Format("2006-01-02"),
		Amount:     ticket.Price,
		OccurredAt: time.Now().UTC(),
	}
	if ticket.SeatNo != nil {
		event.SeatNo = *ticket.SeatNo
	}
	return p.publish(confirmedQueue, event)
}

// PublishTicketCancelled emits a TicketCancelledEvent
func (p *Publisher) PublishTicketCancelled(ticket *models.Ticket) error {
	event := TicketCancelledEvent{
		TicketID:   ticket.ID,
		PNR:        ticket.PNR,
		TrainID:    ticket.TrainID,
		TravelDate: ticket.TravelDate.Format("2006-01-02"),
		OccurredAt: time.Now().UTC(),
	}
	return p.publish(cancelledQueue, event)
}

func (p *Publisher) publish(queueName string, event interface{}) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.WithError(err).Error("RabbitMQ dial failed")
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.WithError(err).Error("RabbitMQ channel open failed")
		return err
	}
	defer ch.Close()

	// Idempotent declare; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.logger.WithError(err).Error("RabbitMQ queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"queue": queueName,
		}).WithError(err).Error("RabbitMQ publish failed")
		return err
	}
	return nil
}
