package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/pkg/mailer"
)

func newTicketService(t *testing.T) (*TicketService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	notifier := NewNotificationService(mailer.NewDevMailer(logger), logger)
	t.Cleanup(notifier.Stop)

	svc := NewTicketService(
		database.NewTicketRepository(sqlxDB),
		database.NewTrainRepository(sqlxDB),
		notifier,
		nil,
		logger,
	)
	return svc, mock
}

func ticketRow(id int64, email string, trainID int64, travelDate time.Time, seat, status, payStatus string) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_email", "train_id", "travel_date", "seat_no", "price", "pnr",
		"status", "payment_status", "gateway_order_id", "gateway_payment_id",
		"dedup_key", "created_at",
	})
	if seat == "" {
		return rows.AddRow(id, email, trainID, travelDate, nil, 450.0, "001202609151234",
			status, payStatus, nil, nil, "k", now)
	}
	return rows.AddRow(id, email, trainID, travelDate, seat, 450.0, "001202609151234",
		status, payStatus, nil, nil, "k", now)
}

func TestTicketGetByPNRService(t *testing.T) {
	svc, mock := newTicketService(t)

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE pnr`).
			WithArgs("001202609151234").
			WillReturnRows(ticketRow(7, "rider@example.com", 1, time.Now(), "A1", "CONFIRMED", "PAID"))

		ticket, err := svc.GetByPNR("001202609151234")
		require.NoError(t, err)
		assert.Equal(t, int64(7), ticket.ID)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE pnr`).
			WithArgs("000000000000000").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.GetByPNR("000000000000000")
		assert.ErrorIs(t, err, models.ErrTicketNotFound)
	})
}

func TestTicketCancelService(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	travelDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Wrong Owner", func(t *testing.T) {
		svc, mock := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(int64(7)).
			WillReturnRows(ticketRow(7, "owner@example.com", 1, travelDate, "A1", "CONFIRMED", "PAID"))

		_, err := svc.Cancel(7, "intruder@example.com", now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonForbidden, be.Code)
	})

	t.Run("Already Cancelled", func(t *testing.T) {
		svc, mock := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(int64(7)).
			WillReturnRows(ticketRow(7, "owner@example.com", 1, travelDate, "", "CANCELLED", "PAID"))

		_, err := svc.Cancel(7, "owner@example.com", now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonIntentTerminal, be.Code)
	})

	t.Run("Departed", func(t *testing.T) {
		svc, mock := newTicketService(t)

		pastDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(int64(7)).
			WillReturnRows(ticketRow(7, "owner@example.com", 1, pastDate, "A1", "CONFIRMED", "PAID"))
		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))

		_, err := svc.Cancel(7, "owner@example.com", now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonPastDate, be.Code)
	})

	t.Run("Success", func(t *testing.T) {
		svc, mock := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(int64(7)).
			WillReturnRows(ticketRow(7, "owner@example.com", 1, travelDate, "A1", "CONFIRMED", "PAID"))
		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		mock.ExpectExec(`UPDATE tickets`).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ticket, err := svc.Cancel(7, "owner@example.com", now)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, ticket.Status)
		assert.Nil(t, ticket.SeatNo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookDirect(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		svc, mock := newTicketService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO tickets`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

		ticket, err := svc.BookDirect(&models.DirectBookRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-15", SeatNo: "b2", Price: 450,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(8), ticket.ID)
		assert.Equal(t, models.BookingPaymentPending, ticket.Status)
		assert.Equal(t, models.PaymentPending, ticket.PayStatus)
		require.NotNil(t, ticket.SeatNo)
		assert.Equal(t, "B2", *ticket.SeatNo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Existing Ticket Echoed", func(t *testing.T) {
		svc, mock := newTicketService(t)

		travelDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WillReturnRows(ticketRow(8, "rider@example.com", 1, travelDate, "B2", "PAYMENT_PENDING", "PENDING"))

		ticket, err := svc.BookDirect(&models.DirectBookRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-15", SeatNo: "B2", Price: 450,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(8), ticket.ID)
	})
}
