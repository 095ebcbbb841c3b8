package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railswift/booking-backend/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func ticketRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_email", "train_id", "travel_date", "seat_no", "price", "pnr",
		"status", "payment_status", "gateway_order_id", "gateway_payment_id",
		"dedup_key", "created_at",
	})
}

func TestTicketCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTicketRepository(db)

	seat := "A1"
	travelDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		ticket := &models.Ticket{
			UserEmail:  "rider@example.com",
			TrainID:    12,
			TravelDate: travelDate,
			SeatNo:     &seat,
			Price:      450,
			PNR:        "012202609151234",
			Status:     models.BookingConfirmed,
			PayStatus:  models.PaymentPaid,
			DedupKey:   "rider@example.com|12|2026-09-15|A1",
		}

		mock.ExpectQuery(`INSERT INTO tickets`).
			WithArgs(
				ticket.UserEmail, ticket.TrainID, ticket.TravelDate, ticket.SeatNo,
				ticket.Price, ticket.PNR, ticket.Status, ticket.PayStatus,
				nil, nil, ticket.DedupKey, sqlmock.AnyArg(),
			).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))

		err := repo.Create(ticket)
		require.NoError(t, err)
		assert.Equal(t, int64(77), ticket.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Conflict", func(t *testing.T) {
		ticket := &models.Ticket{
			UserEmail:  "late@example.com",
			TrainID:    12,
			TravelDate: travelDate,
			SeatNo:     &seat,
			Price:      450,
			PNR:        "012202609155678",
			Status:     models.BookingConfirmed,
			PayStatus:  models.PaymentPaid,
			DedupKey:   "late@example.com|12|2026-09-15|A1",
		}

		mock.ExpectQuery(`INSERT INTO tickets`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uniq_live_seat"})

		err := repo.Create(ticket)
		assert.ErrorIs(t, err, models.ErrSeatConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		ticket := &models.Ticket{UserEmail: "rider@example.com", TrainID: 12, TravelDate: travelDate, SeatNo: &seat}

		mock.ExpectQuery(`INSERT INTO tickets`).
			WillReturnError(fmt.Errorf("connection reset"))

		err := repo.Create(ticket)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create ticket")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTicketGetByPNR(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTicketRepository(db)

	t.Run("Found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE pnr`).
			WithArgs("012202609151234").
			WillReturnRows(ticketRows().AddRow(
				int64(77), "rider@example.com", int64(12), now, "A1", 450.0, "012202609151234",
				"CONFIRMED", "PAID", nil, nil, "rider@example.com|12|2026-09-15|A1", now,
			))

		ticket, err := repo.GetByPNR("012202609151234")
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, int64(77), ticket.ID)
		assert.Equal(t, models.BookingConfirmed, ticket.Status)
		require.NotNil(t, ticket.SeatNo)
		assert.Equal(t, "A1", *ticket.SeatNo)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE pnr`).
			WithArgs("000000000000000").
			WillReturnRows(ticketRows())

		ticket, err := repo.GetByPNR("000000000000000")
		require.NoError(t, err)
		assert.Nil(t, ticket)
	})
}

func TestTicketGetLiveByDedupKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTicketRepository(db)

	t.Run("Live Ticket", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs("rider@example.com|12|2026-09-15|A1").
			WillReturnRows(ticketRows().AddRow(
				int64(5), "rider@example.com", int64(12), now, "A1", 450.0, "012202609151234",
				"CONFIRMED", "PAID", nil, nil, "rider@example.com|12|2026-09-15|A1", now,
			))

		ticket, err := repo.GetLiveByDedupKey("rider@example.com|12|2026-09-15|A1")
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, int64(5), ticket.ID)
	})

	t.Run("No Live Ticket", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WithArgs("nobody@example.com|12|2026-09-15|A1").
			WillReturnRows(ticketRows())

		ticket, err := repo.GetLiveByDedupKey("nobody@example.com|12|2026-09-15|A1")
		require.NoError(t, err)
		assert.Nil(t, ticket)
	})
}

func TestTicketCancel(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTicketRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE tickets`).
			WithArgs(int64(77)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Cancel(77)
		assert.NoError(t, err)
	})

	t.Run("Not Cancellable", func(t *testing.T) {
		mock.ExpectExec(`UPDATE tickets`).
			WithArgs(int64(78)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Cancel(78)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonIntentTerminal, be.Code)
	})
}

func TestTicketSeatTaken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTicketRepository(db)

	travelDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(12), travelDate, "A1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.SeatTaken(12, travelDate, "A1")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestTicketCountBookedSeats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTicketRepository(db)

	travelDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(int64(12), travelDate).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountBookedSeats(12, travelDate)
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
