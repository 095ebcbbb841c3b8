package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railswift/booking-backend/internal/config"
	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/models"
)

func newIntentService(t *testing.T) (*BookingIntentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := NewBookingIntentService(
		database.NewBookingIntentRepository(sqlxDB),
		database.NewTicketRepository(sqlxDB),
		database.NewTrainRepository(sqlxDB),
		&config.BookingConfig{IntentTTL: 10 * time.Minute},
		logger,
	)
	return svc, mock
}

func trainRow(id int64, departure, arrival string, fare float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "source_station", "dest_station",
		"source_lat", "source_lon", "dest_lat", "dest_lon",
		"departure_time", "arrival_time", "delay_minutes",
		"total_seats", "fare", "created_at", "updated_at",
	}).AddRow(id, "Coastal Express", "Central", "Harbor", 6.93, 79.85, 6.03, 80.22,
		departure, arrival, 0, 200, fare, now, now)
}

func TestCreateIntent(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Invalid Travel Date", func(t *testing.T) {
		svc, _ := newIntentService(t)

		_, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "15-09-2026", SeatNo: "A1", Price: 450,
		}, now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonValidation, be.Code)
	})

	t.Run("Invalid Seat", func(t *testing.T) {
		svc, _ := newIntentService(t)

		_, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-15", SeatNo: "1A", Price: 450,
		}, now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonValidation, be.Code)
	})

	t.Run("Unknown Train", func(t *testing.T) {
		svc, mock := newIntentService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 99, TravelDate: "2026-09-15", SeatNo: "A1", Price: 450,
		}, now)
		assert.ErrorIs(t, err, models.ErrTrainNotFound)
	})

	t.Run("Fare Mismatch", func(t *testing.T) {
		svc, mock := newIntentService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))

		_, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-15", SeatNo: "A1", Price: 300,
		}, now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonValidation, be.Code)
	})

	t.Run("Past Date", func(t *testing.T) {
		svc, mock := newIntentService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))

		_, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-08-20", SeatNo: "A1", Price: 450,
		}, now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonPastDate, be.Code)
	})

	t.Run("Same Day After Departure", func(t *testing.T) {
		svc, mock := newIntentService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))

		_, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-01", SeatNo: "A1", Price: 450,
		}, now)
		require.Error(t, err)
		be, ok := models.AsBookingError(err)
		require.True(t, ok)
		assert.Equal(t, models.ReasonDeparted, be.Code)
	})

	t.Run("Existing Live Ticket Returned", func(t *testing.T) {
		svc, mock := newIntentService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_email", "train_id", "travel_date", "seat_no", "price", "pnr",
				"status", "payment_status", "gateway_order_id", "gateway_payment_id",
				"dedup_key", "created_at",
			}).AddRow(
				int64(7), "rider@example.com", int64(1), now, "A1", 450.0, "001202609151234",
				"CONFIRMED", "PAID", nil, nil, "rider@example.com|1|2026-09-15|A1", now,
			))

		resp, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-15", SeatNo: "A1", Price: 450,
		}, now)
		require.NoError(t, err)
		require.NotNil(t, resp.Ticket)
		assert.Empty(t, resp.IntentID)
		assert.Equal(t, "001202609151234", resp.Ticket.PNR)
	})

	t.Run("Seat Held By Someone Else", func(t *testing.T) {
		svc, mock := newIntentService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-15", SeatNo: "A1", Price: 450,
		}, now)
		assert.ErrorIs(t, err, models.ErrSeatConflict)
	})

	t.Run("Success", func(t *testing.T) {
		svc, mock := newIntentService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`INSERT INTO booking_intents`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		resp, err := svc.CreateIntent(&models.BookTicketRequest{
			Email: "rider@example.com", TrainID: 1, TravelDate: "2026-09-15", SeatNo: " a1 ", Price: 450,
		}, now)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.IntentID)
		assert.Equal(t, string(models.IntentPaymentPending), resp.Status)
		assert.Equal(t, 450.0, resp.Amount)
		assert.Equal(t, now.Add(10*time.Minute), resp.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestValidateForPayment(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	intentCols := []string{
		"id", "user_email", "train_id", "travel_date", "seat_no", "amount",
		"status", "gateway_order_id", "ticket_id",
		"expires_at", "created_at", "updated_at",
	}

	t.Run("Unknown Intent", func(t *testing.T) {
		svc, mock := newIntentService(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM booking_intents WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(intentCols))

		_, _, err := svc.ValidateForPayment(id, now)
		assert.ErrorIs(t, err, models.ErrIntentNotFound)
	})

	t.Run("Lazy Expiry", func(t *testing.T) {
		svc, mock := newIntentService(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM booking_intents WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(intentCols).AddRow(
				id, "rider@example.com", int64(1), now.AddDate(0, 0, 14), "A1", 450.0,
				"PAYMENT_PENDING", nil, nil,
				now.Add(-time.Minute), now.Add(-11*time.Minute), now.Add(-11*time.Minute),
			))
		mock.ExpectExec(`UPDATE booking_intents`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		intent, result, err := svc.ValidateForPayment(id, now)
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, models.ReasonIntentExpired, result.Reason)
		assert.Equal(t, models.IntentExpired, intent.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failed Intent Is Terminal", func(t *testing.T) {
		svc, mock := newIntentService(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM booking_intents WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(intentCols).AddRow(
				id, "rider@example.com", int64(1), now.AddDate(0, 0, 14), "A1", 450.0,
				"FAILED", nil, nil,
				now.Add(5*time.Minute), now, now,
			))

		_, result, err := svc.ValidateForPayment(id, now)
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, models.ReasonIntentTerminal, result.Reason)
	})

	t.Run("Confirmed With Paid Ticket", func(t *testing.T) {
		svc, mock := newIntentService(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM booking_intents WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(intentCols).AddRow(
				id, "rider@example.com", int64(1), now.AddDate(0, 0, 14), "A1", 450.0,
				"CONFIRMED", nil, int64(7),
				now.Add(5*time.Minute), now, now,
			))
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_email", "train_id", "travel_date", "seat_no", "price", "pnr",
				"status", "payment_status", "gateway_order_id", "gateway_payment_id",
				"dedup_key", "created_at",
			}).AddRow(
				int64(7), "rider@example.com", int64(1), now, "A1", 450.0, "001202609151234",
				"CONFIRMED", "PAID", nil, nil, "k", now,
			))

		_, result, err := svc.ValidateForPayment(id, now)
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, models.ReasonAlreadyPaid, result.Reason)
	})

	t.Run("Pending And Eligible", func(t *testing.T) {
		svc, mock := newIntentService(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM booking_intents WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(intentCols).AddRow(
				id, "rider@example.com", int64(1), now.AddDate(0, 0, 14), "A1", 450.0,
				"PAYMENT_PENDING", nil, nil,
				now.Add(5*time.Minute), now, now,
			))
		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))

		intent, result, err := svc.ValidateForPayment(id, now)
		require.NoError(t, err)
		assert.True(t, result.OK)
		assert.Equal(t, models.IntentPaymentPending, intent.Status)
	})

	t.Run("Departure Passed Since Creation", func(t *testing.T) {
		svc, mock := newIntentService(t)
		id := uuid.New()

		// Same-day intent, paying after the train left
		mock.ExpectQuery(`SELECT (.+) FROM booking_intents WHERE id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(intentCols).AddRow(
				id, "rider@example.com", int64(1), time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "A1", 450.0,
				"PAYMENT_PENDING", nil, nil,
				now.Add(5*time.Minute), now, now,
			))
		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))

		_, result, err := svc.ValidateForPayment(id, now)
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.Equal(t, models.ReasonDeparted, result.Reason)
	})
}
