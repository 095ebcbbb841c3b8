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
)

func newTrainService(t *testing.T) (*TrainService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := NewTrainService(
		database.NewTrainRepository(sqlxDB),
		database.NewTicketRepository(sqlxDB),
		logger,
	)
	return svc, mock
}

func TestGetDetail(t *testing.T) {
	t.Run("Running With Seat Counts", func(t *testing.T) {
		svc, mock := newTrainService(t)
		now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))

		detail, err := svc.GetDetail(1, now)
		require.NoError(t, err)
		assert.Equal(t, models.RunRunning, detail.RunStatus)
		assert.Greater(t, detail.Progress, 0.0)
		assert.Equal(t, 120, detail.SeatsBooked)
		assert.Equal(t, 80, detail.SeatsAvailable)
	})

	t.Run("Seat Count Key Is UTC Midnight Of Local Day", func(t *testing.T) {
		svc, mock := newTrainService(t)
		ist := time.FixedZone("UTC+5:30", 5*3600+1800)
		now := time.Date(2026, 9, 1, 8, 0, 0, 0, ist)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "06:15", "09:40", 450))
		// travel_date rows are stored at midnight UTC; the count key must
		// match that representation for the server's calendar day
		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(int64(1), time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		detail, err := svc.GetDetail(1, now)
		require.NoError(t, err)
		assert.Equal(t, 3, detail.SeatsBooked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unresolvable Schedule Degrades To Not Started", func(t *testing.T) {
		svc, mock := newTrainService(t)
		now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(1)).
			WillReturnRows(trainRow(1, "garbage", "09:40", 450))
		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		detail, err := svc.GetDetail(1, now)
		require.NoError(t, err)
		assert.Equal(t, models.RunNotStarted, detail.RunStatus)
		assert.Zero(t, detail.Progress)
	})

	t.Run("Unknown Train", func(t *testing.T) {
		svc, mock := newTrainService(t)

		mock.ExpectQuery(`SELECT (.+) FROM trains WHERE id`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.GetDetail(99, time.Now())
		assert.ErrorIs(t, err, models.ErrTrainNotFound)
	})
}
