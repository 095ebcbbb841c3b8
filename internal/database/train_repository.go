package database

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/railswift/booking-backend/internal/models"
)

// TrainRepository handles train database operations
type TrainRepository struct {
	db *sqlx.DB
}

// NewTrainRepository creates a new TrainRepository
func NewTrainRepository(db *sqlx.DB) *TrainRepository {
	return &TrainRepository{db: db}
}

// List returns all trains ordered by departure time
func (r *TrainRepository) List() ([]models.Train, error) {
	query := `
		SELECT
			id, name, source_station, dest_station,
			source_lat, source_lon, dest_lat, dest_lon,
			departure_time, arrival_time, delay_minutes,
			total_seats, fare, created_at, updated_at
		FROM trains
		ORDER BY departure_time, id`

	trains := make([]models.Train, 0)
	if err := r.db.Select(&trains, query); err != nil {
		return nil, err
	}
	return trains, nil
}

// GetByID retrieves a train by ID. Returns nil when no train exists.
func (r *TrainRepository) GetByID(trainID int64) (*models.Train, error) {
	var train models.Train
	query := `
		SELECT
			id, name, source_station, dest_station,
			source_lat, source_lon, dest_lat, dest_lon,
			departure_time, arrival_time, delay_minutes,
			total_seats, fare, created_at, updated_at
		FROM trains
		WHERE id = $1`

	err := r.db.Get(&train, query, trainID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &train, nil
}

// UpdateDelay sets the current delay for a train
func (r *TrainRepository) UpdateDelay(trainID int64, delayMinutes int) error {
	query := `
		UPDATE trains
		SET delay_minutes = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.Exec(query, delayMinutes, trainID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.ErrTrainNotFound
	}
	return nil
}
