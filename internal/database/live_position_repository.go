package database

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/railswift/booking-backend/internal/models"
)

// LivePositionRepository persists the latest simulated position per train
type LivePositionRepository struct {
	db *sqlx.DB
}

// NewLivePositionRepository creates a new LivePositionRepository
func NewLivePositionRepository(db *sqlx.DB) *LivePositionRepository {
	return &LivePositionRepository{db: db}
}

// Upsert overwrites the snapshot for a train. One row per train; history is
// not kept.
func (r *LivePositionRepository) Upsert(snap *models.LivePositionSnapshot) error {
	query := `
		INSERT INTO live_positions (
			train_id, latitude, longitude, speed_kmh, heading_deg, progress, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (train_id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			speed_kmh = EXCLUDED.speed_kmh,
			heading_deg = EXCLUDED.heading_deg,
			progress = EXCLUDED.progress,
			recorded_at = EXCLUDED.recorded_at`

	_, err := r.db.Exec(query,
		snap.TrainID, snap.Latitude, snap.Longitude,
		snap.SpeedKmh, snap.HeadingDeg, snap.Progress, snap.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert live position: %w", err)
	}
	return nil
}

// GetByTrainID returns the latest snapshot for a train, or nil when the
// simulator has not written one yet.
func (r *LivePositionRepository) GetByTrainID(trainID int64) (*models.LivePositionSnapshot, error) {
	var snap models.LivePositionSnapshot
	query := `
		SELECT train_id, latitude, longitude, speed_kmh, heading_deg, progress, recorded_at
		FROM live_positions
		WHERE train_id = $1`

	err := r.db.Get(&snap, query, trainID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
