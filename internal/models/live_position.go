package models

import "time"

// LivePositionSnapshot is the ephemeral per-train position row, continuously
// overwritten by the simulator (upsert keyed by train id). Not part of the
// durable business record; losing it just means the next tick rewrites it.
type LivePositionSnapshot struct {
	TrainID    int64     `json:"train_id" db:"train_id"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	SpeedKmh   float64   `json:"speed_kmh" db:"speed_kmh"`
	HeadingDeg float64   `json:"heading_deg" db:"heading_deg"`
	Progress   float64   `json:"progress" db:"progress"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// LiveLocationResponse is returned from GET /trains/:id/live-location.
// Degraded is set when the schedule window could not be resolved and the
// response falls back to the raw last-known coordinates.
type LiveLocationResponse struct {
	TrainID    int64     `json:"trainId"`
	Status     RunStatus `json:"status"`
	Progress   float64   `json:"progress"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   float64   `json:"speedKmh"`
	HeadingDeg float64   `json:"headingDeg"`
	Degraded   bool      `json:"degraded,omitempty"`
	ServerTime time.Time `json:"serverTime"`
}
