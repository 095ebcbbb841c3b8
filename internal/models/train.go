package models

import "time"

// Train holds reference/schedule data for a service that runs every day.
// Departure and arrival are times of day ("15:04"), not bound to a specific
// date; the schedule resolver projects them onto a calendar date at read
// time. Everything here is immutable except DelayMinutes, which an operator
// mutates and in-flight position simulations pick up on their next tick.
type Train struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	SourceStation string  `json:"source_station" db:"source_station"`
	DestStation   string  `json:"dest_station" db:"dest_station"`
	SourceLat     float64 `json:"source_lat" db:"source_lat"`
	SourceLon     float64 `json:"source_lon" db:"source_lon"`
	DestLat       float64 `json:"dest_lat" db:"dest_lat"`
	DestLon       float64 `json:"dest_lon" db:"dest_lon"`

	DepartureTime string `json:"departure_time" db:"departure_time"` // "HH:MM"
	ArrivalTime   string `json:"arrival_time" db:"arrival_time"`     // "HH:MM"
	DelayMinutes  int    `json:"delay_minutes" db:"delay_minutes"`

	TotalSeats int     `json:"total_seats" db:"total_seats"`
	Fare       float64 `json:"fare" db:"fare"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RunStatus is the coarse state of a train run derived from the resolved
// schedule window.
type RunStatus string

const (
	RunNotStarted RunStatus = "NOT_STARTED"
	RunRunning    RunStatus = "RUNNING"
	RunArrived    RunStatus = "ARRIVED"
)

// UpdateDelayRequest is the operator request to inject a delay.
type UpdateDelayRequest struct {
	DelayMinutes int `json:"delay_minutes" binding:"min=0"`
}
