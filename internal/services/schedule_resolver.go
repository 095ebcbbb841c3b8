package services

import (
	"fmt"
	"time"

	"github.com/railswift/booking-backend/internal/models"
)

// ScheduleWindow is a train's schedule resolved to absolute instants around
// a reference time.
type ScheduleWindow struct {
	Departure time.Time
	Arrival   time.Time
}

// defaultRunDuration backstops schedules whose projected duration collapses
// to zero or negative, which would otherwise break progress interpolation.
const defaultRunDuration = time.Hour

// ResolveWindow projects a train's departure/arrival times-of-day ("HH:MM")
// onto absolute instants around now, then shifts only the arrival by the
// delay. Delay never moves departure, so it can never reopen a closed
// booking window.
//
// For overnight runs (arrival time-of-day strictly before departure's) the
// projection is ambiguous; the placement that keeps now inside or nearest
// the plausible running window wins: if now is before today's arrival
// projection the departure belongs to yesterday, otherwise the arrival
// belongs to tomorrow.
//
// Returns nil on unparseable input. Callers treat nil as "schedule unknown"
// and fall back to a degraded computation from raw coordinates.
func ResolveWindow(now time.Time, departureTimeOfDay, arrivalTimeOfDay string, delayMinutes int) *ScheduleWindow {
	today := truncateToDay(now)

	departure, err := atTimeOfDay(today, departureTimeOfDay)
	if err != nil {
		return nil
	}
	arrival, err := atTimeOfDay(today, arrivalTimeOfDay)
	if err != nil {
		return nil
	}

	// Equal projections are not an overnight run; they fall through to the
	// default-duration backstop below.
	if arrival.Before(departure) {
		// Overnight run
		if now.Before(arrival) {
			departure = departure.AddDate(0, 0, -1)
		} else {
			arrival = arrival.AddDate(0, 0, 1)
		}
	}

	if !arrival.After(departure) {
		arrival = departure.Add(defaultRunDuration)
	}

	arrival = arrival.Add(time.Duration(delayMinutes) * time.Minute)

	return &ScheduleWindow{Departure: departure, Arrival: arrival}
}

// DeriveStatus classifies now against a resolved window.
func DeriveStatus(now time.Time, w *ScheduleWindow) models.RunStatus {
	switch {
	case now.Before(w.Departure):
		return models.RunNotStarted
	case now.Before(w.Arrival):
		return models.RunRunning
	default:
		return models.RunArrived
	}
}

// DeriveProgress returns the elapsed fraction of the window, clamped to [0,1].
func DeriveProgress(now time.Time, w *ScheduleWindow) float64 {
	total := w.Arrival.Sub(w.Departure)
	if total <= 0 {
		total = defaultRunDuration
	}
	progress := float64(now.Sub(w.Departure)) / float64(total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// atTimeOfDay combines a calendar day with an "HH:MM" time-of-day.
func atTimeOfDay(day time.Time, timeOfDay string) (time.Time, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(timeOfDay, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", timeOfDay, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day %q", timeOfDay)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}
