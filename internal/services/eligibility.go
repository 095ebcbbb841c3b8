package services

import (
	"time"

	"github.com/railswift/booking-backend/internal/models"
)

// EligibilityResult is the outcome of a booking/cancellation eligibility check.
type EligibilityResult struct {
	Allowed          bool
	Reason           models.ReasonCode
	MinutesRemaining int // set only for same-day allowed results
}

// CheckEligibility decides whether a booking or cancellation for travelDate
// on a train departing at departureTimeOfDay ("HH:MM") is permitted at now.
//
// Pure and deterministic. The same function runs at intent creation, at
// payment validation, and at cancellation; the payment-time evaluation is
// authoritative since an intent can be created minutes before departure and
// paid after it.
//
// travelDate is a date-only value carried at midnight UTC; its calendar day
// is compared against now's calendar day in now's location, so classification
// does not shift with the server's zone. Dates strictly before today are
// rejected (PAST_DATE). Dates strictly after today are allowed (FUTURE_DATE).
// On the travel day itself the window closes sameDayCutoff before the
// scheduled departure instant (zero cutoff closes it at departure): before
// the cutoff the result is SAME_DAY_OPEN with the minutes remaining, after
// it DEPARTED. Delay never extends the window.
func CheckEligibility(travelDate time.Time, departureTimeOfDay string, now time.Time, sameDayCutoff time.Duration) EligibilityResult {
	today := truncateToDay(now)
	travelDay := calendarDay(travelDate, now.Location())

	if travelDay.Before(today) {
		return EligibilityResult{Allowed: false, Reason: models.ReasonPastDate}
	}
	if travelDay.After(today) {
		return EligibilityResult{Allowed: true, Reason: models.ReasonFutureDate}
	}

	departure, err := atTimeOfDay(today, departureTimeOfDay)
	if err != nil {
		// Unparseable schedule: close the window rather than sell a seat on
		// a train we cannot place in time.
		return EligibilityResult{Allowed: false, Reason: models.ReasonDeparted}
	}

	cutoff := departure.Add(-sameDayCutoff)
	if now.Before(cutoff) {
		remaining := int(cutoff.Sub(now).Minutes())
		return EligibilityResult{Allowed: true, Reason: models.ReasonSameDayOpen, MinutesRemaining: remaining}
	}
	return EligibilityResult{Allowed: false, Reason: models.ReasonDeparted}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// calendarDay reads a date-only value by its UTC components and re-anchors
// that calendar day in loc, keeping day comparisons in a single location.
func calendarDay(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// travelDateKey maps now to the stored travel_date representation, midnight
// UTC of now's calendar day.
func travelDateKey(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
