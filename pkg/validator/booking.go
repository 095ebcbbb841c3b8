package validator

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidDateFormat indicates a travel date not in YYYY-MM-DD format
	ErrInvalidDateFormat = errors.New("travel date must be in YYYY-MM-DD format")

	// ErrEmptyDate indicates an empty travel date
	ErrEmptyDate = errors.New("travel date cannot be empty")

	// ErrInvalidSeatNo indicates a seat number outside the coach layout
	ErrInvalidSeatNo = errors.New("seat number must be a coach letter followed by 1-3 digits")

	// ErrEmptySeatNo indicates an empty seat number
	ErrEmptySeatNo = errors.New("seat number cannot be empty")
)

// seatRegex matches coach-letter + seat-index, e.g. A1, C42, S101
var seatRegex = regexp.MustCompile(`^[A-Z][0-9]{1,3}$`)

// ParseTravelDate parses a YYYY-MM-DD travel date. The returned time carries
// only the calendar day (midnight UTC); eligibility logic supplies the
// departure time-of-day separately.
func ParseTravelDate(date string) (time.Time, error) {
	if date == "" {
		return time.Time{}, ErrEmptyDate
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return parsed, nil
}

// ValidateSeatNo validates a seat number. Input is upper-cased and trimmed
// before matching so "a1 " and "A1" name the same seat.
func ValidateSeatNo(seatNo string) error {
	seatNo = strings.ToUpper(strings.TrimSpace(seatNo))
	if seatNo == "" {
		return ErrEmptySeatNo
	}
	if !seatRegex.MatchString(seatNo) {
		return ErrInvalidSeatNo
	}
	return nil
}

// NormalizeSeatNo returns the canonical form of a seat number
func NormalizeSeatNo(seatNo string) string {
	return strings.ToUpper(strings.TrimSpace(seatNo))
}
