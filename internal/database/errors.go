package database

import (
	"errors"

	"github.com/lib/pq"
)

// seatExclusivityConstraint is the partial unique index guarding one live
// ticket per (train, travel date, seat).
const seatExclusivityConstraint = "uniq_live_seat"

// IsUniqueViolation reports whether err is a PostgreSQL unique violation,
// optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
