package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTravelDate(t *testing.T) {
	t.Run("Valid Date", func(t *testing.T) {
		parsed, err := ParseTravelDate("2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), parsed)
	})

	t.Run("Empty Date", func(t *testing.T) {
		_, err := ParseTravelDate("")
		assert.ErrorIs(t, err, ErrEmptyDate)
	})

	t.Run("Wrong Format", func(t *testing.T) {
		for _, input := range []string{"10-03-2026", "2026/03/10", "2026-3-1", "tomorrow"} {
			_, err := ParseTravelDate(input)
			assert.ErrorIs(t, err, ErrInvalidDateFormat, "input %q", input)
		}
	})

	t.Run("Impossible Date", func(t *testing.T) {
		_, err := ParseTravelDate("2026-02-30")
		assert.Error(t, err)
	})
}

func TestValidateSeatNo(t *testing.T) {
	t.Run("Valid Seats", func(t *testing.T) {
		for _, seat := range []string{"A1", "B12", "S101", "a1", " C7 "} {
			assert.NoError(t, ValidateSeatNo(seat), "seat %q", seat)
		}
	})

	t.Run("Invalid Seats", func(t *testing.T) {
		for _, seat := range []string{"", "1A", "AA1", "A1234", "A", "A-1"} {
			assert.Error(t, ValidateSeatNo(seat), "seat %q", seat)
		}
	})
}

func TestNormalizeSeatNo(t *testing.T) {
	assert.Equal(t, "A1", NormalizeSeatNo(" a1 "))
	assert.Equal(t, "C42", NormalizeSeatNo("c42"))
}
