package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/railswift/booking-backend/internal/database"
)

// generatePNR builds a booking reference: train id padded to 3 digits,
// travel date as YYYYMMDD, 4 random digits. Retries on the rare collision.
func generatePNR(ticketRepo *database.TicketRepository, trainID int64, travelDate time.Time) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", fmt.Errorf("failed to generate PNR suffix: %w", err)
		}
		pnr := fmt.Sprintf("%03d%s%04d", trainID, travelDate.Format("20060102"), n.Int64())

		exists, err := ticketRepo.PNRExists(pnr)
		if err != nil {
			return "", err
		}
		if !exists {
			return pnr, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique PNR after 10 attempts")
}
