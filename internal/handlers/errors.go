package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
)

// respondError translates service errors into HTTP responses. BookingError
// codes map onto the status taxonomy; anything else is an internal error
// logged server-side and returned as a generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if be, ok := models.AsBookingError(err); ok {
		c.JSON(statusFor(be.Code), gin.H{
			"error":      be.Message,
			"reasonCode": be.Code,
		})
		return
	}

	logger.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func statusFor(code models.ReasonCode) int {
	switch code {
	case models.ReasonValidation, models.ReasonInvalidSignature:
		// Signature mismatches deliberately share the validation status and
		// a generic message; probes learn nothing from the response.
		return http.StatusBadRequest
	case models.ReasonNotFound:
		return http.StatusNotFound
	case models.ReasonForbidden:
		return http.StatusForbidden
	case models.ReasonSeatConflict:
		return http.StatusConflict
	case models.ReasonPastDate, models.ReasonDeparted,
		models.ReasonIntentExpired, models.ReasonIntentTerminal, models.ReasonAlreadyPaid:
		return http.StatusUnprocessableEntity
	case models.ReasonGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
