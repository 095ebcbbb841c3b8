package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/internal/services"
)

// BookingHandler handles booking creation endpoints
type BookingHandler struct {
	intentService *services.BookingIntentService
	ticketService *services.TicketService
	logger        *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	intentService *services.BookingIntentService,
	ticketService *services.TicketService,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		intentService: intentService,
		ticketService: ticketService,
		logger:        logger,
	}
}

// BookTicket opens a booking intent for a seat
// @Summary Book a ticket
// @Description Creates a booking intent holding the seat until payment or expiry
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body models.BookTicketRequest true "Booking request"
// @Success 201 {object} models.BookTicketResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 409 {object} map[string]interface{} "Seat already booked"
// @Failure 422 {object} map[string]interface{} "Booking window closed"
// @Router /book-ticket [post]
func (h *BookingHandler) BookTicket(c *gin.Context) {
	var req models.BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	response, err := h.intentService.CreateIntent(&req, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// Idempotent retry returns the existing ticket with 200
	if response.Ticket != nil {
		c.JSON(http.StatusOK, response)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// BookDirect is the legacy direct-booking endpoint retained for older clients
// @Summary Book a ticket directly (legacy)
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body models.DirectBookRequest true "Direct booking request"
// @Success 201 {object} models.Ticket
// @Failure 409 {object} map[string]interface{} "Seat already booked"
// @Router /book-ticket/direct [post]
func (h *BookingHandler) BookDirect(c *gin.Context) {
	var req models.DirectBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ticket, err := h.ticketService.BookDirect(&req, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}
