package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/internal/services"
)

// TicketHandler handles ticket lookup and cancellation endpoints
type TicketHandler struct {
	ticketService *services.TicketService
	logger        *logrus.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(ticketService *services.TicketService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{ticketService: ticketService, logger: logger}
}

// GetByPNR looks up a ticket by booking reference
// @Summary Get a ticket by PNR
// @Tags Tickets
// @Produce json
// @Param pnr path string true "PNR"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} map[string]interface{}
// @Router /tickets/{pnr} [get]
func (h *TicketHandler) GetByPNR(c *gin.Context) {
	ticket, err := h.ticketService.GetByPNR(c.Param("pnr"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticket":     ticket,
		"qr_payload": ticket.QRPayload(),
	})
}

// ListByEmail returns a passenger's booking history
// @Summary List tickets for a passenger
// @Tags Tickets
// @Produce json
// @Param email query string true "Passenger email"
// @Success 200 {array} models.Ticket
// @Router /tickets [get]
func (h *TicketHandler) ListByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	tickets, err := h.ticketService.ListByEmail(email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// Cancel releases a ticket's seat
// @Summary Cancel a ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path int true "Ticket ID"
// @Param request body models.CancelTicketRequest true "Cancellation request"
// @Success 200 {object} models.Ticket
// @Failure 403 {object} map[string]interface{} "Not the ticket owner"
// @Failure 422 {object} map[string]interface{} "Cancellation window closed"
// @Router /tickets/{id}/cancel [post]
func (h *TicketHandler) Cancel(c *gin.Context) {
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || ticketID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	var req models.CancelTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ticket, err := h.ticketService.Cancel(ticketID, req.Email, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
