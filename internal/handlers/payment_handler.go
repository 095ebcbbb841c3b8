package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/internal/services"
	"github.com/railswift/booking-backend/internal/utils"
)

// PaymentHandler handles payment flow endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

// CreateOrder registers a gateway order for an intent
// @Summary Create a payment order
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Order request"
// @Success 200 {object} models.CreateOrderResponse
// @Failure 422 {object} map[string]interface{} "Intent not payable"
// @Failure 502 {object} map[string]interface{} "Gateway error"
// @Router /payment/create-order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	intentID, err := uuid.Parse(req.IntentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	response, err := h.paymentService.CreateOrder(intentID, time.Now(), clientMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// VerifyPayment authenticates a gateway approval and confirms the booking
// @Summary Verify a payment and confirm the ticket
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body models.VerifyPaymentRequest true "Verification request"
// @Success 200 {object} models.VerifyPaymentResponse
// @Failure 400 {object} map[string]interface{} "Verification failed"
// @Failure 409 {object} map[string]interface{} "Seat lost to a concurrent booking"
// @Router /payment/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	intentID, err := uuid.Parse(req.IntentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	response, err := h.paymentService.VerifyAndConfirm(intentID, &req, time.Now(), clientMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ReportFailure records a gateway decline or abandoned checkout
// @Summary Report a failed payment
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body models.PaymentFailureRequest true "Failure report"
// @Success 200 {object} map[string]interface{}
// @Router /payment/failure [post]
func (h *PaymentHandler) ReportFailure(c *gin.Context) {
	var req models.PaymentFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	intentID, err := uuid.Parse(req.IntentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	if err := h.paymentService.RecordFailure(intentID, clientMeta(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "FAILED"})
}

// SimulatePayment confirms an intent without a gateway (non-production only)
// @Summary Simulate a successful payment
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body models.PaymentFailureRequest true "Simulation request"
// @Success 200 {object} models.VerifyPaymentResponse
// @Failure 403 {object} map[string]interface{} "Simulation disabled"
// @Router /payment/simulate [post]
func (h *PaymentHandler) SimulatePayment(c *gin.Context) {
	var req models.PaymentFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	intentID, err := uuid.Parse(req.IntentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}

	response, err := h.paymentService.SimulatePayment(intentID, time.Now(), clientMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func clientMeta(c *gin.Context) *models.ClientMeta {
	return &models.ClientMeta{
		IP:        utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}
