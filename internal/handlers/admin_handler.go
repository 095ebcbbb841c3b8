package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/models"
	"github.com/railswift/booking-backend/internal/services"
)

// AdminHandler handles the operator surface: login, delay injection,
// simulation control and revenue reporting
type AdminHandler struct {
	authService  *services.AdminAuthService
	trainService *services.TrainService
	liveService  *services.LivePositionService
	cronService  *services.CronService
	ledgerRepo   revenueSource
	logger       *logrus.Logger
}

// revenueSource is the slice of the ledger repository the admin surface needs
type revenueSource interface {
	Revenue(from, to time.Time) (*models.RevenueReport, error)
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	authService *services.AdminAuthService,
	trainService *services.TrainService,
	liveService *services.LivePositionService,
	cronService *services.CronService,
	ledgerRepo revenueSource,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		trainService: trainService,
		liveService:  liveService,
		cronService:  cronService,
		ledgerRepo:   ledgerRepo,
		logger:       logger,
	}
}

// LoginRequest is the operator login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates the operator and returns a bearer token
// @Summary Operator login
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// UpdateDelay injects a delay into a train's schedule
// @Summary Update train delay
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Train ID"
// @Param request body models.UpdateDelayRequest true "Delay"
// @Success 200 {object} map[string]interface{}
// @Router /admin/trains/{id}/delay [put]
func (h *AdminHandler) UpdateDelay(c *gin.Context) {
	trainID, ok := parseTrainID(c)
	if !ok {
		return
	}

	var req models.UpdateDelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.trainService.UpdateDelay(trainID, req.DelayMinutes); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"train_id":      trainID,
		"delay_minutes": req.DelayMinutes,
	})
}

// StopSimulation halts the live-position simulation for a train
// @Summary Stop a train's live simulation
// @Tags Admin
// @Produce json
// @Param id path int true "Train ID"
// @Success 200 {object} map[string]interface{}
// @Router /admin/trains/{id}/stop-simulation [post]
func (h *AdminHandler) StopSimulation(c *gin.Context) {
	trainID, ok := parseTrainID(c)
	if !ok {
		return
	}
	h.liveService.StopSimulation(trainID)
	c.JSON(http.StatusOK, gin.H{"train_id": trainID, "simulation": "stopped"})
}

// Revenue reports captured payments in a date range (defaults to the last
// 30 days)
// @Summary Revenue report
// @Tags Admin
// @Produce json
// @Param from query string false "From date YYYY-MM-DD"
// @Param to query string false "To date YYYY-MM-DD"
// @Success 200 {object} models.RevenueReport
// @Router /admin/revenue [get]
func (h *AdminHandler) Revenue(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		// Inclusive end date
		to = parsed.AddDate(0, 0, 1)
	}

	report, err := h.ledgerRepo.Revenue(from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CronStatus reports scheduled job state
// @Summary Background job status
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin/cron/status [get]
func (h *AdminHandler) CronStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cronService.GetJobStatus())
}

// RunScan triggers the simulator scan immediately
// @Summary Trigger simulator scan
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /admin/cron/run-scan [post]
func (h *AdminHandler) RunScan(c *gin.Context) {
	h.cronService.RunScanNow()
	c.JSON(http.StatusOK, gin.H{"message": "scan triggered"})
}
