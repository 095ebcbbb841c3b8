package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/services"
)

// TrainHandler handles train listing and live-location endpoints
type TrainHandler struct {
	trainService *services.TrainService
	liveService  *services.LivePositionService
	logger       *logrus.Logger
}

// NewTrainHandler creates a new TrainHandler
func NewTrainHandler(
	trainService *services.TrainService,
	liveService *services.LivePositionService,
	logger *logrus.Logger,
) *TrainHandler {
	return &TrainHandler{
		trainService: trainService,
		liveService:  liveService,
		logger:       logger,
	}
}

// ListTrains returns all trains
// @Summary List trains
// @Tags Trains
// @Produce json
// @Success 200 {array} models.Train
// @Router /trains [get]
func (h *TrainHandler) ListTrains(c *gin.Context) {
	trains, err := h.trainService.List()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trains)
}

// GetTrain returns a single train with its current run status
// @Summary Get a train
// @Tags Trains
// @Produce json
// @Param id path int true "Train ID"
// @Success 200 {object} services.TrainDetail
// @Failure 404 {object} map[string]interface{}
// @Router /trains/{id} [get]
func (h *TrainHandler) GetTrain(c *gin.Context) {
	trainID, ok := parseTrainID(c)
	if !ok {
		return
	}

	detail, err := h.trainService.GetDetail(trainID, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// LiveLocation returns the current simulated position of a train
// @Summary Get live train location
// @Tags Trains
// @Produce json
// @Param id path int true "Train ID"
// @Success 200 {object} models.LiveLocationResponse
// @Failure 404 {object} map[string]interface{}
// @Router /trains/{id}/live-location [get]
func (h *TrainHandler) LiveLocation(c *gin.Context) {
	trainID, ok := parseTrainID(c)
	if !ok {
		return
	}

	response, err := h.liveService.GetLiveLocation(trainID, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func parseTrainID(c *gin.Context) (int64, bool) {
	trainID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || trainID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid train id"})
		return 0, false
	}
	return trainID, true
}
