package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photosense-backend/internal/config"
	"photosense-backend/internal/models"
	"photosense-backend/internal/services/history"
	"photosense-backend/internal/services/ingest"
	"photosense-backend/internal/services/pipeline"
)

const uploadParamKey = "file"

// AnalysisHandler glues ingest, pipeline, and history behind the HTTP API.
type AnalysisHandler struct {
	ingester *ingest.Ingester
	pipeline *pipeline.Pipeline
	history  *history.Store
	logger   *zap.Logger
	config   *config.Config
	started  time.Time
}

func NewAnalysisHandler(
	ingester *ingest.Ingester,
	pipe *pipeline.Pipeline,
	historyStore *history.Store,
	logger *zap.Logger,
	cfg *config.Config,
) *AnalysisHandler {
	return &AnalysisHandler{
		ingester: ingester,
		pipeline: pipe,
		history:  historyStore,
		logger:   logger,
		config:   cfg,
		started:  time.Now(),
	}
}

// HealthCheck reports liveness only. It must stay cheap: no model state, no
// disk access.
func (h *AnalysisHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthCheck{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *AnalysisHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
