package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkent-market/internal/service"
)

// MaintenanceHandler expone limpieza de anuncios vencidos y health check.
type MaintenanceHandler struct {
	logger  *zap.Logger
	sweeper *service.SweeperService
}

// NewMaintenanceHandler crea una instancia de MaintenanceHandler.
func NewMaintenanceHandler(logger *zap.Logger, sweeper *service.SweeperService) *MaintenanceHandler {
	return &MaintenanceHandler{
		logger:  logger,
		sweeper: sweeper,
	}
}

// CleanupExpired maneja POST /api/cleanup-expired. Sin auth: lo dispara
// un cron externo.
func (h *MaintenanceHandler) CleanupExpired(c *gin.Context) {
	cleaned, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		h.logger.Error("cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cleaned": cleaned})
}

// Health maneja GET /api/health.
func (h *MaintenanceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
