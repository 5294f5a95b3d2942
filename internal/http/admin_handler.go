package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkent-market/internal/service"
)

// AdminHandler mantiene dependencias para el endpoint de administración.
type AdminHandler struct {
	logger   *zap.Logger
	adminSvc *service.AdminService
}

// NewAdminHandler crea una instancia de AdminHandler con dependencias necesarias.
func NewAdminHandler(logger *zap.Logger, adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{
		logger:   logger,
		adminSvc: adminSvc,
	}
}

// Execute maneja POST /api/admin. El body lleva la acción junto con sus
// parámetros planos; el resto del body se decodifica en el comando tipado.
func (h *AdminHandler) Execute(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	cmd, err := service.DecodeAdminCommand(envelope.Action, raw)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
			return
		}
		h.logger.Warn("invalid admin params", zap.Error(err), zap.String("action", envelope.Action))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.adminSvc.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Error("admin action failed", zap.Error(err), zap.String("action", envelope.Action))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin action failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
