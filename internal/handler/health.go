package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"multichat/internal/model"
)

const appVersion = "1.0.0"

// HealthHandler 返回服务与各组件状态
type HealthHandler struct {
	storageType string
	hasModelKey bool
}

func NewHealthHandler(storageType string, hasModelKey bool) *HealthHandler {
	return &HealthHandler{
		storageType: storageType,
		hasModelKey: hasModelKey,
	}
}

// Health 处理 GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	modelStatus := "configured"
	if !h.hasModelKey {
		modelStatus = "not_configured"
	}

	c.JSON(http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Version:   appVersion,
		Timestamp: model.Now(),
		Components: map[string]string{
			"storage": h.storageType,
			"model":   modelStatus,
		},
	})
}
