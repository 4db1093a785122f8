package handler

import (
	"net/http"

	"github.com/edirooss/nvr-server/internal/config"
	"github.com/edirooss/nvr-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SystemHandler struct {
	log *zap.Logger
	svc *service.SystemInfoService
}

func NewSystemHandler(log *zap.Logger, svc *service.SystemInfoService) *SystemHandler {
	return &SystemHandler{log.Named("system"), svc}
}

// GetSystemInfo reports CPU, storage volume and memory usage.
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info, err := h.svc.Get(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func Ping(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) }

func Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    config.Version,
		"commit":     config.GitCommit,
		"build_date": config.BuildDate,
	})
}
