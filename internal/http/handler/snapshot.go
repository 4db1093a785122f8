package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/edirooss/nvr-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SnapshotHandler struct {
	log *zap.Logger
	svc *service.SnapshotService
}

func NewSnapshotHandler(log *zap.Logger, svc *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{log.Named("snapshot"), svc}
}

// GetSnapshot handles GET .../snapshot/:id/:width and responds with a JPEG.
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	width, err := strconv.Atoi(c.Param("width"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrInvalidWidth.Error()})
		return
	}

	img, err := h.svc.Capture(c.Request.Context(), c.Param("id"), width)
	if err != nil {
		c.Error(err)
		switch {
		case errors.Is(err, service.ErrUnknownCamera):
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		case errors.Is(err, service.ErrInvalidWidth):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		case errors.Is(err, service.ErrSnapshotBusy):
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": service.ErrSnapshotFailed.Error()})
		}
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/jpeg", img)
}
