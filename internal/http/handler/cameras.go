package handler

import (
	"net/http"
	"strconv"

	"github.com/edirooss/nvr-server/internal/domain/camera"
	mw "github.com/edirooss/nvr-server/internal/http/middleware"
	"github.com/edirooss/nvr-server/internal/infrastructure/processmgr"
	"github.com/edirooss/nvr-server/internal/live"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CamerasHandler struct {
	log  *zap.Logger
	cams camera.List
	hub  *live.Hub
	logs *processmgr.LogManager
}

func NewCamerasHandler(log *zap.Logger, cams camera.List, hub *live.Hub, logs *processmgr.LogManager) *CamerasHandler {
	return &CamerasHandler{log.Named("cameras"), cams, hub, logs}
}

type cameraSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Continuous bool   `json:"continuous"`
}

// GetCameraList returns every configured camera in configuration order.
func (h *CamerasHandler) GetCameraList(c *gin.Context) {
	out := make([]cameraSummary, 0, len(h.cams))
	for _, cam := range h.cams {
		out = append(out, cameraSummary{cam.ID, cam.Name, cam.Continuous})
	}

	c.Header("X-Total-Count", strconv.Itoa(len(out)))
	c.JSON(http.StatusOK, out)
}

// GetCameraStatus reports whether a camera's encoder is up, whether its live
// stream has started, and how many viewers are watching.
func (h *CamerasHandler) GetCameraStatus(c *gin.Context) {
	cam := mw.GetCamera(c)

	res := gin.H{"id": cam.ID, "online": false, "streaming": false, "viewers": 0}
	if ch, ok := h.hub.Get(cam.ID); ok {
		res["online"] = true
		res["streaming"] = ch.Initialization() != nil
		res["viewers"] = ch.Len()
	}
	c.JSON(http.StatusOK, res)
}

// GetCameraLogs returns the camera's supervisor events, newest first.
// ?lines=N limits the count; 0 or absent returns everything held.
func (h *CamerasHandler) GetCameraLogs(c *gin.Context) {
	cam := mw.GetCamera(c)

	lines := 0
	if v := c.Query("lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "lines must be a non-negative integer"})
			return
		}
		lines = n
	}

	entries, _ := h.logs.Read(cam.ID, lines)
	if entries == nil {
		entries = []processmgr.LogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
