package handler

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	mw "github.com/edirooss/nvr-server/internal/http/middleware"
	"github.com/edirooss/nvr-server/internal/recording"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const playlistName = "index.m3u8"

// SegmentsHandler serves a camera's recordings straight from disk.
type SegmentsHandler struct {
	log    *zap.Logger
	layout recording.Layout
}

func NewSegmentsHandler(log *zap.Logger, layout recording.Layout) *SegmentsHandler {
	return &SegmentsHandler{log.Named("segments"), layout}
}

// GetSegmentFile handles GET /segments/:id/:file. index.m3u8 is the VOD
// playlist of everything on disk; any other name must be a segment file and
// is served with byte-range support.
func (h *SegmentsHandler) GetSegmentFile(c *gin.Context) {
	cam := mw.GetCamera(c)
	name := c.Param("file")

	if name == playlistName {
		h.getPlaylist(c, cam.ID)
		return
	}

	if name != filepath.Base(name) || strings.ToLower(filepath.Ext(name)) != ".mp4" {
		c.Status(http.StatusNotFound)
		return
	}
	if _, err := recording.ParseFilename(name); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// c.File goes through http.ServeContent: Range, If-Modified-Since and 404
	// for files that do not exist.
	c.Header("Accept-Ranges", "bytes")
	c.File(filepath.Join(h.layout.CameraDir(cam.ID), name))
}

func (h *SegmentsHandler) getPlaylist(c *gin.Context, cameraID string) {
	segs, err := recording.List(cameraID, h.layout.CameraDir(cameraID))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	pl, err := recording.Playlist(segs, path.Join("/segments", cameraID))
	if err != nil {
		if errors.Is(err, recording.ErrNoRecordings) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/vnd.apple.mpegurl", []byte(pl))
}

// GetSegmentList handles GET /api/cameras/:id/segments.
func (h *SegmentsHandler) GetSegmentList(c *gin.Context) {
	cam := mw.GetCamera(c)

	segs, err := recording.List(cam.ID, h.layout.CameraDir(cam.ID))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if segs == nil {
		segs = []recording.Segment{}
	}

	c.Header("X-Total-Count", strconv.Itoa(len(segs)))
	c.JSON(http.StatusOK, segs)
}
