package handler

import (
	"errors"
	"net/http"
	"time"

	mw "github.com/edirooss/nvr-server/internal/http/middleware"
	"github.com/edirooss/nvr-server/internal/live"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type StreamsHandlerOptions struct {
	QueueDepth   int  // payloads buffered per viewer, default live.DefaultQueueDepth
	AnyOrigin    bool // accept cross-origin upgrades (dev only)
	WriteTimeout time.Duration
}

// StreamsHandler upgrades viewers to websockets and attaches them to the
// camera's current live channel. Every initialization payload and every
// fragment is one binary message; the socket is closed normally when the
// encoder restarts so the client reconnects and gets the fresh init.
type StreamsHandler struct {
	log      *zap.Logger
	hub      *live.Hub
	upgrader websocket.Upgrader
	opts     StreamsHandlerOptions
}

func NewStreamsHandler(log *zap.Logger, hub *live.Hub, opts StreamsHandlerOptions) *StreamsHandler {
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = live.DefaultQueueDepth
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = writeWait
	}

	h := &StreamsHandler{log: log.Named("streams"), hub: hub, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 << 10,
	}
	if opts.AnyOrigin {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return h
}

// Stream handles GET /streams/:id.
func (h *StreamsHandler) Stream(c *gin.Context) {
	cam := mw.GetCamera(c)
	ch, ok := h.hub.Get(cam.ID)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "camera is not streaming"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already replied.
		c.Error(err)
		return
	}
	defer conn.Close()

	log := h.log.With(zap.String("camera", cam.ID), zap.String("remote", c.ClientIP()))

	v := live.NewQueueViewer(h.opts.QueueDepth)
	if err := ch.Join(v); err != nil {
		reason := "stream restarting"
		if !errors.Is(err, live.ErrChannelClosed) {
			reason = "viewer rejected"
		}
		log.Debug("join failed", zap.Error(err))
		h.closeWith(conn, websocket.CloseTryAgainLater, reason)
		return
	}
	defer ch.Leave(v)

	log.Debug("viewer joined", zap.String("viewer", v.ID()), zap.Int("viewers", ch.Len()))

	go h.readPump(conn, v)
	h.writePump(conn, v)

	log.Debug("viewer left", zap.String("viewer", v.ID()))
}

// readPump consumes control frames and reports a vanished client by closing
// the viewer. Viewers are not expected to send data.
func (h *StreamsHandler) readPump(conn *websocket.Conn, v *live.QueueViewer) {
	defer v.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on conn.
func (h *StreamsHandler) writePump(conn *websocket.Conn, v *live.QueueViewer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case p, ok := <-v.C():
			if !ok {
				h.closeWith(conn, websocket.CloseNormalClosure, "stream ended")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
				v.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				v.Close()
				return
			}
		}
	}
}

func (h *StreamsHandler) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.opts.WriteTimeout))
}
