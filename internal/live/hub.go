package live

import "sync"

// Hub maps a camera ID to the channel of its current spawn cycle.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]*Channel)}
}

// Swap installs ch as the current channel for its camera and returns the
// one it replaced, if any. The caller owns closing the old channel.
func (h *Hub) Swap(ch *Channel) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()

	old := h.channels[ch.CameraID()]
	h.channels[ch.CameraID()] = ch
	return old
}

// Remove drops ch if it is still the current channel for its camera.
func (h *Hub) Remove(ch *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[ch.CameraID()] == ch {
		delete(h.channels, ch.CameraID())
	}
}

// Get returns the current channel for a camera.
func (h *Hub) Get(cameraID string) (*Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ch, ok := h.channels[cameraID]
	return ch, ok
}

// Viewers returns the number of connected viewers per camera.
func (h *Hub) Viewers() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]int, len(h.channels))
	for id, ch := range h.channels {
		out[id] = ch.Len()
	}
	return out
}
