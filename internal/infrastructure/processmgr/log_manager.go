package processmgr

import "sync"

// LogManager holds one lifecycle LogBuffer per camera.
// Buffers are created lazily and survive respawns.
type LogManager struct {
	mu   sync.RWMutex          // guards bufs
	bufs map[string]*LogBuffer // camera ID → buffer
}

// NewLogManager initializes an empty log-buffer registry.
func NewLogManager() *LogManager {
	return &LogManager{
		bufs: make(map[string]*LogBuffer),
	}
}

// Get returns the buffer for id, creating it if missing.
func (lm *LogManager) Get(id string) *LogBuffer {
	lm.mu.RLock()
	buf, ok := lm.bufs[id]
	lm.mu.RUnlock()
	if ok {
		return buf
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if buf, ok := lm.bufs[id]; ok {
		return buf
	}
	buf = new(LogBuffer)
	lm.bufs[id] = buf
	return buf
}

// Read returns the last lines entries for id, newest first.
// The boolean is false when nothing was ever logged for id.
func (lm *LogManager) Read(id string, lines int) ([]LogEntry, bool) {
	lm.mu.RLock()
	buf, ok := lm.bufs[id]
	lm.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return buf.Read(lines), true
}
