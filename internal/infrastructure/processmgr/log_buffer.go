package processmgr

import (
	"sync"
	"time"
)

// LogBufferSize is the number of lifecycle entries kept per camera.
const LogBufferSize = 500

// LogEntry is one supervisor lifecycle event.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// LogBuffer is a thread-safe circular buffer of lifecycle entries with O(1)
// append and O(N) read.
type LogBuffer struct {
	entries [LogBufferSize]LogEntry // fixed-size ring
	head    int                     // next write position
	size    int                     // current number of entries
	mu      sync.RWMutex

	now func() time.Time
}

// Append adds an entry stamped with the current time, overwriting the
// oldest one when full.
func (b *LogBuffer) Append(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now
	if b.now != nil {
		now = b.now
	}

	b.entries[b.head] = LogEntry{Time: now(), Message: msg}
	b.head = (b.head + 1) % LogBufferSize
	if b.size < LogBufferSize {
		b.size++
	}
}

// Read returns the last N entries, newest first. The caller owns the slice.
//
// Semantics:
//   - If lines <= 0: returns everything available
//   - If lines > LogBufferSize: clamped to LogBufferSize
func (b *LogBuffer) Read(lines int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return nil
	}
	if lines <= 0 || lines > LogBufferSize {
		lines = LogBufferSize
	}
	n := min(b.size, lines)

	// head is one past the newest entry whether or not the ring has wrapped.
	newest := (b.head - 1 + LogBufferSize) % LogBufferSize

	out := make([]LogEntry, n)
	for i := 0; i < n; i++ {
		out[i] = b.entries[(newest-i+LogBufferSize)%LogBufferSize]
	}
	return out
}

// Len returns the number of entries held.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}
