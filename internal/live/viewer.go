package live

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultQueueDepth bounds how far a viewer may fall behind the stream.
const DefaultQueueDepth = 64

// QueueViewer is a Viewer backed by a bounded FIFO. A transport goroutine
// drains C() until it is closed.
type QueueViewer struct {
	id string

	mu     sync.Mutex
	q      chan []byte
	closed bool
}

func NewQueueViewer(depth int) *QueueViewer {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &QueueViewer{
		id: uuid.NewString(),
		q:  make(chan []byte, depth),
	}
}

func (v *QueueViewer) ID() string { return v.id }

// C yields queued payloads in order and is closed by Close.
func (v *QueueViewer) C() <-chan []byte { return v.q }

// Send enqueues p. It reports false when the queue is full or the viewer is
// closed.
func (v *QueueViewer) Send(p []byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	select {
	case v.q <- p:
		return true
	default:
		return false
	}
}

func (v *QueueViewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	close(v.q)
}
