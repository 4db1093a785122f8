// Package live fans one camera's fragmented stream out to its viewers.
package live

import (
	"errors"
	"sync"
)

var (
	ErrChannelClosed = errors.New("live: channel closed")
	ErrViewerFull    = errors.New("live: viewer refused initialization")
)

// Viewer is one connected consumer.
//
// Send must not block: it enqueues p and reports false when the viewer can no
// longer keep up or is gone. Close is idempotent.
type Viewer interface {
	ID() string
	Send(p []byte) bool
	Close()
}

// Channel is the broadcast point for one spawn cycle of one camera.
//
// Join and Broadcast share one lock, so a joining viewer receives the current
// initialization payload before any fragment and no fragment can slip in
// between the two.
type Channel struct {
	camera string

	mu      sync.Mutex
	init    []byte
	viewers map[string]Viewer
	closed  bool
}

func NewChannel(cameraID string) *Channel {
	return &Channel{
		camera:  cameraID,
		viewers: make(map[string]Viewer),
	}
}

func (c *Channel) CameraID() string { return c.camera }

// SetInitialization stores the payload replayed to every later joiner.
// Viewers that joined before any initialization existed receive it now, so
// nobody sees a fragment without the payload that describes it.
func (c *Channel) SetInitialization(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.init = p
	for id, v := range c.viewers {
		if !v.Send(p) {
			delete(c.viewers, id)
			v.Close()
		}
	}
}

func (c *Channel) Initialization() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.init
}

// Join delivers the current initialization payload, if any, and registers v.
// A viewer that cannot take the payload is closed and not registered.
func (c *Channel) Join(v Viewer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	if c.init != nil && !v.Send(c.init) {
		v.Close()
		return ErrViewerFull
	}
	c.viewers[v.ID()] = v
	return nil
}

// Leave unregisters v. Unknown viewers are ignored.
func (c *Channel) Leave(v Viewer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.viewers, v.ID())
}

// Broadcast delivers p to every registered viewer and returns how many took
// it. Viewers whose Send fails are removed and closed.
func (c *Channel) Broadcast(p []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	delivered := 0
	for id, v := range c.viewers {
		if v.Send(p) {
			delivered++
			continue
		}
		delete(c.viewers, id)
		v.Close()
	}
	return delivered
}

// Len returns the number of registered viewers.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.viewers)
}

// Close disconnects every viewer; later joins fail with ErrChannelClosed.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, v := range c.viewers {
		delete(c.viewers, id)
		v.Close()
	}
	c.init = nil
}
