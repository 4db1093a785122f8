// Package fmp4frag splits a fragmented MP4 byte stream into its
// initialization payload and a sequence of self-contained media fragments.
//
// The stream is parsed at the top-level box layer only:
//
//   - every box up to and including moov forms the initialization payload,
//     emitted exactly once;
//   - afterwards each moof..mdat run is one fragment, together with any
//     boxes seen since the previous fragment (styp, sidx, prft).
//
// Codec payloads are never inspected.
package fmp4frag

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

// MaxBoxSize caps a single top-level box.
const MaxBoxSize = 64 << 20

var (
	ErrDestroyed   = errors.New("fmp4frag: fragmentor destroyed")
	ErrBoxTooLarge = errors.New("fmp4frag: box exceeds size limit")
	ErrInvalidBox  = errors.New("fmp4frag: invalid box header")
)

// Fragmentor is safe for concurrent use, but Write is expected to be driven
// by a single reader so that callbacks observe stream order.
type Fragmentor struct {
	onInit     func([]byte)
	onFragment func([]byte)

	mu        sync.Mutex
	buf       []byte // unparsed tail of the stream
	initBuf   []byte // boxes collected before moov
	init      []byte // set once moov has been seen
	pending   []byte // boxes of the fragment being assembled
	inFrag    bool   // moof seen, waiting for mdat
	err       error  // sticky parse error
	destroyed bool
}

// New returns a Fragmentor. Either callback may be nil.
// Callbacks run on the writer's goroutine, outside the internal lock.
func New(onInit, onFragment func([]byte)) *Fragmentor {
	return &Fragmentor{onInit: onInit, onFragment: onFragment}
}

type event struct {
	init bool
	data []byte
}

// Write appends p to the stream and emits every complete init payload or
// fragment it closes. A parse error is sticky: later writes return it too.
func (f *Fragmentor) Write(p []byte) (int, error) {
	f.mu.Lock()
	if f.destroyed {
		f.mu.Unlock()
		return 0, ErrDestroyed
	}
	if f.err != nil {
		err := f.err
		f.mu.Unlock()
		return 0, err
	}

	f.buf = append(f.buf, p...)
	events, err := f.parse()
	if err != nil {
		f.err = err
		f.buf = nil
	}
	f.mu.Unlock()

	for _, ev := range events {
		if ev.init {
			if f.onInit != nil {
				f.onInit(ev.data)
			}
			continue
		}
		if f.onFragment != nil {
			f.onFragment(ev.data)
		}
	}

	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// parse consumes every complete box in f.buf. Caller holds f.mu.
func (f *Fragmentor) parse() ([]event, error) {
	var events []event

	for len(f.buf) >= 8 {
		size := uint64(binary.BigEndian.Uint32(f.buf[0:4]))
		typ := string(f.buf[4:8])
		hdr := uint64(8)

		switch size {
		case 0:
			// "extends to end of file" has no meaning on a live pipe.
			return events, fmt.Errorf("%w: zero size for %q", ErrInvalidBox, typ)
		case 1:
			if len(f.buf) < 16 {
				return events, nil
			}
			size = binary.BigEndian.Uint64(f.buf[8:16])
			hdr = 16
		}

		if size < hdr {
			return events, fmt.Errorf("%w: size %d shorter than header for %q", ErrInvalidBox, size, typ)
		}
		if size > MaxBoxSize {
			return events, fmt.Errorf("%w: %q is %d bytes", ErrBoxTooLarge, typ, size)
		}
		if uint64(len(f.buf)) < size {
			return events, nil
		}

		box := f.buf[:size]
		f.buf = f.buf[size:]

		if ev, ok := f.handle(typ, box); ok {
			events = append(events, ev)
		}
	}

	if len(f.buf) == 0 {
		f.buf = nil
	}
	return events, nil
}

func (f *Fragmentor) handle(typ string, box []byte) (event, bool) {
	if f.init == nil {
		f.initBuf = append(f.initBuf, box...)
		if typ != "moov" {
			return event{}, false
		}
		f.init = f.initBuf
		f.initBuf = nil
		return event{init: true, data: f.init}, true
	}

	switch typ {
	case "moof":
		f.pending = append(f.pending, box...)
		f.inFrag = true
		return event{}, false

	case "mdat":
		if !f.inFrag {
			// mdat without a preceding moof cannot be decoded on its own.
			f.pending = nil
			return event{}, false
		}
		frag := append(f.pending, box...)
		f.pending = nil
		f.inFrag = false
		return event{data: frag}, true

	default:
		f.pending = append(f.pending, box...)
		return event{}, false
	}
}

// Initialization returns the init payload, or nil before moov has arrived.
func (f *Fragmentor) Initialization() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.init
}

// Destroy releases every buffer. It is idempotent; Write fails afterwards.
func (f *Fragmentor) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
	f.buf = nil
	f.initBuf = nil
	f.init = nil
	f.pending = nil
}
