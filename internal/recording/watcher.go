package recording

import (
	"bufio"
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Hook is notified of every completed segment.
type Hook interface {
	OnSegmentCompleted(ctx context.Context, s Segment)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, s Segment)

func (f HookFunc) OnSegmentCompleted(ctx context.Context, s Segment) { f(ctx, s) }

// Watcher consumes newline-delimited filenames from one camera's segment
// list and hands each completed segment to its hooks.
type Watcher struct {
	log      *zap.Logger
	cameraID string
	hooks    []Hook
	now      func() time.Time
}

func NewWatcher(log *zap.Logger, cameraID string, hooks ...Hook) *Watcher {
	return &Watcher{
		log:      log.Named("segments"),
		cameraID: cameraID,
		hooks:    hooks,
		now:      time.Now,
	}
}

// Run reads r until EOF or a read error and returns how many segments were
// delivered. Hooks run on the calling goroutine in registration order.
func (w *Watcher) Run(ctx context.Context, r io.Reader) int {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 4*1024), 64*1024)

	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		start, err := ParseFilename(line)
		if err != nil {
			w.log.Warn("skipping unparsable segment name", zap.String("line", line), zap.Error(err))
			continue
		}

		seg := Segment{
			CameraID: w.cameraID,
			Filename: filepath.Base(line),
			Start:    start,
			End:      w.now(),
		}
		for _, h := range w.hooks {
			h.OnSegmentCompleted(ctx, seg)
		}
		n++
	}

	if err := sc.Err(); err != nil {
		w.log.Warn("segment list reader exited abnormally", zap.Error(err))
	}
	return n
}

// LogHook logs every completed segment.
func LogHook(log *zap.Logger) Hook {
	return HookFunc(func(_ context.Context, s Segment) {
		log.Info("segment completed",
			zap.String("camera", s.CameraID),
			zap.String("file", s.Filename),
			zap.Time("start", s.Start),
			zap.Duration("duration", s.Duration()))
	})
}
