package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edirooss/nvr-server/internal/domain/camera"
	"github.com/edirooss/nvr-server/internal/infrastructure/metrics"
	"github.com/edirooss/nvr-server/internal/infrastructure/processmgr"
	"github.com/edirooss/nvr-server/pkg/ffmpegcmd"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxSnapshotWidth       = 7680
	DefaultSnapshotTimeout = 15 * time.Second
)

var (
	ErrUnknownCamera  = errors.New("unknown camera")
	ErrInvalidWidth   = fmt.Errorf("width must be between 1 and %d", MaxSnapshotWidth)
	ErrSnapshotBusy   = errors.New("too many snapshots in progress")
	ErrSnapshotFailed = errors.New("snapshot failed")
)

// Runner runs argv to completion and returns its stdout.
type Runner func(ctx context.Context, argv []string) ([]byte, processmgr.ExitStatus, error)

type SnapshotServiceOptions struct {
	Binary      string
	Concurrency int           // default 4
	Timeout     time.Duration // default 15s
	Run         Runner        // required
	Metrics     *metrics.Metrics
}

// SnapshotService grabs single JPEG frames from cameras. Every request runs
// its own short-lived encoder; a failure is reported once and never retried.
type SnapshotService struct {
	log     *zap.Logger
	cameras camera.List
	slots   *processmgr.SlotPool
	opts    SnapshotServiceOptions
}

func NewSnapshotService(log *zap.Logger, cameras camera.List, opts SnapshotServiceOptions) (*SnapshotService, error) {
	if opts.Run == nil {
		return nil, errors.New("snapshot service: nil runner")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSnapshotTimeout
	}

	return &SnapshotService{
		log:     log.Named("snapshot"),
		cameras: cameras,
		slots:   processmgr.NewSlotPool(opts.Concurrency),
		opts:    opts,
	}, nil
}

// Capture returns one JPEG frame of cameraID scaled to width.
func (s *SnapshotService) Capture(ctx context.Context, cameraID string, width int) ([]byte, error) {
	cam, ok := s.cameras.Find(cameraID)
	if !ok {
		return nil, ErrUnknownCamera
	}
	if width < 1 || width > MaxSnapshotWidth {
		return nil, ErrInvalidWidth
	}

	slot := uuid.NewString()
	if !s.slots.TryAcquire(slot) {
		s.log.Warn("snapshot slots exhausted", zap.String("camera", cameraID), zap.Int("capacity", s.slots.Capacity()),
			zap.Strings("holders", s.slots.Holders()))
		return nil, ErrSnapshotBusy
	}
	defer s.slots.Release(slot)

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	argv := ffmpegcmd.Snapshot(cam, s.opts.Binary, width).BuildArgv()
	out, st, err := s.opts.Run(ctx, argv)
	if err != nil {
		s.opts.Metrics.IncSnapshotFailures(cameraID)
		return nil, fmt.Errorf("%w: %w", ErrSnapshotFailed, err)
	}

	// Only an error-range exit is a failure; a clean exit or a kill that
	// still produced a frame is served.
	if processmgr.Classify(st) == processmgr.Error || len(out) == 0 {
		s.opts.Metrics.IncSnapshotFailures(cameraID)
		s.log.Warn("snapshot encoder failed",
			zap.String("camera", cameraID),
			zap.Stringer("status", st),
			zap.Int("bytes", len(out)))
		return nil, fmt.Errorf("%w: encoder exited with %s", ErrSnapshotFailed, st)
	}
	return out, nil
}

// InFlight reports how many snapshots are running.
func (s *SnapshotService) InFlight() int { return s.slots.Current() }
