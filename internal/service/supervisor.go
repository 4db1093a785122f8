package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/edirooss/nvr-server/internal/domain/camera"
	"github.com/edirooss/nvr-server/internal/infrastructure/metrics"
	"github.com/edirooss/nvr-server/internal/infrastructure/processmgr"
	"github.com/edirooss/nvr-server/internal/live"
	"github.com/edirooss/nvr-server/internal/recording"
	"github.com/edirooss/nvr-server/pkg/ffmpegcmd"
	"github.com/edirooss/nvr-server/pkg/fmp4frag"
	"go.uber.org/zap"
)

const (
	DefaultRespawnDelay   = 10 * time.Second
	DefaultTerminateGrace = 5 * time.Second
	defaultDrainTimeout   = 5 * time.Second
	liveReadBufferSize    = 64 << 10
)

type SupervisorOptions struct {
	Command        ffmpegcmd.Options
	Launch         Launcher          // required
	NewFragmentor  FragmentorFactory // default fmp4frag.New
	RespawnDelay   time.Duration     // default 10s
	TerminateGrace time.Duration     // SIGTERM → SIGKILL on shutdown, default 5s
	DrainTimeout   time.Duration     // wait for side channels after exit, default 5s

	Hub          *live.Hub              // default: a private hub
	Logs         *processmgr.LogManager // default: a private manager
	Metrics      *metrics.Metrics       // optional
	SegmentHooks []recording.Hook       // called for every completed segment
}

func (o *SupervisorOptions) setDefaults() {
	if o.NewFragmentor == nil {
		o.NewFragmentor = newFragmentor
	}
	if o.RespawnDelay <= 0 {
		o.RespawnDelay = DefaultRespawnDelay
	}
	if o.TerminateGrace <= 0 {
		o.TerminateGrace = DefaultTerminateGrace
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = defaultDrainTimeout
	}
	if o.Hub == nil {
		o.Hub = live.NewHub()
	}
	if o.Logs == nil {
		o.Logs = processmgr.NewLogManager()
	}
}

// Supervisor keeps one encoder running per camera, respawning it after
// every exit, and feeds its output to the live hub and segment hooks.
type Supervisor struct {
	log     *zap.Logger
	cameras camera.List
	opts    SupervisorOptions
}

func NewSupervisor(log *zap.Logger, cameras camera.List, opts SupervisorOptions) (*Supervisor, error) {
	if opts.Launch == nil {
		return nil, errors.New("supervisor: nil launcher")
	}
	opts.setDefaults()

	return &Supervisor{
		log:     log.Named("supervisor"),
		cameras: cameras,
		opts:    opts,
	}, nil
}

func (s *Supervisor) Hub() *live.Hub               { return s.opts.Hub }
func (s *Supervisor) Logs() *processmgr.LogManager { return s.opts.Logs }

// Run supervises every camera until ctx is done and all encoders have
// been torn down.
func (s *Supervisor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := range s.cameras {
		cam := &s.cameras[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runCamera(ctx, cam)
		}()
	}
	wg.Wait()

	s.log.Info("all cameras stopped")
	return nil
}

// runCamera is the per-camera loop. The timer fires immediately for the first
// spawn and is re-armed with the respawn delay after every exit; argv is
// computed once so every respawn runs the same command.
func (s *Supervisor) runCamera(ctx context.Context, cam *camera.Camera) {
	log := s.log.With(zap.String("camera", cam.ID))
	logbuf := s.opts.Logs.Get(cam.ID)
	argv := ffmpegcmd.BuildArgv(cam, s.opts.Command)

	log.Debug("encoder command", zap.String("cmd", ffmpegcmd.BuildString(cam, s.opts.Command)))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.cycle(ctx, log, cam, argv, logbuf)
		if ctx.Err() != nil {
			logbuf.Append("supervisor stopped")
			return
		}

		logbuf.Append(fmt.Sprintf("respawn scheduled in %s", s.opts.RespawnDelay))
		log.Info("respawn scheduled", zap.Duration("delay", s.opts.RespawnDelay))
		timer.Reset(s.opts.RespawnDelay)
	}
}

// cycle runs one encoder from spawn to full teardown and reports how its
// exit was classified.
func (s *Supervisor) cycle(ctx context.Context, log *zap.Logger, cam *camera.Camera, argv []string, logbuf *processmgr.LogBuffer) processmgr.ExitClass {
	enc, err := s.opts.Launch(argv)
	if err != nil {
		log.Error("encoder spawn failed", zap.Error(err))
		logbuf.Append(fmt.Sprintf("spawn failed: %v", err))
		return processmgr.Error
	}

	log = log.With(zap.Int("pid", enc.Pid()))
	log.Info("encoder started")
	logbuf.Append(fmt.Sprintf("spawned pid %d", enc.Pid()))
	s.opts.Metrics.IncSpawns(cam.ID)

	ch := live.NewChannel(cam.ID)
	frag := s.opts.NewFragmentor(
		func(init []byte) {
			s.logTracks(log, init)
			ch.SetInitialization(init)
		},
		func(fragment []byte) {
			ch.Broadcast(fragment)
			s.opts.Metrics.IncFragments(cam.ID)
		},
	)
	if old := s.opts.Hub.Swap(ch); old != nil {
		old.Close()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pumpLive(log, enc, frag)
	}()
	go func() {
		defer wg.Done()
		s.pumpSegments(ctx, log, cam, enc.Segments())
	}()

	select {
	case <-enc.Done():
	case <-ctx.Done():
		log.Info("stopping encoder")
		enc.Terminate(s.opts.TerminateGrace)
	}
	enc.Kill()

	// Readers normally see EOF once the child is gone. If something else
	// still holds a write end, closing our read ends unblocks them.
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(s.opts.DrainTimeout):
		log.Warn("side channels still open after exit, closing them")
		enc.Release()
		<-drained
	}
	enc.Release()

	frag.Destroy()
	s.opts.Hub.Remove(ch)
	ch.Close()

	st := enc.Status()
	class := processmgr.Classify(st)
	fields := []zap.Field{zap.Stringer("status", st), zap.Stringer("class", class)}
	switch class {
	case processmgr.Expected:
		log.Info("encoder exited", fields...)
	case processmgr.Error:
		log.Error("encoder exited with error", fields...)
	default:
		log.Warn("encoder exited with unclassified status, treating as error", fields...)
		class = processmgr.Error
	}
	logbuf.Append(fmt.Sprintf("exited with %s (%s)", st, processmgr.Classify(st)))
	s.opts.Metrics.IncExits(cam.ID, class.String())
	return class
}

// pumpLive copies fd 3 into the fragmentor. A stream the fragmentor rejects
// cannot recover, so the encoder is killed and the rest is discarded.
func (s *Supervisor) pumpLive(log *zap.Logger, enc Encoder, frag Fragmentor) {
	buf := make([]byte, liveReadBufferSize)
	r := enc.Live()
	for {
		n, err := r.Read(buf)
		if n > 0 {
			// The fragmentor copies what it keeps.
			if _, werr := frag.Write(buf[:n]); werr != nil {
				log.Warn("live stream rejected, killing encoder", zap.Error(werr))
				enc.Kill()
				_, _ = io.Copy(io.Discard, r)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("live reader exited", zap.Error(err))
			}
			return
		}
	}
}

// pumpSegments feeds fd 4 to a watcher when the camera records; otherwise it
// only drains the pipe.
func (s *Supervisor) pumpSegments(ctx context.Context, log *zap.Logger, cam *camera.Camera, r io.Reader) {
	if !cam.Continuous {
		_, _ = io.Copy(io.Discard, r)
		return
	}

	hooks := append([]recording.Hook{
		recording.HookFunc(func(context.Context, recording.Segment) { s.opts.Metrics.IncSegments(cam.ID) }),
	}, s.opts.SegmentHooks...)

	// The last segment is reported while shutting down; hooks still need a
	// live context for it.
	n := recording.NewWatcher(log, cam.ID, hooks...).Run(context.WithoutCancel(ctx), r)
	log.Debug("segment list closed", zap.Int("segments", n))
}

func (s *Supervisor) logTracks(log *zap.Logger, init []byte) {
	tracks, err := fmp4frag.Probe(init)
	if err != nil {
		log.Debug("initialization probe failed", zap.Error(err))
		return
	}
	for _, t := range tracks {
		log.Info("live track",
			zap.Int("id", t.ID),
			zap.String("codec", t.Codec),
			zap.Uint32("timescale", t.TimeScale))
	}
}
