package ffmpegcmd

import (
	"path/filepath"

	"github.com/edirooss/nvr-server/internal/domain/camera"
)

const (
	// LiveOutput is the fd the encoder writes the fragmented live stream to.
	LiveOutput = "pipe:3"
	// SegmentListOutput is the fd completed segment filenames are written to.
	SegmentListOutput = "pipe:4"

	// SegmentFilenamePattern is the strftime pattern for recorded files.
	SegmentFilenamePattern = "%Y-%m-%dT%H-%M-%S.mp4"

	streamTitle = `title="NVR Stream"`
)

// Options carries the system-wide settings that shape a camera's argv.
type Options struct {
	Binary                string // encoder executable, argv[0]
	RecordingsDir         string // <storage>/NVR_CAMERA_RECORDINGS
	DefaultSegmentMinutes int    // used when the camera sets no override
}

// FromCamera maps a camera onto the encoder invocation.
//
// Ordering:
//
//	<bin> [input flags] -i <input> [continuous block] [live flags] -metadata title="NVR Stream" pipe:3
//
// An input flag literally named "i" is skipped; the input is always appended
// explicitly. The continuous block is emitted only when recording is enabled.
func FromCamera(c *camera.Camera, opts Options) *Builder {
	b := NewBuilder(opts.Binary)

	// --- Input flags, then the input itself ---
	b.WithFlags(c.InputConfig, "i").
		WithFlag("i", c.Input)

	// --- Continuous recording: stream copy into clock-aligned segments ---
	if c.Continuous {
		minutes := c.EffectiveSegmentMinutes(opts.DefaultSegmentMinutes)
		b.WithFlag("c:v", "copy").
			WithFlag("c:a", "copy").
			WithFlag("f", "segment").
			WithFlag("movflags", "+faststart").
			WithIntFlag("segment_atclocktime", 1).
			WithIntFlag("reset_timestamps", 1).
			WithIntFlag("strftime", 1).
			WithFlag("segment_list", SegmentListOutput).
			WithIntFlag("segment_time", 60*minutes).
			WithArg(filepath.Join(opts.RecordingsDir, c.ID, SegmentFilenamePattern))
	}

	// --- Live output ---
	b.WithFlags(c.LiveConfig.StreamConfig).
		WithFlag("metadata", streamTitle).
		WithArg(LiveOutput)

	return b
}

// BuildArgv constructs the canonical argv for a camera.
// Pure convenience over FromCamera(c, opts).BuildArgv().
func BuildArgv(c *camera.Camera, opts Options) []string {
	return FromCamera(c, opts).BuildArgv()
}

// BuildString constructs the canonical shell-quoted command string.
func BuildString(c *camera.Camera, opts Options) string {
	return FromCamera(c, opts).BuildString()
}
