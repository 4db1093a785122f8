// Package ffmpegcmd builds canonical CLI invocations for the encoder binary.
//
// Design:
//
//   - This layer is a pure "command construction" module: no execution, no I/O.
//     It returns one of two projections of the same intent: argv (process
//     argument vector) or a shell-quoted command string (for logging).
//
// Emission policy is deterministic and explicit:
//
//   - Flags are emitted in the order they were added; a flag with an empty
//     value is emitted on its own.
//   - argv[0] is always the configured encoder binary, mirroring POSIX/Go norms.
//
// Usage:
//
//	argv := ffmpegcmd.FromCamera(cam, opts).BuildArgv()   // []string{"/usr/bin/ffmpeg", "-rtsp_transport", ...}
//	s    := ffmpegcmd.FromCamera(cam, opts).BuildString() // "'/usr/bin/ffmpeg' '-rtsp_transport' 'tcp' ..."
package ffmpegcmd

import (
	"slices"
	"strconv"
	"strings"

	"github.com/edirooss/nvr-server/internal/domain/camera"
)

// Builder constructs argv and shell-safe command strings for the encoder.
//
// The Builder implements a fluent API; it is NOT concurrency-safe.
// Callers should treat a Builder as a single-use, short-lived value.
type Builder struct {
	args []string // argv including binary at index 0
}

// NewBuilder returns a Builder pre-seeded with the encoder binary.
func NewBuilder(bin string) *Builder {
	return &Builder{args: []string{bin}}
}

// WithFlag appends -key, followed by val when val is non-empty.
func (b *Builder) WithFlag(key, val string) *Builder {
	b.args = append(b.args, "-"+key)
	if val != "" {
		b.args = append(b.args, val)
	}
	return b
}

// WithIntFlag appends -key with a base-10 int value (always emitted).
func (b *Builder) WithIntFlag(key string, val int) *Builder {
	b.args = append(b.args, "-"+key, strconv.Itoa(val))
	return b
}

// WithFlags appends every flag in order, skipping any whose key is in skip.
func (b *Builder) WithFlags(fs camera.Flags, skip ...string) *Builder {
	for _, f := range fs {
		if slices.Contains(skip, f.Key) {
			continue
		}
		b.WithFlag(f.Key, f.Value)
	}
	return b
}

// WithArg appends a positional argument if non-empty.
func (b *Builder) WithArg(arg string) *Builder {
	if arg != "" {
		b.args = append(b.args, arg)
	}
	return b
}

// BuildArgv returns a defensive copy of the constructed argument vector.
func (b *Builder) BuildArgv() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}

// BuildString returns a single shell-quoted command string.
//
// Quoting strategy: single-quote wrapping with inner single quotes escaped
// as ' -> '\''. This is safe for POSIX shells.
func (b *Builder) BuildString() string {
	quoted := make([]string, len(b.args))
	for i, a := range b.args {
		quoted[i] = shQuote(a)
	}
	return strings.Join(quoted, " ")
}

// shQuote returns a POSIX-safe single-quoted token.
// Empty strings become '' to preserve round-trippability.
func shQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
