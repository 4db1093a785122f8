package ffmpegcmd

import (
	"strconv"

	"github.com/edirooss/nvr-server/internal/domain/camera"
)

// Snapshot builds a one-frame capture that writes a JPEG to stdout,
// scaled to width with the aspect ratio kept.
//
//	<bin> [input flags] -i <input> -vf scale=<width>:-1 -vframes 1 -f image2 -
func Snapshot(c *camera.Camera, bin string, width int) *Builder {
	return NewBuilder(bin).
		WithFlags(c.InputConfig, "i").
		WithFlag("i", c.Input).
		WithFlag("vf", "scale="+strconv.Itoa(width)+":-1").
		WithIntFlag("vframes", 1).
		WithFlag("f", "image2").
		WithArg("-")
}
