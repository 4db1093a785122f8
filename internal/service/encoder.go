package service

import (
	"io"
	"time"

	"github.com/edirooss/nvr-server/internal/infrastructure/processmgr"
	"github.com/edirooss/nvr-server/pkg/fmp4frag"
)

// Encoder is one running encoder process as seen by the supervisor.
type Encoder interface {
	Pid() int
	Live() io.Reader     // fragmented MP4 stream (fd 3)
	Segments() io.Reader // completed segment filenames (fd 4)
	Done() <-chan struct{}
	Status() processmgr.ExitStatus // valid once Done is closed
	Kill()
	Terminate(grace time.Duration)
	Release()
}

// Launcher starts an encoder for argv.
type Launcher func(argv []string) (Encoder, error)

// Fragmentor is the part of fmp4frag.Fragmentor the supervisor drives.
type Fragmentor interface {
	Write(p []byte) (int, error)
	Destroy()
}

// FragmentorFactory builds a fresh Fragmentor for one spawn cycle.
type FragmentorFactory func(onInit, onFragment func([]byte)) Fragmentor

func newFragmentor(onInit, onFragment func([]byte)) Fragmentor {
	return fmp4frag.New(onInit, onFragment)
}
