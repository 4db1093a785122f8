//go:build linux

package service

import (
	"io"
	"os"

	"github.com/edirooss/nvr-server/internal/infrastructure/processmgr"
	"go.uber.org/zap"
)

// ProcessLauncher spawns real encoder processes with the live and segment
// side channels attached.
func ProcessLauncher(log *zap.Logger) Launcher {
	log = log.Named("processmgr")
	return func(argv []string) (Encoder, error) {
		p, err := processmgr.Spawn(log, os.Environ(), argv)
		if err != nil {
			return nil, err
		}
		return processEncoder{p}, nil
	}
}

// processEncoder narrows the *os.File side channels to io.Reader.
type processEncoder struct {
	*processmgr.Process
}

func (e processEncoder) Live() io.Reader     { return e.Process.Live() }
func (e processEncoder) Segments() io.Reader { return e.Process.Segments() }

// SnapshotRunner runs one-shot snapshot commands as real processes.
var SnapshotRunner Runner = processmgr.RunCapture
