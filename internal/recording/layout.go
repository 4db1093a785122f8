package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	SystemDirName     = "NVR_SYSTEM"
	RecordingsDirName = "NVR_CAMERA_RECORDINGS"
)

var ErrStorageMissing = errors.New("storage volume does not exist")

// Layout is the on-disk structure under the storage volume:
//
//	<root>/NVR_SYSTEM/
//	<root>/NVR_CAMERA_RECORDINGS/<camera id>/<start>.mp4
type Layout struct {
	Root string
}

func (l Layout) SystemDir() string     { return filepath.Join(l.Root, SystemDirName) }
func (l Layout) RecordingsDir() string { return filepath.Join(l.Root, RecordingsDirName) }

func (l Layout) CameraDir(cameraID string) string {
	return filepath.Join(l.RecordingsDir(), cameraID)
}

// Prepare checks the storage root exists and creates the system, recordings
// and per-camera directories.
func (l Layout) Prepare(cameraIDs ...string) error {
	fi, err := os.Stat(l.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrStorageMissing, l.Root)
		}
		return fmt.Errorf("stat storage volume: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("storage volume %s is not a directory", l.Root)
	}

	dirs := []string{l.SystemDir(), l.RecordingsDir()}
	for _, id := range cameraIDs {
		dirs = append(dirs, l.CameraDir(id))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}
