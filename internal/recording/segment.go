// Package recording turns the encoder's segment-list output into completed
// recordings and exposes what is on disk.
package recording

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FilenameLayout is the Go form of the encoder's %Y-%m-%dT%H-%M-%S pattern.
const FilenameLayout = "2006-01-02T15-04-05"

// Segment is one completed recording file.
type Segment struct {
	CameraID string    `json:"camera_id"`
	Filename string    `json:"filename"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Duration is End - Start, or zero when End is unknown.
func (s Segment) Duration() time.Duration {
	if s.End.IsZero() || s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

// ParseFilename reads the start time embedded in a segment filename.
// Directories and the extension are ignored; the time is local.
func ParseFilename(name string) (time.Time, error) {
	base := filepath.Base(strings.TrimSpace(name))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	t, err := time.ParseInLocation(FilenameLayout, stem, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse segment filename %q: %w", name, err)
	}
	return t, nil
}
