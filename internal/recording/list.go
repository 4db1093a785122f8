package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// List returns the recorded segments found in dir, oldest first.
//
// Each segment ends where the next one starts; the newest ends at its file's
// modification time. Files whose names do not carry a start time are
// skipped. A missing directory yields an empty list.
func List(cameraID, dir string) ([]Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	type found struct {
		seg   Segment
		entry os.DirEntry
	}
	var all []found
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp4") {
			continue
		}
		start, err := ParseFilename(e.Name())
		if err != nil {
			continue
		}
		all = append(all, found{
			seg:   Segment{CameraID: cameraID, Filename: e.Name(), Start: start},
			entry: e,
		})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].seg.Start.Before(all[j].seg.Start) })

	out := make([]Segment, len(all))
	for i := range all {
		s := all[i].seg
		if i+1 < len(all) {
			s.End = all[i+1].seg.Start
		} else if fi, err := all[i].entry.Info(); err == nil {
			s.End = fi.ModTime()
		}
		out[i] = s
	}
	return out, nil
}
