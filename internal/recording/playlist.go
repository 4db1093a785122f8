package recording

import (
	"errors"
	"fmt"
	"path"

	"github.com/grafov/m3u8"
)

var ErrNoRecordings = errors.New("no recordings")

// Playlist renders segs as an HLS VOD playlist. Every file is an independent
// MP4 whose timestamps restart at zero, so a discontinuity separates them.
// URIs are baseURI joined with the segment filename.
func Playlist(segs []Segment, baseURI string) (string, error) {
	if len(segs) == 0 {
		return "", ErrNoRecordings
	}

	pl, err := m3u8.NewMediaPlaylist(0, uint(len(segs)))
	if err != nil {
		return "", fmt.Errorf("new media playlist: %w", err)
	}
	pl.MediaType = m3u8.VOD

	for i, s := range segs {
		if err := pl.Append(path.Join(baseURI, s.Filename), s.Duration().Seconds(), ""); err != nil {
			return "", fmt.Errorf("append %s: %w", s.Filename, err)
		}
		if i > 0 {
			if err := pl.SetDiscontinuity(); err != nil {
				return "", fmt.Errorf("discontinuity %s: %w", s.Filename, err)
			}
		}
	}
	pl.Close()

	return pl.String(), nil
}
