package fmp4frag

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bluenviron/mediacommon/v2/pkg/formats/fmp4"
)

// Track describes one track announced by an initialization payload.
type Track struct {
	ID        int    `json:"id"`
	TimeScale uint32 `json:"time_scale"`
	Codec     string `json:"codec"`
}

// Probe decodes the moov of an initialization payload.
func Probe(init []byte) ([]Track, error) {
	var in fmp4.Init
	if err := in.Unmarshal(bytes.NewReader(init)); err != nil {
		return nil, fmt.Errorf("unmarshal init: %w", err)
	}

	out := make([]Track, 0, len(in.Tracks))
	for _, t := range in.Tracks {
		out = append(out, Track{
			ID:        t.ID,
			TimeScale: t.TimeScale,
			Codec:     codecName(t.Codec),
		})
	}
	return out, nil
}

// codecName turns *mp4.CodecH264 into "H264".
func codecName(c any) string {
	if c == nil {
		return "unknown"
	}
	name := fmt.Sprintf("%T", c)
	if i := strings.LastIndex(name, ".Codec"); i >= 0 {
		return name[i+len(".Codec"):]
	}
	return name
}
