package camera

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type Camera struct {
	ID             string     `yaml:"-" json:"id"` // map key in the config file
	Name           string     `yaml:"name" json:"name"`
	Input          string     `yaml:"input" json:"input"`               // capture source handed to -i
	InputConfig    Flags      `yaml:"input_config" json:"input_config"` // emitted before -i
	Continuous     bool       `yaml:"continuous" json:"continuous"`
	SegmentMinutes int        `yaml:"segment_minutes" json:"segment_minutes"` // 0 means system default
	LiveConfig     LiveConfig `yaml:"live_config" json:"live_config"`
}

type LiveConfig struct {
	StreamConfig Flags `yaml:"stream_config" json:"stream_config"` // emitted before the live output
}

// EffectiveSegmentMinutes returns the camera override, or def when unset.
func (c *Camera) EffectiveSegmentMinutes(def int) int {
	if c.SegmentMinutes > 0 {
		return c.SegmentMinutes
	}
	return def
}

// List is the ordered camera set. In YAML it is a mapping keyed by camera ID;
// document order is kept so cameras start in the order they were written.
type List []Camera

func (l *List) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*l = List{}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: cameras must be a mapping keyed by camera id", node.Line)
	}

	out := make(List, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		var cam Camera
		if err := v.Decode(&cam); err != nil {
			return fmt.Errorf("camera %q: %w", k.Value, err)
		}
		cam.ID = k.Value
		out = append(out, cam)
	}

	*l = out
	return nil
}

// Find returns the camera with the given ID.
func (l List) Find(id string) (*Camera, bool) {
	for i := range l {
		if l[i].ID == id {
			return &l[i], true
		}
	}
	return nil, false
}
