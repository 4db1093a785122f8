package camera

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Flag is one encoder option. Key is written without the leading dash;
// an empty Value means the flag is emitted on its own.
type Flag struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Flags is an ordered list of encoder options. Order is significant: it is
// reproduced verbatim on the encoder command line.
type Flags []Flag

// Get returns the value of the first flag named key.
func (fs Flags) Get(key string) (string, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// UnmarshalYAML accepts either a mapping (document order is preserved):
//
//	rtsp_transport: tcp
//	an: ""
//
// or a sequence of single-key mappings / bare scalars:
//
//	- rtsp_transport: tcp
//	- an
func (fs *Flags) UnmarshalYAML(node *yaml.Node) error {
	out := Flags{}

	switch node.Kind {
	case yaml.MappingNode:
		if err := appendPairs(&out, node); err != nil {
			return err
		}

	case yaml.SequenceNode:
		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				if item.Value == "" {
					return fmt.Errorf("line %d: empty flag name", item.Line)
				}
				out = append(out, Flag{Key: item.Value})
			case yaml.MappingNode:
				if err := appendPairs(&out, item); err != nil {
					return err
				}
			default:
				return fmt.Errorf("line %d: flag entry must be a name or a name: value pair", item.Line)
			}
		}

	case yaml.ScalarNode:
		// `input_config:` with nothing after it decodes as a null scalar.
		if node.Tag != "!!null" {
			return fmt.Errorf("line %d: flags must be a mapping or a sequence", node.Line)
		}

	default:
		return fmt.Errorf("line %d: flags must be a mapping or a sequence", node.Line)
	}

	*fs = out
	return nil
}

func appendPairs(out *Flags, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Value == "" {
			return fmt.Errorf("line %d: flag name must be a non-empty scalar", k.Line)
		}
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value of flag %q must be a scalar", v.Line, k.Value)
		}
		val := v.Value
		if v.Tag == "!!null" {
			val = ""
		}
		*out = append(*out, Flag{Key: k.Value, Value: val})
	}
	return nil
}
