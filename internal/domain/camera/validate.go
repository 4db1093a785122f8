package camera

import (
	"errors"
	"fmt"
	"regexp"
)

// IDs end up in filesystem paths and URL segments.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func (c *Camera) Validate() error {
	// id: [A-Za-z0-9_-], 1..64
	if !idPattern.MatchString(c.ID) {
		return fmt.Errorf("invalid id %q: must match %s", c.ID, idPattern.String())
	}

	// name: required, maxLength 100
	if c.Name == "" {
		return errors.New("name is required")
	}
	if len(c.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}

	// input: required, maxLength 2048
	if c.Input == "" {
		return errors.New("input is required")
	}
	if len(c.Input) > 2048 {
		return errors.New("input must be at most 2048 characters")
	}

	if c.SegmentMinutes < 0 {
		return errors.New("segment_minutes must not be negative")
	}

	if err := validateFlags(c.InputConfig); err != nil {
		return fmt.Errorf("input_config: %w", err)
	}
	if err := validateFlags(c.LiveConfig.StreamConfig); err != nil {
		return fmt.Errorf("live_config.stream_config: %w", err)
	}
	return nil
}

func validateFlags(fs Flags) error {
	for _, f := range fs {
		if f.Key == "" {
			return errors.New("empty flag name")
		}
		if f.Key[0] == '-' {
			return fmt.Errorf("flag %q must be written without the leading dash", f.Key)
		}
	}
	return nil
}

// Validate checks every camera and that IDs are unique.
func (l List) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("camera %q: %w", l[i].ID, err)
		}
		if _, dup := seen[l[i].ID]; dup {
			return fmt.Errorf("camera %q: duplicate id", l[i].ID)
		}
		seen[l[i].ID] = struct{}{}
	}
	return nil
}
