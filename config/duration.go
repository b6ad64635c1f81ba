package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration to support JSON/YAML marshaling
// of human-readable duration strings (e.g. "500ms", "1h").
// Plain numbers are interpreted as milliseconds.
type Duration time.Duration

// NewDuration creates a pointer to a Duration.
func NewDuration(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// Value returns the underlying time.Duration.
// Returns 0 when called on a nil pointer.
func (d *Duration) Value() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to parse duration: %w", err)
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value * float64(time.Millisecond)))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: must be a duration like 500ms or 1h, or a number of milliseconds: %w", value, err)
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("duration must be a duration string or a number of milliseconds, got %T", v)
	}
}
