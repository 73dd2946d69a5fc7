package model

import (
	"fmt"
	"time"
)

// Raw is an untyped record as produced by the JMAP response parser or a
// fixture file.
type Raw = map[string]any

// timestamp layouts accepted from the backend and from fixtures. JMAP
// proper uses RFC 3339; some fixture exports omit the offset.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseTime parses a backend timestamp string.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", value)
}

// rawString returns the first present key as a string, or "".
func rawString(raw Raw, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprint(v)
		}
	}
	return ""
}

// rawBool returns the key as a bool, or false.
func rawBool(raw Raw, key string) bool {
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return false
}

// rawInt returns the key as an int, tolerating the float64 that
// encoding/json produces for numbers.
func rawInt(raw Raw, key string) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
