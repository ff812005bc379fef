package validate

import (
	"strings"
	"time"
)

// Layouts accepted for inbound timestamps. Producers send RFC3339 with a
// trailing Z or an explicit offset; some omit the offset entirely, in which
// case the value is taken as already being UTC, never local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp normalizes a loosely formatted timestamp string into a UTC
// instant. It is total: malformed or empty input yields ok=false, never an
// error. Callers decide what absence means — for event_time it is a
// validation defect, for publish_time the value is simply dropped.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
