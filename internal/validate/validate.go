package validate

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"cartstream.app/ingest/internal/model"
)

const maxStringLen = 128

// Event checks an inbound payload against the canonical event schema.
// Every rule is applied independently so all defects are collected in one
// pass; the event is valid only when the defect list comes back empty.
// Unrecognized keys never produce a defect.
func Event(payload map[string]any) (*model.Event, []model.Defect) {
	var (
		ev      model.Event
		defects []model.Defect
	)

	add := func(field string, kind model.DefectKind, format string, args ...any) {
		defects = append(defects, model.Defect{
			Field:   field,
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if s, ok := requireString(payload, "event_id", add); ok {
		id, err := uuid.Parse(s)
		if err != nil {
			add("event_id", model.DefectInvalid, "not a valid UUID: %q", s)
		} else {
			ev.EventID = id
		}
	}

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"user_id", &ev.UserID},
		{"product_id", &ev.ProductID},
		{"category", &ev.Category},
		{"city", &ev.City},
	} {
		s, ok := requireString(payload, f.name, add)
		if !ok {
			continue
		}
		switch {
		case s == "":
			add(f.name, model.DefectInvalid, "must not be empty")
		case len(s) > maxStringLen:
			add(f.name, model.DefectTooLong, "length %d exceeds %d", len(s), maxStringLen)
		default:
			*f.dst = s
		}
	}

	if s, ok := requireString(payload, "event_type", add); ok {
		et, valid := model.ParseEventType(s)
		if !valid {
			add("event_type", model.DefectNotMember, "unknown event type %q", s)
		} else {
			ev.EventType = et
		}
	}

	if s, ok := requireString(payload, "device", add); ok {
		dev, valid := model.ParseDevice(s)
		if !valid {
			add("device", model.DefectNotMember, "unknown device %q", s)
		} else {
			ev.Device = dev
		}
	}

	if raw, present := payload["price"]; !present || raw == nil {
		add("price", model.DefectMissing, "field is required")
	} else if price, ok := toFloat(raw); !ok {
		add("price", model.DefectInvalid, "not a number: %v", raw)
	} else if price < 0 {
		add("price", model.DefectOutOfRange, "must be >= 0, got %v", price)
	} else {
		ev.Price = price
	}

	if s, ok := requireString(payload, "event_time", add); ok {
		t, valid := ParseTimestamp(s)
		if !valid {
			add("event_time", model.DefectInvalid, "not a parseable timestamp: %q", s)
		} else {
			ev.EventTime = t
		}
	}

	if len(defects) > 0 {
		return nil, defects
	}
	return &ev, nil
}

// requireString pulls a mandatory string field out of the payload, recording
// a defect when the field is absent or not a string. The bool reports
// whether a string value was obtained.
func requireString(payload map[string]any, field string, add func(string, model.DefectKind, string, ...any)) (string, bool) {
	raw, present := payload[field]
	if !present || raw == nil {
		add(field, model.DefectMissing, "field is required")
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		add(field, model.DefectInvalid, "expected a string, got %T", raw)
		return "", false
	}
	return s, true
}

// toFloat accepts the numeric encodings JSON decoding can hand us, plus
// numeric strings, which some producers send for price.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
