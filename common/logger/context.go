package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are structured fields attached to a context once and included
// in every log line emitted while processing that delivery.
type LogFields struct {
	MessageID *string // broker-assigned message id
	EventID   *string // business event id (when the event validated)
	EventType *string // canonical event type
	Stage     *string // pipeline stage, set around sink writes
	Component string  // e.g. "ingest.router"
}

// WithLogFields enriches ctx with fields. Repeated calls merge, newer
// non-nil/non-empty values winning.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.EventID != nil {
		result.EventID = next.EventID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.Stage != nil {
		result.Stage = next.Stage
	}
	if next.Component != "" {
		result.Component = next.Component
	}
	return result
}

// Ptr builds a pointer inline: logger.WithLogFields(ctx, logger.LogFields{EventID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
