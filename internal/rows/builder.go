// Package rows maps one delivery — payload, transport metadata, and the
// validation verdict — onto the flat shapes the sinks accept.
package rows

import (
	"encoding/json"
	"fmt"
	"time"

	"cartstream.app/ingest/internal/model"
	"cartstream.app/ingest/internal/validate"
)

// Input bundles everything known about one delivery at row-building time.
// IngestionTime is captured once per delivery and shared by every row built
// from it.
type Input struct {
	Payload       map[string]any
	Meta          model.DeliveryMetadata
	Event         *model.Event // nil when validation failed
	Defects       []model.Defect
	IngestionTime time.Time
}

// Builder constructs raw, processed, and error rows. It is stateless apart
// from the source label stamped onto rows.
type Builder struct {
	source string
}

func New(source string) *Builder {
	return &Builder{source: source}
}

// Raw builds the always-written raw row. Serialization of the payload,
// attributes, and defects must round-trip, so a marshal failure is a real
// error rather than a best-effort omission.
func (b *Builder) Raw(in Input) (*model.RawRow, error) {
	payload, attrs, err := serialize(in)
	if err != nil {
		return nil, err
	}

	row := &model.RawRow{
		MessageID:     optional(in.Meta.MessageID),
		EventID:       eventID(in),
		PublishTime:   publishTime(in.Meta),
		IngestionTime: in.IngestionTime,
		RawPayload:    payload,
		Source:        b.source,
		Attributes:    attrs,
		IsValid:       in.Event != nil,
	}

	if len(in.Defects) > 0 {
		detail, err := json.Marshal(in.Defects)
		if err != nil {
			return nil, fmt.Errorf("marshal defects: %w", err)
		}
		row.ValidationErrors = detail
	}
	return row, nil
}

// Processed builds the typed row for a validated event.
func (b *Builder) Processed(in Input) (*model.ProcessedRow, error) {
	if in.Event == nil {
		return nil, fmt.Errorf("processed row requires a validated event")
	}
	ev := in.Event
	return &model.ProcessedRow{
		EventID:       ev.EventID.String(),
		UserID:        ev.UserID,
		EventType:     string(ev.EventType),
		ProductID:     ev.ProductID,
		Category:      ev.Category,
		Price:         ev.Price,
		Device:        string(ev.Device),
		City:          ev.City,
		EventTime:     ev.EventTime.UTC(),
		IngestionTime: in.IngestionTime,
	}, nil
}

// Error builds a diagnostic row for the error sink. details is marshaled
// when non-nil; pass the defect list for validation failures.
func (b *Builder) Error(in Input, stage model.Stage, errMsg string, details any) (*model.ErrorRow, error) {
	payload, attrs, err := serialize(in)
	if err != nil {
		return nil, err
	}

	row := &model.ErrorRow{
		MessageID:     optional(in.Meta.MessageID),
		EventID:       eventID(in),
		PublishTime:   publishTime(in.Meta),
		IngestionTime: in.IngestionTime,
		Stage:         stage,
		ErrorMessage:  errMsg,
		RawPayload:    payload,
		Attributes:    attrs,
		Source:        b.source,
	}

	if details != nil {
		detail, err := json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("marshal error details: %w", err)
		}
		row.ErrorDetails = detail
	}
	return row, nil
}

func serialize(in Input) (payload, attrs json.RawMessage, err error) {
	payload, err = json.Marshal(in.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal payload: %w", err)
	}

	attributes := in.Meta.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	attrs, err = json.Marshal(attributes)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal attributes: %w", err)
	}
	return payload, attrs, nil
}

// eventID prefers the validated UUID and falls back to whatever string the
// payload carried, so invalid events still land with their claimed id.
func eventID(in Input) *string {
	if in.Event != nil {
		s := in.Event.EventID.String()
		return &s
	}
	if raw, ok := in.Payload["event_id"].(string); ok && raw != "" {
		return &raw
	}
	return nil
}

// publishTime parses the broker timestamp; a malformed value is stored as
// absent rather than failing the row. event_time gets the opposite
// treatment (hard defect) over in the validator.
func publishTime(meta model.DeliveryMetadata) *time.Time {
	t, ok := validate.ParseTimestamp(meta.PublishTime)
	if !ok {
		return nil
	}
	return &t
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
