package model

import (
	"encoding/json"
	"time"
)

// Stage tags where in the pipeline an error row originated.
type Stage string

const (
	StageValidation      Stage = "validation"
	StageProcessedInsert Stage = "processed_insert"
)

// RawRow is written for every delivery regardless of validity. It preserves
// the payload byte-for-byte (as serialized JSON) alongside transport
// metadata and the validation verdict.
type RawRow struct {
	MessageID        *string
	EventID          *string
	PublishTime      *time.Time
	IngestionTime    time.Time
	RawPayload       json.RawMessage
	Source           string
	Attributes       json.RawMessage
	IsValid          bool
	ValidationErrors json.RawMessage // nil when valid
}

// ProcessedRow holds the typed fields of a validated event.
type ProcessedRow struct {
	EventID       string
	UserID        string
	EventType     string
	ProductID     string
	Category      string
	Price         float64
	Device        string
	City          string
	EventTime     time.Time
	IngestionTime time.Time
}

// ErrorRow records one pipeline failure for operational diagnosis. Stage
// distinguishes validation failures from downstream insert failures.
type ErrorRow struct {
	MessageID     *string
	EventID       *string
	PublishTime   *time.Time
	IngestionTime time.Time
	Stage         Stage
	ErrorMessage  string
	ErrorDetails  json.RawMessage // nil when there is nothing structured to attach
	RawPayload    json.RawMessage
	Attributes    json.RawMessage
	Source        string
}
