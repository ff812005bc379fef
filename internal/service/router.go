package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cartstream.app/ingest/common/logger"
	"cartstream.app/ingest/internal/model"
	"cartstream.app/ingest/internal/rows"
	"cartstream.app/ingest/internal/sink"
	"cartstream.app/ingest/internal/validate"
)

// SinkSet names the three destinations the router writes to.
type SinkSet struct {
	Raw       sink.Destination
	Processed sink.Destination
	Error     sink.Destination
}

// RouteResult reports what happened to one delivery when no failure
// propagated. A validation failure is a successful outcome here — the
// caller should ack, because redelivering permanently bad data is pointless.
type RouteResult struct {
	IsValid  bool
	Defects  []model.Defect
	InsertID string
}

// EventRouter runs one delivery through validate → build → write and
// decides which sinks receive rows. A returned error is always a transient
// storage failure the caller should surface as retryable.
type EventRouter interface {
	Route(ctx context.Context, payload map[string]any, meta model.DeliveryMetadata) (*RouteResult, error)
}

type eventRouter struct {
	writer  sink.Writer
	sinks   SinkSet
	builder *rows.Builder
	logger  *slog.Logger
}

func NewEventRouter(writer sink.Writer, sinks SinkSet, builder *rows.Builder, log *slog.Logger) EventRouter {
	if log == nil {
		log = slog.Default()
	}
	return &eventRouter{
		writer:  writer,
		sinks:   sinks,
		builder: builder,
		logger:  log,
	}
}

func (r *eventRouter) Route(ctx context.Context, payload map[string]any, meta model.DeliveryMetadata) (*RouteResult, error) {
	// One ingestion instant per delivery, shared by every row.
	in := rows.Input{
		Payload:       payload,
		Meta:          meta,
		IngestionTime: time.Now().UTC(),
	}
	in.Event, in.Defects = validate.Event(payload)

	insertID := deriveInsertID(in.Event, meta.MessageID)
	ctx = logger.WithLogFields(ctx, logFields(in, meta))

	rawRow, err := r.builder.Raw(in)
	if err != nil {
		return nil, fmt.Errorf("building raw row: %w", err)
	}

	// The raw write is the one unconditional write. Its failure is
	// transient by contract and propagates untouched; nothing else is
	// attempted for this delivery.
	if err := r.writer.InsertRaw(ctx, r.sinks.Raw, rawRow, insertID); err != nil {
		return nil, fmt.Errorf("writing raw row: %w", err)
	}

	result := &RouteResult{
		IsValid:  in.Event != nil,
		Defects:  in.Defects,
		InsertID: insertID,
	}

	if in.Event == nil {
		// Invalid data is not recoverable: record it for operations and
		// ack. An error-sink failure here must not trigger redelivery.
		r.writeErrorBestEffort(ctx, in, insertID, model.StageValidation, "schema validation failed", in.Defects)
		r.logger.InfoContext(ctx, "event failed validation", "defects", len(in.Defects))
		return result, nil
	}

	processedRow, err := r.builder.Processed(in)
	if err != nil {
		return nil, fmt.Errorf("building processed row: %w", err)
	}

	// Same insert id as the raw row so a redelivery dedupes both sinks
	// consistently.
	if err := r.writer.InsertProcessed(ctx, r.sinks.Processed, processedRow, insertID); err != nil {
		r.writeErrorBestEffort(ctx, in, insertID, model.StageProcessedInsert, err.Error(), nil)
		return nil, fmt.Errorf("writing processed row: %w", err)
	}

	return result, nil
}

// writeErrorBestEffort attempts a diagnostic write to the error sink and
// swallows its failure. A broken error sink must never mask a primary
// outcome — neither the ack of an invalid event nor the propagation of a
// processed-insert failure.
func (r *eventRouter) writeErrorBestEffort(ctx context.Context, in rows.Input, insertID string, stage model.Stage, errMsg string, details any) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(string(stage))})

	row, err := r.builder.Error(in, stage, errMsg, details)
	if err != nil {
		r.logger.WarnContext(ctx, "building error row failed", "stage", string(stage), "error", err)
		return
	}
	if err := r.writer.InsertError(ctx, r.sinks.Error, row, insertID); err != nil {
		r.logger.WarnContext(ctx, "error sink write failed", "stage", string(stage), "error", err)
	}
}

// deriveInsertID picks the dedupe token for this delivery: the business key
// when the event carries one, the transport key otherwise, absent when
// neither exists. The same inputs always derive the same token, which is
// what lets the sink suppress redeliveries.
func deriveInsertID(ev *model.Event, messageID string) string {
	if ev != nil {
		return ev.EventID.String()
	}
	return messageID
}

func logFields(in rows.Input, meta model.DeliveryMetadata) logger.LogFields {
	fields := logger.LogFields{Component: "ingest.router"}
	if meta.MessageID != "" {
		fields.MessageID = logger.Ptr(meta.MessageID)
	}
	if in.Event != nil {
		fields.EventID = logger.Ptr(in.Event.EventID.String())
		fields.EventType = logger.Ptr(string(in.Event.EventType))
	}
	return fields
}
