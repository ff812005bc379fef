package sink

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"cartstream.app/ingest/common/id"
	"cartstream.app/ingest/core/db"
	"cartstream.app/ingest/internal/model"
)

// PostgresWriter streams single rows into schema-qualified tables.
// Idempotency rides on a unique index over insert_id: redelivered rows hit
// ON CONFLICT DO NOTHING instead of creating duplicates. Rows without an
// insert id carry NULL, which never conflicts.
type PostgresWriter struct {
	db *db.DB
}

func NewPostgresWriter(database *db.DB) *PostgresWriter {
	return &PostgresWriter{db: database}
}

func (w *PostgresWriter) InsertRaw(ctx context.Context, dest Destination, row *model.RawRow, insertID string) error {
	query := buildInsert(dest, []string{
		"id", "insert_id", "message_id", "event_id", "publish_time",
		"ingestion_time", "raw_payload", "source", "attributes",
		"is_valid", "validation_errors",
	})
	_, err := w.db.Pool().Exec(ctx, query,
		id.New(), nullable(insertID), row.MessageID, row.EventID, row.PublishTime,
		row.IngestionTime, row.RawPayload, row.Source, row.Attributes,
		row.IsValid, nullableJSON(row.ValidationErrors),
	)
	if err != nil {
		return &WriteError{Dest: dest, Transient: true, Err: err}
	}
	return nil
}

func (w *PostgresWriter) InsertProcessed(ctx context.Context, dest Destination, row *model.ProcessedRow, insertID string) error {
	query := buildInsert(dest, []string{
		"id", "insert_id", "event_id", "user_id", "event_type", "product_id",
		"category", "price", "device", "city", "event_time", "ingestion_time",
	})
	_, err := w.db.Pool().Exec(ctx, query,
		id.New(), nullable(insertID), row.EventID, row.UserID, row.EventType, row.ProductID,
		row.Category, row.Price, row.Device, row.City, row.EventTime, row.IngestionTime,
	)
	if err != nil {
		return &WriteError{Dest: dest, Transient: true, Err: err}
	}
	return nil
}

func (w *PostgresWriter) InsertError(ctx context.Context, dest Destination, row *model.ErrorRow, insertID string) error {
	query := buildInsert(dest, []string{
		"id", "insert_id", "message_id", "event_id", "publish_time",
		"ingestion_time", "stage", "error_message", "error_details",
		"raw_payload", "attributes", "source",
	})
	_, err := w.db.Pool().Exec(ctx, query,
		id.New(), nullable(insertID), row.MessageID, row.EventID, row.PublishTime,
		row.IngestionTime, string(row.Stage), row.ErrorMessage, nullableJSON(row.ErrorDetails),
		row.RawPayload, row.Attributes, row.Source,
	)
	if err != nil {
		return &WriteError{Dest: dest, Transient: true, Err: err}
	}
	return nil
}

// buildInsert renders a single-row insert against a sanitized
// schema-qualified table with positional placeholders and the dedupe
// conflict clause.
func buildInsert(dest Destination, cols []string) string {
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(pgx.Identifier{dest.Dataset, dest.Table}.Sanitize())
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(placeholders, ", "))
	sb.WriteString(") ON CONFLICT (insert_id) DO NOTHING")
	return sb.String()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableJSON keeps NULL distinct from the empty document.
func nullableJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
