// Package sink defines the durable-destination boundary the router writes
// through, plus the Postgres implementation used in production.
package sink

import (
	"context"
	"errors"
	"fmt"

	"cartstream.app/ingest/internal/model"
)

// Destination names one table-like collection inside a dataset. In the
// Postgres implementation this maps onto a (schema, table) pair.
type Destination struct {
	Dataset string
	Table   string
}

func (d Destination) String() string {
	return d.Dataset + "." + d.Table
}

// Writer performs single-row idempotent inserts. insertID is the
// deduplication token: two writes to the same destination with the same
// non-empty insertID must not produce two rows. An empty insertID means no
// dedupe is possible and the row is always inserted.
//
// All write failures are treated as transient by callers — the delivery
// mechanism retries and the idempotency key makes the retry safe.
type Writer interface {
	InsertRaw(ctx context.Context, dest Destination, row *model.RawRow, insertID string) error
	InsertProcessed(ctx context.Context, dest Destination, row *model.ProcessedRow, insertID string) error
	InsertError(ctx context.Context, dest Destination, row *model.ErrorRow, insertID string) error
}

// WriteError wraps a failed sink write with its destination so the caller
// can log where it happened. Transient reports whether a retry can succeed;
// the Postgres writer marks every failure transient.
type WriteError struct {
	Dest      Destination
	Transient bool
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("sink write to %s: %v", e.Dest, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a sink failure worth retrying.
func IsTransient(err error) bool {
	var we *WriteError
	return errors.As(err, &we) && we.Transient
}
