// Package repo writes ingest events to clickhouse
package repo

import (
	"context"
	"fmt"

	"mdms/internal/platform/store"
	ingest "mdms/internal/services/ingest/domain"

	"github.com/google/uuid"
)

// DefaultTable is the clickhouse table events land in
const DefaultTable = "ingest_events"

// Writer appends events
type Writer interface {
	Append(ctx context.Context, xs []ingest.Event) error
	Ensure(ctx context.Context) error
	Name() string
}

// CH writes to clickhouse through the store seam
type CH struct {
	c     store.Clickhouse
	table string
}

// NewCH builds a clickhouse writer, an empty table uses DefaultTable
func NewCH(c store.Clickhouse, table string) *CH {
	if table == "" {
		table = DefaultTable
	}
	return &CH{c: c, table: table}
}

// Name implements Writer
func (*CH) Name() string { return "clickhouse" }

// Ensure creates the table when missing
func (w *CH) Ensure(ctx context.Context) error {
	return w.c.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    ts          DateTime64(3, 'UTC'),
    batch_id    UUID,
    file_index  UInt32,
    file_name   String,
    media_id    UUID,
    outcome     LowCardinality(String),
    reason      LowCardinality(String),
    issue_types Array(LowCardinality(String)),
    ticket_ids  Array(UUID),
    elapsed_ms  UInt32
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (ts, batch_id, file_index)`, w.table))
}

// Append implements Writer, column order follows the table definition
func (w *CH) Append(ctx context.Context, xs []ingest.Event) error {
	if len(xs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(xs))
	for _, e := range xs {
		types := make([]string, 0, len(e.IssueTypes))
		for _, t := range e.IssueTypes {
			types = append(types, string(t))
		}
		ids := e.TicketIDs
		if ids == nil {
			ids = []uuid.UUID{}
		}
		rows = append(rows, []any{
			e.At.UTC(),
			e.BatchID,
			uint32(e.FileIndex),
			e.FileName,
			e.MediaID,
			string(e.Outcome),
			string(e.Reason),
			types,
			ids,
			uint32(max(e.Elapsed.Milliseconds(), 0)),
		})
	}
	return w.c.Insert(ctx, w.table, rows)
}

// Nop drops events
type Nop struct{}

// Name implements Writer
func (Nop) Name() string { return "nop" }

// Ensure implements Writer
func (Nop) Ensure(context.Context) error { return nil }

// Append implements Writer
func (Nop) Append(context.Context, []ingest.Event) error { return nil }
