package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/statengine/internal/core/page"
	"github.com/aevon-lab/statengine/internal/core/stats"
)

// PageAdapter implements storage.PageStore using PostgreSQL.
// Each row holds one encoded page, in the same layout the file backend writes.
type PageAdapter struct {
	db    *sql.DB
	nowFn func() time.Time
}

// NewPageAdapter creates a PageAdapter sharing the given connection.
func NewPageAdapter(db *sql.DB) *PageAdapter {
	return &PageAdapter{db: db, nowFn: time.Now}
}

func (a *PageAdapter) Retrieve(ctx context.Context, start, end int64, key stats.Key) (map[int64]stats.Value, error) {
	if err := stats.CheckRange(start, end); err != nil {
		return nil, err
	}
	codec, err := stats.CodecFor(key.Aggregate)
	if err != nil {
		return nil, err
	}

	first, last := page.Span(start, end)
	rows, err := a.db.QueryContext(ctx, queryRangePages, string(key.Event), string(key.Aggregate), first, last)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]stats.Value)
	for rows.Next() {
		var pageNo int64
		var payload []byte
		if err := rows.Scan(&pageNo, &payload); err != nil {
			return nil, fmt.Errorf("scan page row: %w", err)
		}
		values, err := page.Decode(codec, payload)
		if err != nil {
			slog.Warn("[PageAdapter] Unreadable page treated as empty",
				"key", key.String(),
				"page", pageNo,
				"error", err)
			continue
		}
		page.Filter(result, values, start, end)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page rows: %w", err)
	}
	return result, nil
}

// Store read-modify-writes the page under a row lock in one transaction.
func (a *PageAdapter) Store(ctx context.Context, index int64, key stats.Key, value stats.Value) error {
	codec, err := stats.CodecFor(key.Aggregate)
	if err != nil {
		return err
	}
	if value.AggregateKind() != key.Aggregate {
		return fmt.Errorf("store %s: got %s value", key, value.AggregateKind())
	}

	p := page.For(index)
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: store page: begin tx: %w", stats.ErrStorageWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck

	values := make(map[int64]stats.Value, 1)
	payload, err := scanPayload(tx.QueryRowContext(ctx, querySelectPageForUpdate, string(key.Event), string(key.Aggregate), p))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("%w: store page: %w", stats.ErrStorageWrite, err)
	default:
		existing, decodeErr := page.Decode(codec, payload)
		if decodeErr != nil {
			slog.Warn("[PageAdapter] Rewriting unreadable page",
				"key", key.String(),
				"page", p,
				"error", decodeErr)
		} else {
			values = existing
		}
	}
	values[index] = value

	data, err := page.Encode(codec, values)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, queryUpsertPage, string(key.Event), string(key.Aggregate), p, data, a.nowFn().UTC()); err != nil {
		return fmt.Errorf("%w: store page: upsert: %w", stats.ErrStorageWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: store page: commit: %w", stats.ErrStorageWrite, err)
	}
	return nil
}
