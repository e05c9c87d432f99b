package storage

import (
	"context"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

// SegmentStore persists the encoded entries of each (event kind, bucket index) segment.
type SegmentStore interface {
	// Append adds records to the end of the segment. A failed Append may have
	// written nothing; callers retry the whole batch.
	Append(ctx context.Context, kind stats.EventKind, index int64, records [][]byte) error

	// Load returns the segment's records in append order.
	// A segment that was never written yields no records and no error.
	Load(ctx context.Context, kind stats.EventKind, index int64) ([][]byte, error)
}

// PageStore caches per-bucket aggregate values, grouped into pages of page.Size indices.
type PageStore interface {
	// Retrieve returns every cached value with an index in [start, end].
	// Absent or unreadable pages contribute nothing.
	Retrieve(ctx context.Context, start, end int64, key stats.Key) (map[int64]stats.Value, error)

	// Store records value at index, replacing any previous value.
	Store(ctx context.Context, index int64, key stats.Key, value stats.Value) error
}
