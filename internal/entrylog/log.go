package entrylog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/aevon-lab/statengine/internal/core/storage"
	"github.com/aevon-lab/statengine/internal/metrics"
)

// sealedBatch is a buffer cut for one bucket that has not fully reached
// storage. Kinds are removed from entries as they are written.
type sealedBatch struct {
	index   int64
	entries map[stats.EventKind][]stats.Entry
}

// Log buffers recorded entries in memory until they are flushed into a
// bucket, and reads flushed buckets back from the segment store.
type Log struct {
	store   storage.SegmentStore
	metrics *metrics.Metrics

	// flushMu serializes flushes so sealed batches reach storage in the
	// order they were cut.
	flushMu sync.Mutex

	mu        sync.Mutex
	buffer    map[stats.EventKind][]stats.Entry
	buffered  int
	unsettled []*sealedBatch
	pending   int
}

// New creates a Log persisting into store. m may be nil.
func New(store storage.SegmentStore, m *metrics.Metrics) *Log {
	return &Log{
		store:   store,
		metrics: m,
		buffer:  make(map[stats.EventKind][]stats.Entry),
	}
}

// Record appends e to the in-memory buffer under its kind. It never blocks on I/O.
// Entries of an unregistered kind are dropped and counted.
func (l *Log) Record(e stats.Entry) {
	if e == nil {
		return
	}
	kind := e.Kind()
	if _, err := stats.ParseEventKind(string(kind)); err != nil {
		slog.Warn("[EntryLog] Rejected entry", "kind", kind, "error", err)
		l.metrics.EntryRejected(kind)
		return
	}

	l.mu.Lock()
	l.buffer[kind] = append(l.buffer[kind], e)
	l.buffered++
	l.pending++
	n := l.pending
	l.mu.Unlock()

	l.metrics.EntryRecorded(kind, n)
}

// Flush seals everything buffered under bucket index, then writes every
// sealed batch to storage in order. Entries recorded after the cut go to
// the next flush.
//
// A failed write keeps the unwritten part of each batch sealed under its
// own index; the next Flush or Settle retries it there. The error wraps
// stats.ErrStorageWrite.
func (l *Log) Flush(ctx context.Context, index int64) error {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	l.mu.Lock()
	if l.buffered > 0 {
		l.unsettled = append(l.unsettled, &sealedBatch{index: index, entries: l.buffer})
		l.buffer = make(map[stats.EventKind][]stats.Entry, len(l.buffer))
		l.buffered = 0
	}
	l.mu.Unlock()

	return l.settle(ctx)
}

// Settle retries sealed batches left behind by a failed flush without
// sealing the buffer.
func (l *Log) Settle(ctx context.Context) error {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()
	return l.settle(ctx)
}

func (l *Log) settle(ctx context.Context) error {
	l.mu.Lock()
	queue := slices.Clone(l.unsettled)
	l.mu.Unlock()

	if len(queue) == 0 {
		slog.Debug("[EntryLog] Nothing to flush")
		return nil
	}

	for _, batch := range queue {
		if err := l.persistBatch(ctx, batch); err != nil {
			return err
		}
		l.mu.Lock()
		l.unsettled = l.unsettled[1:]
		l.mu.Unlock()
	}
	return nil
}

func (l *Log) persistBatch(ctx context.Context, batch *sealedBatch) error {
	l.mu.Lock()
	kinds := make([]stats.EventKind, 0, len(batch.entries))
	for kind := range batch.entries {
		kinds = append(kinds, kind)
	}
	l.mu.Unlock()
	slices.Sort(kinds)

	for _, kind := range kinds {
		entries, records := l.encode(batch, kind)
		if len(records) == 0 {
			l.markWritten(batch, kind, 0)
			continue
		}
		if err := l.store.Append(ctx, kind, batch.index, records); err != nil {
			slog.Error("[EntryLog] Flush failed, batch kept for retry",
				"index", batch.index,
				"kind", kind,
				"entries", len(entries),
				"error", err)
			return fmt.Errorf("%w: flush %s into index %d: %w", stats.ErrStorageWrite, kind, batch.index, err)
		}
		l.markWritten(batch, kind, len(entries))
	}

	slog.Debug("[EntryLog] Flushed", "index", batch.index, "kinds", len(kinds))
	return nil
}

func (l *Log) markWritten(batch *sealedBatch, kind stats.EventKind, n int) {
	l.mu.Lock()
	delete(batch.entries, kind)
	l.pending -= n
	pending := l.pending
	l.mu.Unlock()
	l.metrics.Buffered(pending)
}

// encode serializes the batch's entries of kind. Entries that cannot be
// serialized are removed from the batch, since a retry would fail the same way.
func (l *Log) encode(batch *sealedBatch, kind stats.EventKind) ([]stats.Entry, [][]byte) {
	entries := batch.entries[kind]
	kept := make([]stats.Entry, 0, len(entries))
	records := make([][]byte, 0, len(entries))
	for _, e := range entries {
		rec, err := stats.EncodeEntry(e)
		if err != nil {
			slog.Warn("[EntryLog] Dropping unencodable entry", "kind", kind, "index", batch.index, "error", err)
			l.metrics.EntryRejected(kind)
			continue
		}
		kept = append(kept, e)
		records = append(records, rec)
	}

	if dropped := len(entries) - len(kept); dropped > 0 {
		l.mu.Lock()
		batch.entries[kind] = kept
		l.pending -= dropped
		l.mu.Unlock()
	}
	return kept, records
}

// Settled reports whether every entry sealed for (kind, index) has reached
// storage. Aggregates of an unsettled bucket are incomplete.
func (l *Log) Settled(kind stats.EventKind, index int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, batch := range l.unsettled {
		if batch.index == index && len(batch.entries[kind]) > 0 {
			return false
		}
	}
	return true
}

// Entries returns the entries persisted for (kind, index) in flush order.
// Unreadable segments and undecodable records are logged and skipped.
func (l *Log) Entries(ctx context.Context, kind stats.EventKind, index int64) ([]stats.Entry, error) {
	if _, err := stats.ParseEventKind(string(kind)); err != nil {
		return nil, err
	}

	records, err := l.store.Load(ctx, kind, index)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("[EntryLog] Segment unreadable, treating as empty",
			"kind", kind,
			"index", index,
			"error", err)
		return []stats.Entry{}, nil
	}

	entries := make([]stats.Entry, 0, len(records))
	for i, rec := range records {
		e, err := stats.DecodeEntry(kind, rec)
		if err != nil {
			slog.Warn("[EntryLog] Skipping corrupt record",
				"kind", kind,
				"index", index,
				"record", i,
				"error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Current returns a snapshot of the buffered, not yet sealed entries of kind.
func (l *Log) Current(kind stats.EventKind) []stats.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.buffer[kind])
}

// Pending reports how many entries have not reached storage yet, buffered
// or sealed.
func (l *Log) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}
