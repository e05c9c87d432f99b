package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/aevon-lab/statengine/internal/core/storage"
	"github.com/aevon-lab/statengine/internal/core/timeindex"
	"github.com/aevon-lab/statengine/internal/entrylog"
	"github.com/aevon-lab/statengine/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Engine ties together the entry log, the aggregate page cache and the
// time index. It is safe for concurrent use.
type Engine struct {
	log     *entrylog.Log
	pages   storage.PageStore
	clock   timeindex.Provider
	metrics *metrics.Metrics

	// backfills collapses concurrent computations of the same bucket.
	backfills singleflight.Group
}

// New creates an Engine. m may be nil.
func New(log *entrylog.Log, pages storage.PageStore, clock timeindex.Provider, m *metrics.Metrics) *Engine {
	return &Engine{
		log:     log,
		pages:   pages,
		clock:   clock,
		metrics: m,
	}
}

func (e *Engine) TimeIndex() int64 {
	return e.clock.TimeIndex()
}

func (e *Engine) Record(entry stats.Entry) {
	e.log.Record(entry)
}

// Flush persists all buffered entries into bucket index.
func (e *Engine) Flush(ctx context.Context, index int64) error {
	start := time.Now()
	err := e.log.Flush(ctx, index)
	e.metrics.FlushDone(time.Since(start), err)
	return err
}

// Settle retries batches left unwritten by a failed Flush.
func (e *Engine) Settle(ctx context.Context) error {
	start := time.Now()
	err := e.log.Settle(ctx)
	e.metrics.FlushDone(time.Since(start), err)
	return err
}

func (e *Engine) Entries(ctx context.Context, kind stats.EventKind, index int64) ([]stats.Entry, error) {
	return e.log.Entries(ctx, kind, index)
}

func (e *Engine) Pending() int {
	return e.log.Pending()
}

// Aggregate returns the cached value of one bucket without computing it.
func (e *Engine) Aggregate(ctx context.Context, key stats.Key, index int64) (stats.Value, bool, error) {
	cached, err := e.pages.Retrieve(ctx, index, index, key)
	if err != nil {
		return nil, false, err
	}
	v, ok := cached[index]
	return v, ok, nil
}

// AggregateCurrent reduces the entries buffered since the last flush.
// ok is false when nothing of the aggregate's event kind is buffered.
func (e *Engine) AggregateCurrent(agg stats.Aggregator) (stats.Value, bool) {
	entries := e.log.Current(agg.Key().Event)
	if len(entries) == 0 {
		return nil, false
	}
	return agg.Aggregate(entries), true
}

// GetOrAggregate returns a value for every index in [start, end]. Cached
// values are used as is; the rest are computed from persisted entries and
// written back unless they equal the aggregator's identity.
func (e *Engine) GetOrAggregate(ctx context.Context, agg stats.Aggregator, start, end int64) (map[int64]stats.Value, error) {
	if err := stats.CheckRange(start, end); err != nil {
		return nil, err
	}
	key := agg.Key()

	cached, err := e.pages.Retrieve(ctx, start, end, key)
	if err != nil {
		return nil, err
	}

	result := make(map[int64]stats.Value, len(cached))
	for idx := start; ; idx++ {
		if v, ok := cached[idx]; ok {
			e.metrics.CacheHit(key)
			result[idx] = v
		} else {
			e.metrics.CacheMiss(key)
			v, err := e.backfill(ctx, agg, idx)
			if err != nil {
				return nil, err
			}
			result[idx] = v
		}
		if idx == end {
			break
		}
	}
	return result, nil
}

// AggregateRange reduces all persisted entries in [start, end] in one pass,
// bypassing the page cache.
func (e *Engine) AggregateRange(ctx context.Context, agg stats.Aggregator, start, end int64) (stats.Value, bool, error) {
	return stats.AggregateRange(ctx, e.log, agg, start, end)
}

func (e *Engine) backfill(ctx context.Context, agg stats.Aggregator, index int64) (stats.Value, error) {
	key := agg.Key()
	v, err, _ := e.backfills.Do(fmt.Sprintf("%s/%d", key, index), func() (interface{}, error) {
		// Checked before loading: a batch settling mid-read would otherwise
		// let a partial value reach the page.
		settled := e.log.Settled(key.Event, index)
		entries, err := e.log.Entries(ctx, key.Event, index)
		if err != nil {
			return nil, err
		}

		value := agg.Aggregate(entries)
		if stats.IsIdentity(agg, value) {
			return value, nil
		}
		if !settled {
			slog.Debug("[Engine] Bucket not fully flushed, skipping page write",
				"key", key.String(),
				"index", index)
			return value, nil
		}

		if err := e.pages.Store(ctx, index, key, value); err != nil {
			e.metrics.PageWriteFailed(key)
			slog.Warn("[Engine] Page write failed, serving uncached value",
				"key", key.String(),
				"index", index,
				"error", err)
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(stats.Value), nil
}
