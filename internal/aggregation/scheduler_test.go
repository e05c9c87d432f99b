package aggregation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/aevon-lab/statengine/internal/core/storage"
	"github.com/aevon-lab/statengine/internal/core/storage/file"
	"github.com/aevon-lab/statengine/internal/core/timeindex"
	"github.com/aevon-lab/statengine/internal/engine"
	"github.com/aevon-lab/statengine/internal/entrylog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	clock *timeindex.Manual

	mu         sync.Mutex
	flushed    []int64
	failNext   error
	settles    int
	failSettle error
	aggregate  map[stats.Key][]int64
}

// flakySegments fails its next `failures` appends.
type flakySegments struct {
	storage.SegmentStore

	mu       sync.Mutex
	failures int
}

func (f *flakySegments) Append(ctx context.Context, kind stats.EventKind, index int64, records [][]byte) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return errors.New("disk full")
	}
	f.mu.Unlock()
	return f.SegmentStore.Append(ctx, kind, index, records)
}

func newFakeTarget(start int64) *fakeTarget {
	return &fakeTarget{
		clock:     timeindex.NewManual(start),
		aggregate: make(map[stats.Key][]int64),
	}
}

func (f *fakeTarget) TimeIndex() int64 { return f.clock.TimeIndex() }

func (f *fakeTarget) Flush(_ context.Context, index int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.flushed = append(f.flushed, index)
	return nil
}

func (f *fakeTarget) Settle(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settles++
	if f.failSettle != nil {
		err := f.failSettle
		f.failSettle = nil
		return err
	}
	return nil
}

func (f *fakeTarget) GetOrAggregate(_ context.Context, agg stats.Aggregator, start, _ int64) (map[int64]stats.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggregate[agg.Key()] = append(f.aggregate[agg.Key()], start)
	return map[int64]stats.Value{start: agg.Identity()}, nil
}

func (f *fakeTarget) flushes() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.flushed...)
}

func TestScheduler_TickSealsOnlyPassedBuckets(t *testing.T) {
	ctx := context.Background()
	target := newFakeTarget(100)
	s := NewScheduler(target, Options{})

	sealed, err := s.Tick(ctx)
	require.NoError(t, err)
	require.False(t, sealed)
	require.Empty(t, target.flushes())

	target.clock.Advance(1)
	sealed, err = s.Tick(ctx)
	require.NoError(t, err)
	require.True(t, sealed)
	require.Equal(t, []int64{100}, target.flushes())
	require.Equal(t, int64(101), s.OpenIndex())

	// Skipped buckets stay empty; everything buffered lands in the open one.
	target.clock.Advance(5)
	_, err = s.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{100, 101}, target.flushes())
	require.Equal(t, int64(106), s.OpenIndex())
}

func TestScheduler_FailedFlushSealsBucketAndSettlesLater(t *testing.T) {
	ctx := context.Background()
	target := newFakeTarget(7)
	s := NewScheduler(target, Options{WarmCache: true, Aggregators: []stats.Aggregator{stats.RevenueAggregator{}}})

	target.clock.Advance(1)
	target.failNext = errors.New("disk full")
	sealed, err := s.Tick(ctx)
	require.Error(t, err)
	require.True(t, sealed)
	require.Equal(t, int64(8), s.OpenIndex())
	require.Empty(t, target.aggregate, "an unwritten bucket is not warmed")

	// Same bucket still open: the tick only retries what was left unwritten.
	target.failSettle = errors.New("disk still full")
	sealed, err = s.Tick(ctx)
	require.Error(t, err)
	require.False(t, sealed)

	sealed, err = s.Tick(ctx)
	require.NoError(t, err)
	require.False(t, sealed)
	require.Equal(t, 2, target.settles)

	// Settled: idle ticks do nothing.
	_, err = s.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, target.settles)
	require.Empty(t, target.flushes())

	target.clock.Advance(1)
	sealed, err = s.Tick(ctx)
	require.NoError(t, err)
	require.True(t, sealed)
	require.Equal(t, []int64{8}, target.flushes())
}

func TestScheduler_EngineRetryKeepsLateEntriesOutOfFailedBucket(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := timeindex.NewManual(30)
	segments := &flakySegments{SegmentStore: file.NewSegmentStore(filepath.Join(dir, "entries"), false), failures: 1}
	pages := file.NewPageStore(filepath.Join(dir, "aggregates"))
	e := engine.New(entrylog.New(segments, nil), pages, clock, nil)
	s := NewScheduler(e, Options{})

	e.Record(stats.TicketSale{Station: "north", Price: decimal.RequireFromString("2")})
	clock.Advance(1)
	_, err := s.Tick(ctx)
	require.ErrorIs(t, err, stats.ErrStorageWrite)
	require.Equal(t, int64(31), s.OpenIndex())

	e.Record(stats.TicketSale{Station: "north", Price: decimal.RequireFromString("5")})
	_, err = s.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, e.Pending())

	got, err := e.GetOrAggregate(ctx, stats.RevenueAggregator{}, 30, 30)
	require.NoError(t, err)
	require.Equal(t, "2", got[30].String())

	clock.Advance(1)
	_, err = s.Tick(ctx)
	require.NoError(t, err)
	got, err = e.GetOrAggregate(ctx, stats.RevenueAggregator{}, 30, 31)
	require.NoError(t, err)
	require.Equal(t, "2", got[30].String())
	require.Equal(t, "5", got[31].String())
}

func TestScheduler_WarmsSealedBucket(t *testing.T) {
	ctx := context.Background()
	target := newFakeTarget(20)
	aggs := []stats.Aggregator{stats.RevenueAggregator{}, stats.ExpenseAggregator{}, stats.RidershipAggregator{}}
	s := NewScheduler(target, Options{WarmCache: true, WorkerCount: 2, Aggregators: aggs})

	target.clock.Advance(1)
	_, err := s.Tick(ctx)
	require.NoError(t, err)

	for _, agg := range aggs {
		require.Equal(t, []int64{20}, target.aggregate[agg.Key()], agg.Key().String())
	}
}

func TestScheduler_StartFlushesOnShutdown(t *testing.T) {
	target := newFakeTarget(3)
	s := NewScheduler(target, Options{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	target.clock.Advance(1)
	require.Eventually(t, func() bool {
		return len(target.flushes()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	require.Equal(t, []int64{3, 4}, target.flushes())
}

func TestScheduler_EndToEndWithEngine(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := timeindex.NewManual(50)
	pages := file.NewPageStore(filepath.Join(dir, "aggregates"))
	e := engine.New(entrylog.New(file.NewSegmentStore(filepath.Join(dir, "entries"), false), nil), pages, clock, nil)

	s := NewScheduler(e, Options{WarmCache: true, Aggregators: []stats.Aggregator{stats.RevenueAggregator{}}})

	e.Record(stats.TicketSale{Station: "north", Price: decimal.RequireFromString("2.5")})
	e.Record(stats.TicketSale{Station: "north", Price: decimal.RequireFromString("1.5")})
	clock.Advance(1)
	_, err := s.Tick(ctx)
	require.NoError(t, err)

	cached, err := pages.Retrieve(ctx, 50, 50, stats.RevenueAggregator{}.Key())
	require.NoError(t, err)
	require.Equal(t, "4", cached[50].String())
	require.Equal(t, 0, e.Pending())
}
