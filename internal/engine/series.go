package engine

import (
	"context"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

// Point is one bucket of a series. Live marks the open bucket's value,
// computed from entries that have not been flushed yet.
type Point struct {
	Index int64
	Value stats.Value
	Live  bool
}

// SeriesSource is what SeriesBuilder reads from. *Engine implements it.
type SeriesSource interface {
	TimeIndex() int64
	GetOrAggregate(ctx context.Context, agg stats.Aggregator, start, end int64) (map[int64]stats.Value, error)
	AggregateCurrent(agg stats.Aggregator) (stats.Value, bool)
}

// SeriesBuilder produces dense, chart-ready series ending at the open bucket.
type SeriesBuilder struct {
	src SeriesSource
}

func NewSeriesBuilder(src SeriesSource) *SeriesBuilder {
	return &SeriesBuilder{src: src}
}

// Build returns horizon+1 values for [curr-horizon, curr], oldest first.
// Gaps hold the aggregator's identity; the last slot carries the live value
// of the open bucket when anything is buffered.
func (b *SeriesBuilder) Build(ctx context.Context, agg stats.Aggregator, horizon int64) ([]stats.Value, error) {
	points, err := b.Points(ctx, agg, horizon)
	if err != nil {
		return nil, err
	}
	values := make([]stats.Value, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values, nil
}

// Points is Build with each value's bucket index attached.
func (b *SeriesBuilder) Points(ctx context.Context, agg stats.Aggregator, horizon int64) ([]Point, error) {
	curr := b.src.TimeIndex()
	if horizon < 0 {
		return nil, &stats.InvalidRangeError{Start: curr - horizon, End: curr}
	}
	start := curr - horizon

	values, err := b.src.GetOrAggregate(ctx, agg, start, curr)
	if err != nil {
		return nil, err
	}
	live, hasLive := b.src.AggregateCurrent(agg)

	points := make([]Point, 0, horizon+1)
	for idx := start; ; idx++ {
		p := Point{Index: idx, Value: agg.Identity()}
		if v, ok := values[idx]; ok {
			p.Value = v
		}
		if idx == curr && hasLive {
			p.Value = live
			p.Live = true
		}
		points = append(points, p)
		if idx == curr {
			break
		}
	}
	return points, nil
}
