package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/aevon-lab/statengine/internal/engine"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuery marks request validation errors that should return HTTP 400.
	ErrInvalidQuery = errors.New("invalid aggregate query")

	// ErrNotCached is returned when a bucket has no page-cache entry.
	ErrNotCached = errors.New("aggregate not cached")
)

// Reader is the read side of the engine.
type Reader interface {
	engine.SeriesSource
	Aggregate(ctx context.Context, key stats.Key, index int64) (stats.Value, bool, error)
	AggregateRange(ctx context.Context, agg stats.Aggregator, start, end int64) (stats.Value, bool, error)
}

// Options bounds series and range requests.
type Options struct {
	DefaultHorizon int64
	MaxHorizon     int64
	// MaxRange is the widest [start, end] Range and Total accept, in buckets.
	MaxRange int64
}

// Service implements the projection/query layer.
// Closed buckets come from the page cache (computed on a miss); the open
// bucket is folded in from the entry buffer.
type Service struct {
	reader Reader
	series *engine.SeriesBuilder
	opts   Options
}

// NewService creates a new projection service.
func NewService(reader Reader, opts Options) *Service {
	if opts.DefaultHorizon <= 0 {
		opts.DefaultHorizon = 60
	}
	if opts.MaxHorizon < opts.DefaultHorizon {
		opts.MaxHorizon = opts.DefaultHorizon
	}
	if opts.MaxRange <= 0 {
		opts.MaxRange = 10080
	}
	return &Service{
		reader: reader,
		series: engine.NewSeriesBuilder(reader),
		opts:   opts,
	}
}

// Cached returns the page-cache content for one bucket, without computing it.
func (s *Service) Cached(ctx context.Context, kind stats.AggregateKind, index int64) (*CachedResponse, error) {
	agg, err := stats.AggregatorFor(kind)
	if err != nil {
		return nil, err
	}

	v, ok, err := s.reader.Aggregate(ctx, agg.Key(), index)
	if err != nil {
		return nil, fmt.Errorf("read cached %s: %w", kind, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s at index %d", ErrNotCached, kind, index)
	}
	return &CachedResponse{Aggregate: kind, Index: index, Value: v.Number()}, nil
}

// Range returns one value per bucket in [start, end], filling the cache as needed.
func (s *Service) Range(ctx context.Context, kind stats.AggregateKind, start, end int64) (*RangeResponse, error) {
	agg, err := stats.AggregatorFor(kind)
	if err != nil {
		return nil, err
	}
	if err := s.checkWidth(start, end); err != nil {
		return nil, err
	}

	values, err := s.reader.GetOrAggregate(ctx, agg, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]PointValue, 0, len(values))
	for idx := start; ; idx++ {
		if v, ok := values[idx]; ok {
			points = append(points, PointValue{Index: idx, Value: v.Number()})
		}
		if idx == end {
			break
		}
	}

	slog.Debug("[Projection] Range served", "aggregate", kind, "start", start, "end", end, "points", len(points))
	return &RangeResponse{
		Aggregate: kind,
		Event:     agg.Key().Event,
		Start:     start,
		End:       end,
		Values:    points,
	}, nil
}

// Total reduces every persisted entry in [start, end] in a single pass.
func (s *Service) Total(ctx context.Context, kind stats.AggregateKind, start, end int64) (*TotalResponse, error) {
	agg, err := stats.AggregatorFor(kind)
	if err != nil {
		return nil, err
	}
	if err := s.checkWidth(start, end); err != nil {
		return nil, err
	}

	v, ok, err := s.reader.AggregateRange(ctx, agg, start, end)
	if err != nil {
		return nil, err
	}

	resp := &TotalResponse{Aggregate: kind, Start: start, End: end}
	if ok {
		resp.Value = numberPtr(v)
	}
	return resp, nil
}

// Current reports the aggregate of entries buffered since the last flush.
func (s *Service) Current(kind stats.AggregateKind) (*CurrentResponse, error) {
	agg, err := stats.AggregatorFor(kind)
	if err != nil {
		return nil, err
	}

	resp := &CurrentResponse{Aggregate: kind, Index: s.reader.TimeIndex()}
	if v, ok := s.reader.AggregateCurrent(agg); ok {
		resp.Value = numberPtr(v)
	}
	return resp, nil
}

// Series builds the dense series ending at the open bucket.
// A nil horizon selects the configured default.
func (s *Service) Series(ctx context.Context, kind stats.AggregateKind, horizon *int64) (*SeriesResponse, error) {
	agg, err := stats.AggregatorFor(kind)
	if err != nil {
		return nil, err
	}

	h := s.opts.DefaultHorizon
	if horizon != nil {
		h = *horizon
	}
	if h > s.opts.MaxHorizon {
		return nil, invalidQueryf("horizon %d exceeds maximum %d", h, s.opts.MaxHorizon)
	}

	points, err := s.series.Points(ctx, agg, h)
	if err != nil {
		return nil, err
	}

	resp := &SeriesResponse{Aggregate: kind, Horizon: h, Points: make([]PointValue, len(points))}
	for i, p := range points {
		resp.Points[i] = PointValue{Index: p.Index, Value: p.Value.Number(), Live: p.Live}
	}
	if len(points) > 0 {
		resp.Current = points[len(points)-1].Index
	}
	return resp, nil
}

// checkWidth rejects ranges spanning more than MaxRange buckets. Reversed
// ranges are left to the reader.
func (s *Service) checkWidth(start, end int64) error {
	if end < start {
		return nil
	}
	if width := end - start; width < 0 || width >= s.opts.MaxRange {
		return invalidQueryf("range [%d, %d] spans more than %d buckets", start, end, s.opts.MaxRange)
	}
	return nil
}

func numberPtr(v stats.Value) *decimal.Decimal {
	n := v.Number()
	return &n
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
