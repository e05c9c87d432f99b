package aggregation

import (
	"context"
	"log/slog"
	"time"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

const (
	defaultPollInterval = time.Second
	defaultWorkerCount  = 4
	shutdownFlushWait   = 30 * time.Second
)

// Target is the part of the engine the scheduler drives.
type Target interface {
	TimeIndex() int64
	Flush(ctx context.Context, index int64) error
	Settle(ctx context.Context) error
	GetOrAggregate(ctx context.Context, agg stats.Aggregator, start, end int64) (map[int64]stats.Value, error)
}

// Options controls how often the scheduler looks for a sealed bucket and
// whether it precomputes aggregates for the bucket it just flushed.
type Options struct {
	PollInterval time.Duration
	WarmCache    bool
	WorkerCount  int
	Aggregators  []stats.Aggregator
}

func (o Options) normalized() Options {
	n := o
	if n.PollInterval <= 0 {
		n.PollInterval = defaultPollInterval
	}
	if n.WorkerCount <= 0 {
		n.WorkerCount = defaultWorkerCount
	}
	return n
}

// Scheduler seals buckets: once the time index moves past the open bucket,
// every buffered entry is flushed into it.
type Scheduler struct {
	target Target
	opts   Options
	open   int64

	// unsettled is set while a failed flush left batches unwritten.
	unsettled bool
}

func NewScheduler(target Target, opts Options) *Scheduler {
	return &Scheduler{
		target: target,
		opts:   opts.normalized(),
		open:   target.TimeIndex(),
	}
}

// OpenIndex is the bucket currently receiving entries.
func (s *Scheduler) OpenIndex() int64 {
	return s.open
}

// Start polls until ctx is cancelled, then flushes whatever is still
// buffered into the open bucket.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting flush scheduler",
		"poll_interval", s.opts.PollInterval,
		"open_index", s.open,
		"warm_cache", s.opts.WarmCache,
		"workers", s.opts.WorkerCount,
	)

	for {
		select {
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				slog.Error("[Scheduler] Flush failed, will retry next tick",
					"open_index", s.open,
					"error", err)
			}
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)", "open_index", s.open)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushWait)
			defer cancel()

			if err := s.target.Flush(shutdownCtx, s.open); err != nil {
				slog.Error("[Scheduler] Final flush failed", "index", s.open, "error", err)
				return err
			}
			slog.Info("[Scheduler] Final flush complete", "index", s.open)
			return nil
		}
	}
}

// Tick flushes the open bucket if the time index has moved past it and
// reports whether it sealed one. The bucket is sealed even when the flush
// fails: its unwritten entries stay tagged with it and are retried by
// later ticks, while new entries go to the next bucket.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	now := s.target.TimeIndex()
	if now <= s.open {
		if !s.unsettled {
			return false, nil
		}
		if err := s.target.Settle(ctx); err != nil {
			return false, err
		}
		s.unsettled = false
		slog.Info("[Scheduler] Unwritten batches settled")
		return false, nil
	}

	sealed := s.open
	s.open = now
	if err := s.target.Flush(ctx, sealed); err != nil {
		s.unsettled = true
		return true, err
	}
	s.unsettled = false

	slog.Debug("[Scheduler] Bucket sealed", "index", sealed, "next_open", now)

	if s.opts.WarmCache && len(s.opts.Aggregators) > 0 {
		WarmBucket(ctx, s.target, s.opts.Aggregators, sealed, s.opts.WorkerCount)
	}
	return true, nil
}
