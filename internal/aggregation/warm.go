package aggregation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

// WarmBucket computes every aggregator's value for index with up to
// workerCount workers, so the first query for a sealed bucket is a cache hit.
// It returns how many aggregators completed.
func WarmBucket(ctx context.Context, target Target, aggregators []stats.Aggregator, index int64, workerCount int) int {
	workerCount = min(workerCount, len(aggregators))
	if workerCount <= 0 {
		return 0
	}

	jobs := make(chan stats.Aggregator, len(aggregators))
	results := make(chan bool, len(aggregators))

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for agg := range jobs {
				_, err := target.GetOrAggregate(ctx, agg, index, index)
				if err != nil {
					slog.Warn("[Warmer] Aggregate failed",
						"key", agg.Key().String(),
						"index", index,
						"error", err)
				}
				results <- err == nil
			}
		}()
	}

	for _, agg := range aggregators {
		jobs <- agg
	}
	close(jobs)

	wg.Wait()
	close(results)

	done := 0
	for ok := range results {
		if ok {
			done++
		}
	}
	slog.Debug("[Warmer] Bucket warmed", "index", index, "aggregates", done)
	return done
}
