package timeindex

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Provider yields the index of the currently open bucket.
// Successive calls never return a smaller index.
type Provider interface {
	TimeIndex() int64
}

// ParseBucketSize parses a bucket width.
// Supports Go duration syntax (e.g., "10s", "1m", "1h") plus "Xd" for days.
func ParseBucketSize(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("bucket_size must not be empty")
	}

	// "d" is not understood by time.ParseDuration.
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil {
			return 0, fmt.Errorf("invalid bucket_size %q: %w", s, err)
		}
		if days <= 0 {
			return 0, fmt.Errorf("bucket_size must be positive, got %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bucket_size %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("bucket_size must be positive, got %q", s)
	}
	return d, nil
}

// Clock derives bucket indices from wall-clock time: index = floor(unix / bucket).
// It remembers the highest index handed out, so a wall clock stepping
// backwards stalls the index instead of reversing it.
type Clock struct {
	bucket time.Duration
	nowFn  func() time.Time
	high   atomic.Int64
}

// NewClock returns a Clock with the given bucket width.
func NewClock(bucket time.Duration) *Clock {
	return newClock(bucket, time.Now)
}

func newClock(bucket time.Duration, nowFn func() time.Time) *Clock {
	c := &Clock{bucket: bucket, nowFn: nowFn}
	c.high.Store(math.MinInt64)
	return c
}

// IndexOf returns the bucket index containing t.
func (c *Clock) IndexOf(t time.Time) int64 {
	ns := t.UnixNano()
	w := int64(c.bucket)
	idx := ns / w
	if ns%w != 0 && ns < 0 {
		idx--
	}
	return idx
}

// StartOf returns the wall-clock start of a bucket.
func (c *Clock) StartOf(index int64) time.Time {
	return time.Unix(0, index*int64(c.bucket)).UTC()
}

func (c *Clock) BucketSize() time.Duration {
	return c.bucket
}

func (c *Clock) TimeIndex() int64 {
	idx := c.IndexOf(c.nowFn())
	for {
		prev := c.high.Load()
		if idx <= prev {
			return prev
		}
		if c.high.CompareAndSwap(prev, idx) {
			return idx
		}
	}
}

// Manual is a Provider driven by hand, for tests and replay tooling.
type Manual struct {
	idx atomic.Int64
}

func NewManual(start int64) *Manual {
	m := &Manual{}
	m.idx.Store(start)
	return m
}

func (m *Manual) TimeIndex() int64 {
	return m.idx.Load()
}

// Set moves the index to i. Lower values are ignored.
func (m *Manual) Set(i int64) {
	for {
		prev := m.idx.Load()
		if i <= prev || m.idx.CompareAndSwap(prev, i) {
			return
		}
	}
}

// Advance moves the index forward by n buckets and returns the new index.
func (m *Manual) Advance(n int64) int64 {
	if n < 0 {
		return m.idx.Load()
	}
	return m.idx.Add(n)
}
