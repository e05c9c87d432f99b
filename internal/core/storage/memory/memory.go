package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

type segmentKey struct {
	kind  stats.EventKind
	index int64
}

// SegmentStore is an in-memory implementation of storage.SegmentStore.
// Useful for testing and for ephemeral runs that need no durability.
type SegmentStore struct {
	mu       sync.RWMutex
	segments map[segmentKey][][]byte
}

func NewSegmentStore() *SegmentStore {
	return &SegmentStore{segments: make(map[segmentKey][][]byte)}
}

func (s *SegmentStore) Append(ctx context.Context, kind stats.EventKind, index int64, records [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := segmentKey{kind: kind, index: index}
	for _, rec := range records {
		// Copy to prevent external modification
		s.segments[key] = append(s.segments[key], bytes.Clone(rec))
	}
	return nil
}

func (s *SegmentStore) Load(ctx context.Context, kind stats.EventKind, index int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.segments[segmentKey{kind: kind, index: index}]
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(stored))
	for i, rec := range stored {
		out[i] = bytes.Clone(rec)
	}
	return out, nil
}

// Segments reports how many segments hold at least one record.
func (s *SegmentStore) Segments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}
