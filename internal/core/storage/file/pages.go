package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aevon-lab/statengine/internal/core/page"
	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/natefinch/atomic"
)

// PageStore keeps cached aggregate values in one file per
// (event kind, aggregate kind, page number), named <event>-<aggregate>-<page>.page.
// Pages are replaced by atomic rename, so a reader sees either the old or
// the new page and never a partial one.
type PageStore struct {
	dir string
	mu  sync.RWMutex
}

func NewPageStore(dir string) *PageStore {
	return &PageStore{dir: dir}
}

func (s *PageStore) path(key stats.Key, pageNo int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s-%d.page", key.Event, key.Aggregate, pageNo))
}

func (s *PageStore) Retrieve(ctx context.Context, start, end int64, key stats.Key) (map[int64]stats.Value, error) {
	if err := stats.CheckRange(start, end); err != nil {
		return nil, err
	}
	codec, err := stats.CodecFor(key.Aggregate)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]stats.Value)
	first, last := page.Span(start, end)
	for p := first; ; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values, err := s.readPage(codec, key, p)
		if err != nil {
			slog.Warn("[PageStore] Unreadable page treated as empty",
				"key", key.String(),
				"page", p,
				"error", err)
		}
		page.Filter(result, values, start, end)
		if p == last {
			break
		}
	}
	return result, nil
}

func (s *PageStore) Store(ctx context.Context, index int64, key stats.Key, value stats.Value) error {
	codec, err := stats.CodecFor(key.Aggregate)
	if err != nil {
		return err
	}
	if value.AggregateKind() != key.Aggregate {
		return fmt.Errorf("store %s: got %s value", key, value.AggregateKind())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := page.For(index)
	values, err := s.readPage(codec, key, p)
	if err != nil {
		slog.Warn("[PageStore] Rewriting unreadable page",
			"key", key.String(),
			"page", p,
			"error", err)
		values = nil
	}
	if values == nil {
		values = make(map[int64]stats.Value, 1)
	}
	values[index] = value

	data, err := page.Encode(codec, values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create page directory: %w", stats.ErrStorageWrite, err)
	}
	path := s.path(key, p)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: page %s: %w", stats.ErrStorageWrite, path, err)
	}
	return nil
}

// readPage returns nil without error for a page that was never written.
func (s *PageStore) readPage(codec stats.Codec, key stats.Key, pageNo int64) (map[int64]stats.Value, error) {
	data, err := os.ReadFile(s.path(key, pageNo))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return page.Decode(codec, data)
}
