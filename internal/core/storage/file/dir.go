package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already owns the data directory.
var ErrLocked = errors.New("data directory is locked by another process")

const (
	entriesDir = "entries"
	pagesDir   = "aggregates"
	lockFile   = ".lock"
)

// Dir is an exclusively locked data directory holding entry segments and aggregate pages.
type Dir struct {
	root string
	lock *flock.Flock
}

// OpenDir creates root if needed and takes its process lock.
func OpenDir(root string) (*Dir, error) {
	for _, sub := range []string{entriesDir, pagesDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", sub, err)
		}
	}

	lock := flock.New(filepath.Join(root, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock data directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, root)
	}

	slog.Info("[FileStore] Data directory opened", "root", root)
	return &Dir{root: root, lock: lock}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// Segments returns the entry segment store rooted in this directory.
func (d *Dir) Segments(syncWrites bool) *SegmentStore {
	return NewSegmentStore(filepath.Join(d.root, entriesDir), syncWrites)
}

// Pages returns the aggregate page store rooted in this directory.
func (d *Dir) Pages() *PageStore {
	return NewPageStore(filepath.Join(d.root, pagesDir))
}

// Ping reports whether the directory is still present and writable.
func (d *Dir) Ping(_ context.Context) error {
	probe, err := os.CreateTemp(d.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// Close releases the process lock.
func (d *Dir) Close() error {
	if err := d.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock data directory: %w", err)
	}
	slog.Info("[FileStore] Data directory closed", "root", d.root)
	return nil
}
