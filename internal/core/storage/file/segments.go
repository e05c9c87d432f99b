package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

const maxRecordSize = 1 << 20

// SegmentStore keeps each (event kind, bucket index) segment as a JSON-lines
// file at <dir>/<kind>/<index>.jsonl.
type SegmentStore struct {
	dir        string
	syncWrites bool
}

// NewSegmentStore returns a store rooted at dir. With syncWrites every Append
// is fsynced before it returns.
func NewSegmentStore(dir string, syncWrites bool) *SegmentStore {
	return &SegmentStore{dir: dir, syncWrites: syncWrites}
}

func (s *SegmentStore) path(kind stats.EventKind, index int64) string {
	return filepath.Join(s.dir, string(kind), strconv.FormatInt(index, 10)+".jsonl")
}

func (s *SegmentStore) Append(ctx context.Context, kind stats.EventKind, index int64, records [][]byte) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, rec := range records {
		if bytes.IndexByte(rec, '\n') >= 0 {
			return fmt.Errorf("segment %s/%d: record contains a newline", kind, index)
		}
		buf.Write(rec)
		buf.WriteByte('\n')
	}

	path := s.path(kind, index)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create segment directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open segment %s: %w", path, err)
	}
	defer f.Close()

	// A crash mid-append can leave a torn final line; start a fresh line so
	// only the torn record is lost.
	torn, err := endsMidLine(f)
	if err != nil {
		return fmt.Errorf("inspect segment %s: %w", path, err)
	}
	data := buf.Bytes()
	if torn {
		data = append([]byte{'\n'}, data...)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write segment %s: %w", path, err)
	}
	if s.syncWrites {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync segment %s: %w", path, err)
		}
	}
	return f.Close()
}

func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

func (s *SegmentStore) Load(ctx context.Context, kind stats.EventKind, index int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path(kind, index)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", path, err)
	}
	defer f.Close()

	return readLines(f, path)
}

func readLines(r io.Reader, path string) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var records [][]byte
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		records = append(records, bytes.Clone(line))
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("[FileStore] Segment read stopped early",
			"path", path,
			"records", len(records),
			"error", err)
	}
	return records, nil
}
