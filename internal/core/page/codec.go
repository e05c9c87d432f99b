package page

import (
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

// ErrCorrupt is returned when page bytes cannot be decoded.
var ErrCorrupt = errors.New("corrupt page")

const headerLen = 4

// Encode lays out a page as: big-endian uint32 count, count big-endian int64
// indices in ascending order, then each value's payload in the same order.
func Encode(codec stats.Codec, values map[int64]stats.Value) ([]byte, error) {
	indices := slices.Sorted(maps.Keys(values))

	buf := make([]byte, headerLen+8*len(indices), headerLen+16*len(indices))
	binary.BigEndian.PutUint32(buf, uint32(len(indices)))
	for i, idx := range indices {
		binary.BigEndian.PutUint64(buf[headerLen+8*i:], uint64(idx))
	}

	var err error
	for _, idx := range indices {
		buf, err = codec.Append(buf, values[idx])
		if err != nil {
			return nil, fmt.Errorf("encode value at index %d: %w", idx, err)
		}
	}
	return buf, nil
}

// Decode parses bytes produced by Encode.
func Decode(codec stats.Codec, data []byte) (map[int64]stats.Value, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: %d byte header", ErrCorrupt, len(data))
	}
	n := uint64(binary.BigEndian.Uint32(data))
	body := headerLen + 8*n
	if uint64(len(data)) < body {
		return nil, fmt.Errorf("%w: %d indices declared, %d bytes present", ErrCorrupt, n, len(data))
	}

	indices := make([]int64, n)
	for i := range indices {
		indices[i] = int64(binary.BigEndian.Uint64(data[headerLen+8*i:]))
	}

	values := make(map[int64]stats.Value, n)
	rest := data[body:]
	for _, idx := range indices {
		v, m, err := codec.Consume(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %v", ErrCorrupt, idx, err)
		}
		values[idx] = v
		rest = rest[m:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(rest))
	}
	return values, nil
}

// Filter copies into dst the values of src whose index lies in [start, end].
func Filter(dst, src map[int64]stats.Value, start, end int64) {
	for idx, v := range src {
		if idx >= start && idx <= end {
			dst[idx] = v
		}
	}
}
