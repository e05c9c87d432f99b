package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is matched by every InvalidRangeError.
	ErrInvalidRange = errors.New("invalid index range")

	// ErrUnknownKind is matched by every UnknownKindError.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrStorageWrite marks a failure to durably persist entries or pages.
	ErrStorageWrite = errors.New("storage write failed")
)

// InvalidRangeError is returned when a bucket index range has end < start.
type InvalidRangeError struct {
	Start int64
	End   int64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid index range [%d, %d]: end precedes start", e.Start, e.End)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// UnknownKindError is returned for event or aggregate kinds with no registration.
type UnknownKindError struct {
	Category string // "event" or "aggregate"
	Kind     string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown %s kind %q", e.Category, e.Kind)
}

func (e *UnknownKindError) Is(target error) bool {
	return target == ErrUnknownKind
}

// CheckRange validates an inclusive bucket index range.
func CheckRange(start, end int64) error {
	if end < start {
		return &InvalidRangeError{Start: start, End: end}
	}
	return nil
}
