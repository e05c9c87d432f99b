package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "invalid range", err: &stats.InvalidRangeError{Start: 2, End: 1}, wantStatus: http.StatusBadRequest, wantType: HttpInvalidRangeError},
		{name: "unknown kind", err: &stats.UnknownKindError{Category: "aggregate", Kind: "profit"}, wantStatus: http.StatusNotFound, wantType: HttpUnknownKindError},
		{name: "wrapped storage write", err: fmt.Errorf("flush: %w", stats.ErrStorageWrite), wantStatus: http.StatusServiceUnavailable, wantType: HttpStorageWriteError},
		{name: "anything else", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantType: HttpInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, errType := Classify(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantType, errType)
		})
	}
}
