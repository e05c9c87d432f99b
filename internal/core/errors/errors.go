package errors

import (
	"errors"
	"net/http"

	"github.com/aevon-lab/statengine/internal/core/stats"
)

const (
	HttpInternalError     = "internal_error"
	HttpInvalidJsonError  = "invalid_json"
	HttpInvalidEventError = "invalid_event"
	HttpInvalidRangeError = "invalid_range"
	HttpUnknownKindError  = "unknown_kind"
	HttpNotFoundError     = "not_found"
	HttpStorageWriteError = "storage_write_failed"
)

// ErrorResponse is the error response body for every HTTP endpoint.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Classify maps a domain error to its HTTP status and error type.
// Anything unrecognized is an internal error.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, stats.ErrInvalidRange):
		return http.StatusBadRequest, HttpInvalidRangeError
	case errors.Is(err, stats.ErrUnknownKind):
		return http.StatusNotFound, HttpUnknownKindError
	case errors.Is(err, stats.ErrStorageWrite):
		return http.StatusServiceUnavailable, HttpStorageWriteError
	default:
		return http.StatusInternalServerError, HttpInternalError
	}
}
