package ingestion

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/aevon-lab/statengine/internal/api/v1"
	httperr "github.com/aevon-lab/statengine/internal/core/errors"
	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgFlushFailed    = "Failed to persist buffered entries"
	msgEntriesFailed  = "Failed to load entries"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler accepts one event envelope and records it into the open bucket.
func (s *Service) IngestHandler(c *gin.Context) {
	evt, payloadSize, err := s.parseEvent(c)
	if err != nil {
		writeError(c, err)
		return
	}

	entry, err := toEntry(evt)
	if err != nil {
		writeError(c, err)
		return
	}

	s.recorder.Record(entry)

	slog.Debug("[Ingestion] Recorded event",
		"event_id", evt.ID,
		"kind", evt.Kind,
		"payload_size", payloadSize)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": evt.ID})
}

// parseEvent reads the raw request body and binds it into an Event.
// Returns the parsed event and the raw payload size (used for structured logging upstream).
func (s *Service) parseEvent(c *gin.Context) (*v1.Event, int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var evt v1.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.RecordedAt.IsZero() {
		evt.RecordedAt = time.Now().UTC()
	}
	return &evt, len(bodyBytes), nil
}

// toEntry validates the envelope and converts it into a domain entry.
func toEntry(evt *v1.Event) (stats.Entry, *ingestionError) {
	if err := evt.Validate(); err != nil {
		slog.Warn("[Ingestion] Envelope validation failed", "error", err, "event_id", evt.ID)
		return nil, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidEventError,
			message:    err.Error(),
			details:    map[string]interface{}{"kinds": stats.EventKinds()},
		}
	}

	entry, err := evt.ToEntry()
	if err != nil {
		slog.Warn("[Ingestion] Event payload rejected", "error", err, "event_id", evt.ID, "kind", evt.Kind)
		return nil, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidEventError,
			message:    err.Error(),
		}
	}
	return entry, nil
}

type flushRequest struct {
	Index *int64 `json:"index"`
}

// FlushHandler persists every buffered entry into the requested bucket.
// Meant for operators and replay tooling; the scheduler flushes on its own.
func (s *Service) FlushHandler(c *gin.Context) {
	var req flushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		})
		return
	}
	if req.Index == nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "index is required",
		})
		return
	}

	pending := s.recorder.Pending()
	if err := s.recorder.Flush(c.Request.Context(), *req.Index); err != nil {
		status, errType := httperr.Classify(err)
		slog.Error("[Ingestion] Manual flush failed", "index", *req.Index, "error", err)
		writeError(c, &ingestionError{
			statusCode: status,
			errorType:  errType,
			message:    msgFlushFailed,
		})
		return
	}

	slog.Info("[Ingestion] Manual flush", "index", *req.Index, "entries", pending)
	c.JSON(http.StatusOK, gin.H{"index": *req.Index, "flushed": pending})
}

// EntriesHandler returns the persisted entries of one (kind, index) segment.
func (s *Service) EntriesHandler(c *gin.Context) {
	kind, err := stats.ParseEventKind(c.Param("kind"))
	if err != nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpUnknownKindError,
			message:    err.Error(),
		})
		return
	}

	index, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRangeError,
			message:    "index must be an integer",
		})
		return
	}

	entries, err := s.recorder.Entries(c.Request.Context(), kind, index)
	if err != nil {
		status, errType := httperr.Classify(err)
		slog.Error("[Ingestion] Failed to load entries", "kind", kind, "index", index, "error", err)
		writeError(c, &ingestionError{statusCode: status, errorType: errType, message: msgEntriesFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":    kind,
		"index":   index,
		"count":   len(entries),
		"entries": entries,
	})
}

// StatusHandler reports the open bucket and how much is waiting to be flushed.
func (s *Service) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"time_index": s.recorder.TimeIndex(),
		"pending":    s.recorder.Pending(),
	})
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
