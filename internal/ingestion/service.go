package ingestion

import (
	"context"

	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/gin-gonic/gin"
)

// Recorder is the part of the engine ingestion writes to.
type Recorder interface {
	Record(entry stats.Entry)
	Flush(ctx context.Context, index int64) error
	Entries(ctx context.Context, kind stats.EventKind, index int64) ([]stats.Entry, error)
	TimeIndex() int64
	Pending() int
}

type Service struct {
	recorder         Recorder
	maxBodySizeBytes int
}

func NewService(recorder Recorder, maxBodySizeMB int) *Service {
	if recorder == nil {
		panic("ingestion: recorder must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		recorder:         recorder,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.IngestHandler)
	r.POST("/v1/flush", s.FlushHandler)
	r.GET("/v1/entries/:kind/:index", s.EntriesHandler)
	r.GET("/v1/status", s.StatusHandler)
}
