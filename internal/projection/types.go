package projection

import (
	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/shopspring/decimal"
)

// RangeQuery is the inclusive bucket range of a range or totals request.
type RangeQuery struct {
	Start *int64 `form:"start" binding:"required"`
	End   *int64 `form:"end" binding:"required"`
}

// SeriesQuery selects how many buckets before the open one a series covers.
type SeriesQuery struct {
	Horizon *int64 `form:"horizon"`
}

// PointValue is a single bucket's aggregate in a response.
type PointValue struct {
	Index int64           `json:"index"`
	Value decimal.Decimal `json:"value"`
	Live  bool            `json:"live,omitempty"`
}

// CachedResponse is the page-cache content for one bucket.
type CachedResponse struct {
	Aggregate stats.AggregateKind `json:"aggregate"`
	Index     int64               `json:"index"`
	Value     decimal.Decimal     `json:"value"`
}

// RangeResponse lists one value per bucket in [Start, End], oldest first.
type RangeResponse struct {
	Aggregate stats.AggregateKind `json:"aggregate"`
	Event     stats.EventKind     `json:"event"`
	Start     int64               `json:"start"`
	End       int64               `json:"end"`
	Values    []PointValue        `json:"values"`
}

// TotalResponse is the single-pass aggregate over a bucket range.
// Value is nil when no entry was persisted in the range.
type TotalResponse struct {
	Aggregate stats.AggregateKind `json:"aggregate"`
	Start     int64               `json:"start"`
	End       int64               `json:"end"`
	Value     *decimal.Decimal    `json:"value"`
}

// CurrentResponse is the live aggregate of the still-open bucket.
type CurrentResponse struct {
	Aggregate stats.AggregateKind `json:"aggregate"`
	Index     int64               `json:"index"`
	Value     *decimal.Decimal    `json:"value"`
}

// SeriesResponse is a dense series ending at the open bucket.
type SeriesResponse struct {
	Aggregate stats.AggregateKind `json:"aggregate"`
	Horizon   int64               `json:"horizon"`
	Current   int64               `json:"current"`
	Points    []PointValue        `json:"points"`
}
