package projection

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	httperr "github.com/aevon-lab/statengine/internal/core/errors"
	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/cache/:aggregate/:index", s.HandleCached)
	r.GET("/v1/aggregates/:aggregate", s.HandleRange)
	r.GET("/v1/totals/:aggregate", s.HandleTotal)
	r.GET("/v1/current/:aggregate", s.HandleCurrent)
	r.GET("/v1/series/:aggregate", s.HandleSeries)
}

// HandleCached handles GET /v1/cache/:aggregate/:index
func (s *Service) HandleCached(c *gin.Context) {
	index, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRangeError,
			Message:   "Invalid path parameters",
			Details:   "index must be an integer",
		})
		return
	}

	resp, err := s.Cached(c.Request.Context(), stats.AggregateKind(c.Param("aggregate")), index)
	if err != nil {
		if errors.Is(err, ErrNotCached) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   "Aggregate not cached",
				Details:   err.Error(),
			})
			return
		}
		writeQueryError(c, err, "Failed to read cached aggregate")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleRange handles GET /v1/aggregates/:aggregate
// Query parameters: start, end (bucket indices, inclusive)
func (s *Service) HandleRange(c *gin.Context) {
	query, ok := bindRange(c)
	if !ok {
		return
	}

	resp, err := s.Range(c.Request.Context(), stats.AggregateKind(c.Param("aggregate")), *query.Start, *query.End)
	if err != nil {
		writeQueryError(c, err, "Failed to query aggregates")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleTotal handles GET /v1/totals/:aggregate
// Query parameters: start, end (bucket indices, inclusive)
func (s *Service) HandleTotal(c *gin.Context) {
	query, ok := bindRange(c)
	if !ok {
		return
	}

	resp, err := s.Total(c.Request.Context(), stats.AggregateKind(c.Param("aggregate")), *query.Start, *query.End)
	if err != nil {
		writeQueryError(c, err, "Failed to aggregate range")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleCurrent handles GET /v1/current/:aggregate
func (s *Service) HandleCurrent(c *gin.Context) {
	resp, err := s.Current(stats.AggregateKind(c.Param("aggregate")))
	if err != nil {
		writeQueryError(c, err, "Failed to aggregate open bucket")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleSeries handles GET /v1/series/:aggregate
// Query parameters: horizon (optional)
func (s *Service) HandleSeries(c *gin.Context) {
	var query SeriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRangeError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.Series(c.Request.Context(), stats.AggregateKind(c.Param("aggregate")), query.Horizon)
	if err != nil {
		writeQueryError(c, err, "Failed to build series")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func bindRange(c *gin.Context) (RangeQuery, bool) {
	var query RangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRangeError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return query, false
	}
	return query, true
}

// writeQueryError maps service errors onto the shared error response.
func writeQueryError(c *gin.Context, err error, msg string) {
	if errors.Is(err, ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRangeError,
			Message:   "Invalid aggregate query",
			Details:   err.Error(),
		})
		return
	}

	status, errType := httperr.Classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("[Projection] "+msg, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, httperr.ErrorResponse{
		ErrorType: errType,
		Message:   msg,
		Details:   err.Error(),
	})
}
