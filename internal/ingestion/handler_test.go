package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httperr "github.com/aevon-lab/statengine/internal/core/errors"
	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/aevon-lab/statengine/internal/core/storage/memory"
	"github.com/aevon-lab/statengine/internal/core/timeindex"
	"github.com/aevon-lab/statengine/internal/engine"
	"github.com/aevon-lab/statengine/internal/entrylog"
	storagemocks "github.com/aevon-lab/statengine/internal/mocks/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, segments *memory.SegmentStore) (*gin.Engine, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng := engine.New(entrylog.New(segments, nil), storagemocks.NewPageStore(t), timeindex.NewManual(7), nil)
	svc := NewService(eng, 1)

	r := gin.New()
	svc.RegisterRoutes(r)
	return r, eng
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) httperr.ErrorResponse {
	t.Helper()
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	return errResp
}

func TestIngestHandler_Success(t *testing.T) {
	r, eng := newTestRouter(t, memory.NewSegmentStore())

	resp := doJSON(r, http.MethodPost, "/v1/events",
		`{"id":"evt-001","kind":"ticket_sale","data":{"station":"north","price":"2.50"}}`)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var result map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "accepted", result["status"])
	require.Equal(t, "evt-001", result["id"])
	require.Equal(t, 1, eng.Pending())
}

func TestIngestHandler_GeneratesID(t *testing.T) {
	r, _ := newTestRouter(t, memory.NewSegmentStore())

	resp := doJSON(r, http.MethodPost, "/v1/events", `{"kind":"station_exit","data":{"station":"north"}}`)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var result map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.NotEmpty(t, result["id"])
}

func TestIngestHandler_InvalidJSON(t *testing.T) {
	r, eng := newTestRouter(t, memory.NewSegmentStore())

	resp := doJSON(r, http.MethodPost, "/v1/events", "not json")

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, httperr.HttpInvalidJsonError, decodeError(t, resp).ErrorType)
	require.Zero(t, eng.Pending())
}

func TestIngestHandler_ValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing kind", body: `{"data":{"price":1}}`},
		{name: "unknown kind", body: `{"kind":"refund","data":{"amount":1}}`},
		{name: "missing price", body: `{"kind":"ticket_sale","data":{"station":"north"}}`},
		{name: "non numeric amount", body: `{"kind":"maintenance","data":{"amount":"lots"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, eng := newTestRouter(t, memory.NewSegmentStore())

			resp := doJSON(r, http.MethodPost, "/v1/events", tt.body)

			require.Equal(t, http.StatusBadRequest, resp.Code)
			require.Equal(t, httperr.HttpInvalidEventError, decodeError(t, resp).ErrorType)
			require.Zero(t, eng.Pending())
		})
	}
}

func TestIngestHandler_PayloadTooLarge(t *testing.T) {
	r, _ := newTestRouter(t, memory.NewSegmentStore())

	large := `{"kind":"station_exit","data":{"station":"` + strings.Repeat("x", 2*1024*1024) + `"}}`
	resp := doJSON(r, http.MethodPost, "/v1/events", large)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	errResp := decodeError(t, resp)
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
	require.NotNil(t, errResp.Details)
}

func TestFlushHandler_PersistsIntoIndex(t *testing.T) {
	segments := memory.NewSegmentStore()
	r, eng := newTestRouter(t, segments)

	require.Equal(t, http.StatusAccepted, doJSON(r, http.MethodPost, "/v1/events",
		`{"kind":"ticket_sale","data":{"station":"north","price":4}}`).Code)
	require.Equal(t, http.StatusAccepted, doJSON(r, http.MethodPost, "/v1/events",
		`{"kind":"station_exit","data":{"station":"north"}}`).Code)

	resp := doJSON(r, http.MethodPost, "/v1/flush", `{"index":3}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var result map[string]int
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, 3, result["index"])
	require.Equal(t, 2, result["flushed"])
	require.Zero(t, eng.Pending())
	require.Equal(t, 2, segments.Segments())

	entries, err := eng.Entries(context.Background(), stats.EventTicketSale, 3)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFlushHandler_RequiresIndex(t *testing.T) {
	r, _ := newTestRouter(t, memory.NewSegmentStore())

	resp := doJSON(r, http.MethodPost, "/v1/flush", `{}`)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "index is required", decodeError(t, resp).Message)
}

func TestFlushHandler_StorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	segments := storagemocks.NewSegmentStore(t)
	segments.EXPECT().
		Append(mock.Anything, stats.EventStationExit, int64(5), mock.Anything).
		Return(errors.New("disk full")).
		Once()

	eng := engine.New(entrylog.New(segments, nil), storagemocks.NewPageStore(t), timeindex.NewManual(5), nil)
	r := gin.New()
	NewService(eng, 1).RegisterRoutes(r)

	require.Equal(t, http.StatusAccepted, doJSON(r, http.MethodPost, "/v1/events",
		`{"kind":"station_exit","data":{"station":"north"}}`).Code)

	resp := doJSON(r, http.MethodPost, "/v1/flush", `{"index":5}`)

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Equal(t, httperr.HttpStorageWriteError, decodeError(t, resp).ErrorType)
	require.Equal(t, 1, eng.Pending(), "failed flush keeps the entry for retry")
}

func TestEntriesHandler(t *testing.T) {
	segments := memory.NewSegmentStore()
	r, eng := newTestRouter(t, segments)

	eng.Record(stats.StationExit{ID: "a", Station: "north"})
	eng.Record(stats.StationExit{ID: "b", Station: "south"})
	require.NoError(t, eng.Flush(context.Background(), 9))

	req := httptest.NewRequest(http.MethodGet, "/v1/entries/station_exit/9", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var result struct {
		Kind    string              `json:"kind"`
		Index   int64               `json:"index"`
		Count   int                 `json:"count"`
		Entries []stats.StationExit `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(resp.Body.Bytes())).Decode(&result))
	require.Equal(t, "station_exit", result.Kind)
	require.Equal(t, int64(9), result.Index)
	require.Equal(t, 2, result.Count)
	require.Equal(t, "a", result.Entries[0].ID)
	require.Equal(t, "b", result.Entries[1].ID)
}

func TestEntriesHandler_BadParams(t *testing.T) {
	r, _ := newTestRouter(t, memory.NewSegmentStore())

	resp := doJSON(r, http.MethodGet, "/v1/entries/refund/1", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, httperr.HttpUnknownKindError, decodeError(t, resp).ErrorType)

	resp = doJSON(r, http.MethodGet, "/v1/entries/station_exit/abc", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, httperr.HttpInvalidRangeError, decodeError(t, resp).ErrorType)
}

func TestStatusHandler(t *testing.T) {
	r, eng := newTestRouter(t, memory.NewSegmentStore())
	eng.Record(stats.StationExit{Station: "north"})

	resp := doJSON(r, http.MethodGet, "/v1/status", "")

	require.Equal(t, http.StatusOK, resp.Code)
	var result map[string]int64
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, int64(7), result["time_index"])
	require.Equal(t, int64(1), result["pending"])
}
