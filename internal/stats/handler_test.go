package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aevon-lab/project-pulse/internal/core/analytics"
	httperr "github.com/aevon-lab/project-pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func doGet(t *testing.T, svc *Service, target string) *httptest.ResponseRecorder {
	t.Helper()

	r := gin.New()
	svc.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandleDAU_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	columnar, relational := newBackends(t)
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	columnar.EXPECT().
		DailyActiveUsers(mock.Anything, mock.Anything, analytics.ByProperty("plan", "pro")).
		Return([]analytics.DAUPoint{{Date: day, DAU: 2}}, nil).
		Once()

	resp := doGet(t, NewService(columnar, relational, nil, Config{}),
		"/stats/dau?from=2026-10-01&to=2026-10-07&segment=properties.plan%3Dpro")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"source":"columnar","results":[{"date":"2026-10-01","dau":2}]}`, resp.Body.String())
}

func TestHandleDAU_InvalidRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing from", target: "/stats/dau?to=2026-10-07"},
		{name: "bad date", target: "/stats/dau?from=10/01/2026&to=2026-10-07"},
		{name: "inverted range", target: "/stats/dau?from=2026-10-07&to=2026-10-01"},
		{name: "unknown segment", target: "/stats/dau?from=2026-10-01&to=2026-10-07&segment=country:de"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			columnar, relational := newBackends(t)
			resp := doGet(t, NewService(columnar, relational, nil, Config{}), tc.target)
			require.Equal(t, http.StatusBadRequest, resp.Code)

			var errResp httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
			require.Equal(t, httperr.HttpInvalidQueryError, errResp.ErrorType)
		})
	}
}

func TestHandleTopEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	columnar, relational := newBackends(t)
	columnar.EXPECT().
		TopEvents(mock.Anything, mock.Anything, 2).
		Return([]analytics.EventCount{{EventType: "login", Count: 5}, {EventType: "purchase", Count: 1}}, nil).
		Once()
	svc := NewService(columnar, relational, nil, Config{})

	resp := doGet(t, svc, "/stats/top-events?from=2026-10-01&to=2026-10-01&limit=2")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"source":"columnar","results":[{"event_type":"login","count":5},{"event_type":"purchase","count":1}]}`, resp.Body.String())

	resp = doGet(t, svc, "/stats/top-events?from=2026-10-01&to=2026-10-01&limit=5000")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandleRetention(t *testing.T) {
	gin.SetMode(gin.TestMode)

	columnar, relational := newBackends(t)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	columnar.EXPECT().
		Retention(mock.Anything, start, 2).
		Return(nil, analytics.ErrSchemaMissing).
		Once()
	relational.EXPECT().
		Retention(mock.Anything, start, 2).
		Return(analytics.DensifyRetention(map[int]int64{0: 2}, 2), nil).
		Once()
	svc := NewService(columnar, relational, nil, Config{})

	resp := doGet(t, svc, "/stats/retention?start_date=2026-10-01&windows=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Source  string `json:"source"`
		Results []struct {
			Window      int   `json:"window"`
			ActiveUsers int64 `json:"active_users"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, analytics.BackendRelational, body.Source)
	require.Len(t, body.Results, 2)
	require.Equal(t, 1, body.Results[0].Window)
	require.Equal(t, int64(2), body.Results[0].ActiveUsers)
	require.Equal(t, int64(0), body.Results[1].ActiveUsers)

	resp = doGet(t, svc, "/stats/retention?start_date=2026-10-01")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
