package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httperr "github.com/aevon-lab/project-pulse/internal/core/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type pinger struct {
	err error
}

func (p pinger) Ping(context.Context) error {
	return p.err
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "all stores reachable",
			opts:       Options{EventStore: pinger{}, Analytics: pinger{}},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy", "event_store": "connected", "analytics": "connected"},
		},
		{
			name:       "analytics disabled",
			opts:       Options{EventStore: pinger{}},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy", "event_store": "connected", "analytics": "disabled"},
		},
		{
			name:       "analytics unreachable",
			opts:       Options{EventStore: pinger{}, Analytics: pinger{err: errors.New("dial tcp: refused")}},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "degraded", "event_store": "connected", "analytics": "unreachable"},
		},
		{
			name:       "event store unreachable",
			opts:       Options{EventStore: pinger{err: errors.New("dial tcp: refused")}, Analytics: pinger{}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"status": "unhealthy", "event_store": "unreachable"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(tc.opts)
			resp := doRequest(t, s.Engine, http.MethodGet, "/health")
			require.Equal(t, tc.wantStatus, resp.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			require.Equal(t, tc.wantBody, body)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(Options{EventStore: pinger{}})
	resp := doRequest(t, s.Engine, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "go_goroutines")
}

func TestRateLimit(t *testing.T) {
	s := New(Options{EventStore: pinger{}})
	s.Group(RateLimit(NewIPRateLimiter(1, 2))).GET("/limited", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	require.Equal(t, http.StatusNoContent, doRequest(t, s.Engine, http.MethodGet, "/limited").Code)
	require.Equal(t, http.StatusNoContent, doRequest(t, s.Engine, http.MethodGet, "/limited").Code)

	resp := doRequest(t, s.Engine, http.MethodGet, "/limited")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpRateLimitedError, errResp.ErrorType)

	// Routes outside the group are not limited.
	require.Equal(t, http.StatusOK, doRequest(t, s.Engine, http.MethodGet, "/health").Code)
}

func TestIPRateLimiter_PerClientBuckets(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(60, 1)
	l.nowFn = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, l.Allow("10.0.0.1"))
}

func TestIPRateLimiter_ForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(60, 1)
	l.nowFn = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	now = now.Add(2 * limiterIdleTTL)
	require.True(t, l.Allow("10.0.0.2"))
	require.NotContains(t, l.visitors, "10.0.0.1")
	require.Contains(t, l.visitors, "10.0.0.2")
}
