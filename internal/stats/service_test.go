package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aevon-lab/project-pulse/internal/core/analytics"
	analyticsmocks "github.com/aevon-lab/project-pulse/internal/mocks/analytics"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	last time.Time
	ok   bool
}

func (c fixedClock) LastSynced() (time.Time, bool) {
	return c.last, c.ok
}

func newBackends(t *testing.T) (*analyticsmocks.Backend, *analyticsmocks.Backend) {
	t.Helper()

	columnar := analyticsmocks.NewBackend(t)
	columnar.EXPECT().Name().Return(analytics.BackendColumnar).Maybe()
	relational := analyticsmocks.NewBackend(t)
	relational.EXPECT().Name().Return(analytics.BackendRelational).Maybe()
	return columnar, relational
}

func octoberRange(t *testing.T) analytics.DateRange {
	t.Helper()

	r, err := analytics.NewDateRange(
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return r
}

func TestDailyActiveUsers_FallsBackWhenSchemaMissing(t *testing.T) {
	columnar, relational := newBackends(t)
	r := octoberRange(t)
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	columnar.EXPECT().
		DailyActiveUsers(mock.Anything, r, analytics.NoFilter()).
		Return(nil, analytics.ErrSchemaMissing).
		Once()
	relational.EXPECT().
		DailyActiveUsers(mock.Anything, r, analytics.NoFilter()).
		Return([]analytics.DAUPoint{{Date: day, DAU: 2}}, nil).
		Once()

	resp := NewService(columnar, relational, nil, Config{}).DailyActiveUsers(context.Background(), r, analytics.NoFilter())
	require.Equal(t, analytics.BackendRelational, resp.Source)
	require.Equal(t, []analytics.DAUPoint{{Date: day, DAU: 2}}, resp.Results)
}

func TestDailyActiveUsers_FallsBackOnColumnarError(t *testing.T) {
	columnar, relational := newBackends(t)
	r := octoberRange(t)
	f := analytics.ByEventType("login")

	columnar.EXPECT().
		DailyActiveUsers(mock.Anything, r, f).
		Return(nil, errors.New("connection refused")).
		Once()
	relational.EXPECT().
		DailyActiveUsers(mock.Anything, r, f).
		Return([]analytics.DAUPoint{}, nil).
		Once()

	resp := NewService(columnar, relational, nil, Config{}).DailyActiveUsers(context.Background(), r, f)
	require.Equal(t, analytics.BackendRelational, resp.Source)
	require.Empty(t, resp.Results)
}

func TestDailyActiveUsers_EmptyColumnarResultIsAuthoritative(t *testing.T) {
	columnar, relational := newBackends(t)
	r := octoberRange(t)

	columnar.EXPECT().
		DailyActiveUsers(mock.Anything, r, analytics.NoFilter()).
		Return(nil, nil).
		Once()

	resp := NewService(columnar, relational, nil, Config{}).DailyActiveUsers(context.Background(), r, analytics.NoFilter())
	require.Equal(t, analytics.BackendColumnar, resp.Source)
	require.NotNil(t, resp.Results)
	require.Empty(t, resp.Results)
	relational.AssertNotCalled(t, "DailyActiveUsers", mock.Anything, mock.Anything, mock.Anything)
}

func TestDailyActiveUsers_BothBackendsFail(t *testing.T) {
	columnar, relational := newBackends(t)
	r := octoberRange(t)

	columnar.EXPECT().
		DailyActiveUsers(mock.Anything, r, analytics.NoFilter()).
		Return(nil, errors.New("timeout")).
		Once()
	relational.EXPECT().
		DailyActiveUsers(mock.Anything, r, analytics.NoFilter()).
		Return(nil, errors.New("database is down")).
		Once()

	resp := NewService(columnar, relational, nil, Config{}).DailyActiveUsers(context.Background(), r, analytics.NoFilter())
	require.Equal(t, analytics.BackendNone, resp.Source)
	require.NotNil(t, resp.Results)
	require.Empty(t, resp.Results)
}

func TestDailyActiveUsers_WithoutColumnarBackend(t *testing.T) {
	_, relational := newBackends(t)
	r := octoberRange(t)

	relational.EXPECT().
		DailyActiveUsers(mock.Anything, r, analytics.NoFilter()).
		Return([]analytics.DAUPoint{{Date: r.From, DAU: 1}}, nil).
		Once()

	resp := NewService(nil, relational, nil, Config{}).DailyActiveUsers(context.Background(), r, analytics.NoFilter())
	require.Equal(t, analytics.BackendRelational, resp.Source)
	require.Len(t, resp.Results, 1)
}

func TestStalenessGuard(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		clock       fixedClock
		useColumnar bool
	}{
		{name: "fresh sync", clock: fixedClock{last: now.Add(-time.Minute), ok: true}, useColumnar: true},
		{name: "stale sync", clock: fixedClock{last: now.Add(-time.Hour), ok: true}, useColumnar: false},
		{name: "never synced", clock: fixedClock{}, useColumnar: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			columnar, relational := newBackends(t)
			r := octoberRange(t)

			expected := relational
			if tc.useColumnar {
				expected = columnar
			}
			expected.EXPECT().
				TopEvents(mock.Anything, r, defaultTopLimit).
				Return([]analytics.EventCount{{EventType: "login", Count: 3}}, nil).
				Once()

			svc := NewService(columnar, relational, tc.clock, Config{MaxStaleness: 5 * time.Minute})
			svc.nowFn = func() time.Time { return now }

			resp, err := svc.TopEvents(context.Background(), r, 0)
			require.NoError(t, err)
			require.Equal(t, expected.Name(), resp.Source)
			require.Equal(t, []analytics.EventCount{{EventType: "login", Count: 3}}, resp.Results)
		})
	}
}

func TestTopEvents_LimitValidation(t *testing.T) {
	columnar, relational := newBackends(t)
	svc := NewService(columnar, relational, nil, Config{MaxTopLimit: 50})

	for _, limit := range []int{-1, 51} {
		_, err := svc.TopEvents(context.Background(), octoberRange(t), limit)
		require.ErrorIs(t, err, ErrInvalidQuery)
	}
}

func TestRetention_RoutesToColumnar(t *testing.T) {
	columnar, relational := newBackends(t)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	windows := analytics.DensifyRetention(map[int]int64{0: 4, 1: 2}, 3)

	columnar.EXPECT().
		Retention(mock.Anything, start, 3).
		Return(windows, nil).
		Once()

	resp, err := NewService(columnar, relational, nil, Config{}).Retention(context.Background(), start, 3)
	require.NoError(t, err)
	require.Equal(t, analytics.BackendColumnar, resp.Source)
	require.Len(t, resp.Results, 3)
	require.Equal(t, int64(4), resp.Results[0].ActiveUsers)
}

func TestRetention_WindowValidation(t *testing.T) {
	columnar, relational := newBackends(t)
	svc := NewService(columnar, relational, nil, Config{MaxRetentionWindows: 30})
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for _, windows := range []int{0, -3, 31} {
		_, err := svc.Retention(context.Background(), start, windows)
		require.ErrorIs(t, err, ErrInvalidQuery)
	}
}
