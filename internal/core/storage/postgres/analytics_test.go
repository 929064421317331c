package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aevon-lab/project-pulse/internal/core/analytics"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newMockRelational(t *testing.T) (*RelationalBackend, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRelationalBackend(db), mock
}

func TestRelationalBackend_DailyActiveUsers(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	r, err := analytics.NewDateRange(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	tests := []struct {
		name      string
		filter    analytics.Filter
		predicate string
		args      []driver.Value
	}{
		{
			name:   "no filter",
			filter: analytics.NoFilter(),
			args:   []driver.Value{r.Start(), r.End()},
		},
		{
			name:      "event type filter",
			filter:    analytics.ByEventType("login"),
			predicate: "\n\t\t  AND event_type = $3",
			args:      []driver.Value{r.Start(), r.End(), "login"},
		},
		{
			name:      "property filter",
			filter:    analytics.ByProperty("country", "UA"),
			predicate: "\n\t\t  AND properties ->> $3 = $4",
			args:      []driver.Value{r.Start(), r.End(), "country", "UA"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend, mock := newMockRelational(t)

			mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf(queryDailyActiveUsers, tc.predicate))).
				WithArgs(tc.args...).
				WillReturnRows(sqlmock.NewRows([]string{"day", "dau"}).
					AddRow(day, int64(2)).
					AddRow(day.AddDate(0, 0, 1), int64(1)))

			points, err := backend.DailyActiveUsers(context.Background(), r, tc.filter)
			require.NoError(t, err)
			require.Equal(t, []analytics.DAUPoint{
				{Date: day, DAU: 2},
				{Date: day.AddDate(0, 0, 1), DAU: 1},
			}, points)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRelationalBackend_DailyActiveUsers_EmptyIsNotNil(t *testing.T) {
	backend, mock := newMockRelational(t)
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	r, err := analytics.NewDateRange(day, day)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf(queryDailyActiveUsers, ""))).
		WillReturnRows(sqlmock.NewRows([]string{"day", "dau"}))

	points, err := backend.DailyActiveUsers(context.Background(), r, analytics.NoFilter())
	require.NoError(t, err)
	require.NotNil(t, points)
	require.Empty(t, points)
}

func TestRelationalBackend_TopEvents(t *testing.T) {
	backend, mock := newMockRelational(t)
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	r, err := analytics.NewDateRange(day, day)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(queryTopEvents)).
		WithArgs(r.Start(), r.End(), 10).
		WillReturnRows(sqlmock.NewRows([]string{"event_type", "cnt"}).
			AddRow("login", int64(2)).
			AddRow("purchase", int64(1)))

	counts, err := backend.TopEvents(context.Background(), r, 10)
	require.NoError(t, err)
	require.Equal(t, []analytics.EventCount{
		{EventType: "login", Count: 2},
		{EventType: "purchase", Count: 1},
	}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationalBackend_Retention(t *testing.T) {
	backend, mock := newMockRelational(t)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryRetention)).
		WithArgs(start, start.AddDate(0, 0, 3), "2026-10-01").
		WillReturnRows(sqlmock.NewRows([]string{"win", "active_users"}).
			AddRow(1, int64(1)))

	windows, err := backend.Retention(context.Background(), start, 3)
	require.NoError(t, err)
	require.Len(t, windows, 3)
	require.Equal(t, 1, windows[0].Window)
	require.Equal(t, int64(0), windows[0].ActiveUsers)
	require.Equal(t, 2, windows[1].Window)
	require.Equal(t, int64(1), windows[1].ActiveUsers)
	require.Equal(t, 3, windows[2].Window)
	require.Equal(t, int64(0), windows[2].ActiveUsers)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationalBackend_UndefinedTableMapsToSchemaMissing(t *testing.T) {
	backend, mock := newMockRelational(t)
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	r, err := analytics.NewDateRange(day, day)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(queryTopEvents)).
		WillReturnError(&pq.Error{Code: pgUndefinedTable, Message: `relation "events" does not exist`})

	_, err = backend.TopEvents(context.Background(), r, 5)
	require.ErrorIs(t, err, analytics.ErrSchemaMissing)

	mock.ExpectQuery(regexp.QuoteMeta(queryTopEvents)).
		WillReturnError(errors.New("timeout"))

	_, err = backend.TopEvents(context.Background(), r, 5)
	require.Error(t, err)
	require.NotErrorIs(t, err, analytics.ErrSchemaMissing)
}
