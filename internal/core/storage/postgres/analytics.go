package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aevon-lab/project-pulse/internal/core/analytics"
)

// RelationalBackend computes aggregates directly over the events table.
// It is the router's fallback and is always authoritative.
type RelationalBackend struct {
	db *sql.DB
}

// NewRelationalBackend creates a backend sharing the adapter's connection.
func NewRelationalBackend(db *sql.DB) *RelationalBackend {
	return &RelationalBackend{db: db}
}

func (b *RelationalBackend) Name() string {
	return analytics.BackendRelational
}

// filterPredicate renders f as an AND clause with placeholders starting at next.
func filterPredicate(f analytics.Filter, next int) (string, []interface{}) {
	switch f.Kind {
	case analytics.FilterEventType:
		return fmt.Sprintf("\n\t\t  AND event_type = $%d", next), []interface{}{f.Value}
	case analytics.FilterProperty:
		return fmt.Sprintf("\n\t\t  AND properties ->> $%d = $%d", next, next+1), []interface{}{f.Key, f.Value}
	default:
		return "", nil
	}
}

func (b *RelationalBackend) DailyActiveUsers(ctx context.Context, r analytics.DateRange, f analytics.Filter) ([]analytics.DAUPoint, error) {
	predicate, filterArgs := filterPredicate(f, 3)
	args := append([]interface{}{r.Start(), r.End()}, filterArgs...)

	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(queryDailyActiveUsers, predicate), args...)
	if err != nil {
		return nil, wrapQueryErr("dau", err)
	}
	defer rows.Close()

	points := []analytics.DAUPoint{}
	for rows.Next() {
		var p analytics.DAUPoint
		if err := rows.Scan(&p.Date, &p.DAU); err != nil {
			return nil, fmt.Errorf("dau: scan row: %w", err)
		}
		p.Date = analytics.DayStart(p.Date)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dau: iterate rows: %w", err)
	}
	return points, nil
}

func (b *RelationalBackend) TopEvents(ctx context.Context, r analytics.DateRange, limit int) ([]analytics.EventCount, error) {
	rows, err := b.db.QueryContext(ctx, queryTopEvents, r.Start(), r.End(), limit)
	if err != nil {
		return nil, wrapQueryErr("top events", err)
	}
	defer rows.Close()

	counts := []analytics.EventCount{}
	for rows.Next() {
		var c analytics.EventCount
		if err := rows.Scan(&c.EventType, &c.Count); err != nil {
			return nil, fmt.Errorf("top events: scan row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top events: iterate rows: %w", err)
	}
	return counts, nil
}

func (b *RelationalBackend) Retention(ctx context.Context, start time.Time, windows int) ([]analytics.RetentionWindow, error) {
	from, to := analytics.RetentionSpan(start, windows)

	rows, err := b.db.QueryContext(ctx, queryRetention, from, to, from.Format(analytics.DateLayout))
	if err != nil {
		return nil, wrapQueryErr("retention", err)
	}
	defer rows.Close()

	counts := make(map[int]int64, windows)
	for rows.Next() {
		var win int
		var active int64
		if err := rows.Scan(&win, &active); err != nil {
			return nil, fmt.Errorf("retention: scan row: %w", err)
		}
		counts[win] = active
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("retention: iterate rows: %w", err)
	}
	return analytics.DensifyRetention(counts, windows), nil
}

func wrapQueryErr(query string, err error) error {
	if isUndefinedTable(err) {
		return fmt.Errorf("%s: %w: %v", query, analytics.ErrSchemaMissing, err)
	}
	return fmt.Errorf("%s: %w", query, err)
}
