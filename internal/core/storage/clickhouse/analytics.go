package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aevon-lab/project-pulse/internal/core/analytics"
)

// ColumnarBackend answers aggregate queries from the analytical store.
type ColumnarBackend struct {
	db *sql.DB
}

func NewColumnarBackend(db *sql.DB) *ColumnarBackend {
	return &ColumnarBackend{db: db}
}

func (b *ColumnarBackend) Name() string {
	return analytics.BackendColumnar
}

// filterPredicate renders f as an AND clause. Property values are compared both
// as extracted strings and as raw JSON so numbers and booleans match their text form,
// the same way ->> does on the relational side.
func filterPredicate(f analytics.Filter) (string, []interface{}) {
	switch f.Kind {
	case analytics.FilterEventType:
		return "\n\t\t  AND event_type = ?", []interface{}{f.Value}
	case analytics.FilterProperty:
		return "\n\t\t  AND (JSONExtractString(properties, ?) = ? OR JSONExtractRaw(properties, ?) = ?)",
			[]interface{}{f.Key, f.Value, f.Key, f.Value}
	default:
		return "", nil
	}
}

func (b *ColumnarBackend) DailyActiveUsers(ctx context.Context, r analytics.DateRange, f analytics.Filter) ([]analytics.DAUPoint, error) {
	predicate, filterArgs := filterPredicate(f)
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

func (b *ColumnarBackend) TopEvents(ctx context.Context, r analytics.DateRange, limit int) ([]analytics.EventCount, error) {
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

func (b *ColumnarBackend) Retention(ctx context.Context, start time.Time, windows int) ([]analytics.RetentionWindow, error) {
	from, to := analytics.RetentionSpan(start, windows)

	rows, err := b.db.QueryContext(ctx, queryRetention, from.Format(analytics.DateLayout), from, to)
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
