package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Backend names reported in query responses and metrics.
const (
	BackendColumnar   = "columnar"
	BackendRelational = "relational"
	BackendNone       = "none"
)

// ErrSchemaMissing is returned by a backend whose events relation does not exist yet.
// For the columnar store this is an expected state before the first sync.
var ErrSchemaMissing = errors.New("analytics schema not found")

// Backend computes the supported aggregates. Every implementation must return the
// same rows for the same data so that the router can use them interchangeably.
type Backend interface {
	// Name identifies the backend in logs, metrics and responses.
	Name() string

	// DailyActiveUsers returns one point per UTC calendar date in r that has
	// at least one matching event, ordered by date ascending.
	DailyActiveUsers(ctx context.Context, r DateRange, f Filter) ([]DAUPoint, error)

	// TopEvents returns per-type event counts in r, ordered by count descending
	// then type ascending, truncated to limit.
	TopEvents(ctx context.Context, r DateRange, limit int) ([]EventCount, error)

	// Retention returns distinct active users for each 1-day window starting at
	// start. Windows are 1-indexed and dense.
	Retention(ctx context.Context, start time.Time, windows int) ([]RetentionWindow, error)
}

// DAUPoint is the distinct user count of one calendar date.
type DAUPoint struct {
	Date time.Time
	DAU  int64
}

func (p DAUPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date string `json:"date"`
		DAU  int64  `json:"dau"`
	}{
		Date: p.Date.Format(DateLayout),
		DAU:  p.DAU,
	})
}

// EventCount is the number of events of one type.
type EventCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// RetentionWindow is the activity of one retention window.
type RetentionWindow struct {
	Window      int             `json:"window"`
	ActiveUsers int64           `json:"active_users"`
	Rate        decimal.Decimal `json:"retention_rate"`
}
