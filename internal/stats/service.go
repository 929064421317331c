package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/project-pulse/internal/core/analytics"
	"github.com/aevon-lab/project-pulse/internal/metrics"
)

const (
	defaultTopLimit            = 10
	defaultMaxTopLimit         = 1000
	defaultMaxRetentionWindows = 365

	queryDAU       = "dau"
	queryTopEvents = "top_events"
	queryRetention = "retention"

	reasonSchemaMissing = "schema_missing"
	reasonError         = "error"
	reasonStale         = "stale"
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid stats query")

// SyncClock reports the last successful sync of the columnar store.
type SyncClock interface {
	LastSynced() (time.Time, bool)
}

// Config bounds query parameters and the columnar staleness guard.
type Config struct {
	// MaxStaleness skips the columnar backend when the last sync is older.
	// Zero disables the guard.
	MaxStaleness        time.Duration
	DefaultTopLimit     int
	MaxTopLimit         int
	MaxRetentionWindows int
}

func (c Config) normalized() Config {
	n := c
	if n.DefaultTopLimit <= 0 {
		n.DefaultTopLimit = defaultTopLimit
	}
	if n.MaxTopLimit <= 0 {
		n.MaxTopLimit = defaultMaxTopLimit
	}
	if n.MaxRetentionWindows <= 0 {
		n.MaxRetentionWindows = defaultMaxRetentionWindows
	}
	return n
}

// Response is the routed result of one aggregate query.
type Response[T any] struct {
	Source  string `json:"source"`
	Results []T    `json:"results"`
}

// Service routes aggregate queries: columnar first, relational on any columnar
// failure. An empty columnar result is returned as-is.
type Service struct {
	columnar   analytics.Backend
	relational analytics.Backend
	clock      SyncClock
	cfg        Config
	nowFn      func() time.Time
}

// NewService creates the router. columnar and clock may be nil when the analytical
// store is disabled; queries then go straight to the relational backend.
func NewService(columnar, relational analytics.Backend, clock SyncClock, cfg Config) *Service {
	if relational == nil {
		panic("stats: relational backend must not be nil")
	}
	return &Service{
		columnar:   columnar,
		relational: relational,
		clock:      clock,
		cfg:        cfg.normalized(),
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *Service) DailyActiveUsers(ctx context.Context, r analytics.DateRange, f analytics.Filter) Response[analytics.DAUPoint] {
	return routeQuery(ctx, s, queryDAU, func(b analytics.Backend) ([]analytics.DAUPoint, error) {
		return b.DailyActiveUsers(ctx, r, f)
	})
}

func (s *Service) TopEvents(ctx context.Context, r analytics.DateRange, limit int) (Response[analytics.EventCount], error) {
	if limit == 0 {
		limit = s.cfg.DefaultTopLimit
	}
	if limit < 1 || limit > s.cfg.MaxTopLimit {
		return Response[analytics.EventCount]{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, s.cfg.MaxTopLimit)
	}
	return routeQuery(ctx, s, queryTopEvents, func(b analytics.Backend) ([]analytics.EventCount, error) {
		return b.TopEvents(ctx, r, limit)
	}), nil
}

func (s *Service) Retention(ctx context.Context, start time.Time, windows int) (Response[analytics.RetentionWindow], error) {
	if windows < 1 || windows > s.cfg.MaxRetentionWindows {
		return Response[analytics.RetentionWindow]{}, fmt.Errorf("%w: windows must be between 1 and %d", ErrInvalidQuery, s.cfg.MaxRetentionWindows)
	}
	return routeQuery(ctx, s, queryRetention, func(b analytics.Backend) ([]analytics.RetentionWindow, error) {
		return b.Retention(ctx, start, windows)
	}), nil
}

// routeQuery applies the fallback policy. Backend errors never reach the caller:
// when both backends fail the result is empty with source "none".
func routeQuery[T any](ctx context.Context, s *Service, query string, run func(analytics.Backend) ([]T, error)) Response[T] {
	if s.columnar != nil {
		if reason, ok := s.columnarUsable(); ok {
			rows, err := run(s.columnar)
			if err == nil {
				return answered(query, s.columnar.Name(), rows)
			}
			if errors.Is(err, analytics.ErrSchemaMissing) {
				slog.Info("[Stats] Columnar schema missing, using relational backend", "query", query)
				metrics.QueryFallback.WithLabelValues(query, reasonSchemaMissing).Inc()
			} else {
				slog.Warn("[Stats] Columnar query failed, using relational backend", "query", query, "error", err)
				metrics.QueryFallback.WithLabelValues(query, reasonError).Inc()
			}
		} else {
			slog.Debug("[Stats] Skipping columnar backend", "query", query, "reason", reason)
			metrics.QueryFallback.WithLabelValues(query, reason).Inc()
		}
	}

	if ctx.Err() != nil {
		slog.Warn("[Stats] Request cancelled before relational query", "query", query, "error", ctx.Err())
		return answered[T](query, analytics.BackendNone, nil)
	}

	rows, err := run(s.relational)
	if err != nil {
		slog.Error("[Stats] Relational query failed, returning empty result", "query", query, "error", err)
		return answered[T](query, analytics.BackendNone, nil)
	}
	return answered(query, s.relational.Name(), rows)
}

// columnarUsable applies the staleness guard.
func (s *Service) columnarUsable() (string, bool) {
	if s.cfg.MaxStaleness <= 0 || s.clock == nil {
		return "", true
	}
	last, ok := s.clock.LastSynced()
	if !ok || s.nowFn().Sub(last) > s.cfg.MaxStaleness {
		return reasonStale, false
	}
	return "", true
}

func answered[T any](query, source string, rows []T) Response[T] {
	if rows == nil {
		rows = []T{}
	}
	metrics.QueryBackend.WithLabelValues(query, source).Inc()
	return Response[T]{Source: source, Results: rows}
}
