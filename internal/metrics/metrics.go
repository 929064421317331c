// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pulse"

// Ingestion outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// Sync run results.
const (
	SyncCopied  = "copied"
	SyncNoop    = "noop"
	SyncSkipped = "skipped"
	SyncFailed  = "failed"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_ingested_total",
		Help:      "Events seen by the ingestion pipeline, by outcome.",
	}, []string{"outcome"})

	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Sync job executions, by result.",
	}, []string{"result"})

	SyncRowsCopied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_rows_copied_total",
		Help:      "Rows appended to the analytical store.",
	})

	QueryBackend = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_backend_total",
		Help:      "Aggregate queries answered, by query and backend.",
	}, []string{"query", "backend"})

	QueryFallback = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_fallback_total",
		Help:      "Columnar queries that fell back to the relational backend, by reason.",
	}, []string{"query", "reason"})

	Tasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_total",
		Help:      "Finished background tasks, by name and terminal status.",
	}, []string{"name", "status"})
)
