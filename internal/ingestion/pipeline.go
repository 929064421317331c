package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/aevon-lab/project-pulse/internal/api/v1"
	"github.com/aevon-lab/project-pulse/internal/core/storage"
	"github.com/aevon-lab/project-pulse/internal/metrics"
	"github.com/aevon-lab/project-pulse/internal/tasks"
	"github.com/google/uuid"
)

// TaskName is the task runner name of an ingestion batch.
const TaskName = "ingest_events"

// maxDuplicateRetries bounds how often a batch is replayed after the store
// reports a uniqueness violation instead of skipping the row.
const maxDuplicateRetries = 1

// Pipeline writes validated events to the event store. Identity is decided by the
// store's primary key alone: an event whose id already exists is dropped from the
// created result and never reported as an error.
type Pipeline struct {
	store storage.EventStore
}

func NewPipeline(store storage.EventStore) *Pipeline {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	return &Pipeline{store: store}
}

// Ingest stores the batch in one transaction and returns the ids that were new.
// Resubmitting stored events is a no-op, so Ingest is safe to retry.
func (p *Pipeline) Ingest(ctx context.Context, events []*v1.Event) ([]uuid.UUID, error) {
	if len(events) == 0 {
		return []uuid.UUID{}, nil
	}

	var (
		created []uuid.UUID
		err     error
	)
	for attempt := 0; attempt <= maxDuplicateRetries; attempt++ {
		created, err = p.store.SaveEvents(ctx, events)
		if !errors.Is(err, storage.ErrDuplicate) {
			break
		}
		// A concurrent batch committed one of our ids between statements.
		// Replaying lets ON CONFLICT see the committed row and skip it.
		slog.Info("[Ingestion] Concurrent duplicate detected, replaying batch",
			"events", len(events),
			"attempt", attempt+1)
	}
	if err != nil {
		return nil, fmt.Errorf("save %d events: %w", len(events), err)
	}

	duplicates := len(events) - len(created)
	metrics.EventsIngested.WithLabelValues(metrics.OutcomeCreated).Add(float64(len(created)))
	metrics.EventsIngested.WithLabelValues(metrics.OutcomeDuplicate).Add(float64(duplicates))

	slog.Info("[Ingestion] Batch stored",
		"submitted", len(events),
		"created", len(created),
		"duplicates", duplicates)

	if created == nil {
		created = []uuid.UUID{}
	}
	return created, nil
}

// IngestResult is the task result of an ingestion batch.
type IngestResult struct {
	Created    []uuid.UUID `json:"created"`
	Duplicates int         `json:"duplicates"`
}

// Handle adapts Ingest to the task runner. The payload is the validated batch.
func (p *Pipeline) Handle(ctx context.Context, payload interface{}) (interface{}, error) {
	events, ok := payload.([]*v1.Event)
	if !ok {
		return nil, tasks.Permanent(fmt.Errorf("ingest: unexpected payload %T", payload))
	}

	created, err := p.Ingest(ctx, events)
	if err != nil {
		return nil, err
	}
	return IngestResult{Created: created, Duplicates: len(events) - len(created)}, nil
}
