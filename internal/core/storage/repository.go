package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/aevon-lab/project-pulse/internal/api/v1"
	"github.com/google/uuid"
)

// ErrDuplicate is returned when an event with the same event_id already exists.
var ErrDuplicate = errors.New("event already exists")

// EventStore is the transactional system of record for events.
type EventStore interface {
	// SaveEvents writes a batch in one transaction and returns the ids that were
	// actually inserted, in input order. Events whose id already exists (in the
	// store or earlier in the same batch) are skipped, not reported as errors.
	// Any other failure rolls back the whole batch.
	SaveEvents(ctx context.Context, events []*v1.Event) ([]uuid.UUID, error)

	// RetrieveEventsAfter returns every event with occurred_at strictly after
	// the watermark, ordered by occurred_at ascending.
	RetrieveEventsAfter(ctx context.Context, watermark time.Time) ([]*v1.Event, error)
}
