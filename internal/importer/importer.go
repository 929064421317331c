package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	v1 "github.com/aevon-lab/project-pulse/internal/api/v1"
	"github.com/google/uuid"
)

// DefaultBatchSize is the number of rows committed per transaction.
const DefaultBatchSize = 1000

const (
	colEventID    = "event_id"
	colOccurredAt = "occurred_at"
	colUserID     = "user_id"
	colEventType  = "event_type"
)

// Properties may appear under either header.
var propertyColumns = []string{"properties_json", "properties"}

// Ingester stores a batch and returns the ids that were new.
type Ingester interface {
	Ingest(ctx context.Context, events []*v1.Event) ([]uuid.UUID, error)
}

// Summary counts the outcome of one import.
type Summary struct {
	Imported   int
	Duplicates int
	Invalid    int
}

func (s Summary) String() string {
	return fmt.Sprintf("Imported %d events, skipped %d duplicates, %d invalid", s.Imported, s.Duplicates, s.Invalid)
}

// Importer loads historical events from CSV through the ingestion pipeline, so
// imported rows follow the same identity rule as the HTTP path.
type Importer struct {
	ingester  Ingester
	batchSize int
}

func New(ingester Ingester, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{ingester: ingester, batchSize: batchSize}
}

type columns struct {
	eventID, occurredAt, userID, eventType int
	properties                             int // -1 when absent
}

// Import reads a CSV with a header row. Rows that fail validation are counted as
// invalid and skipped. A store error aborts the import; batches committed before
// it stay committed and are reflected in the returned summary.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	var summary Summary

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return summary, fmt.Errorf("csv is empty")
		}
		return summary, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return summary, err
	}

	batch := make([]*v1.Event, 0, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		created, err := im.ingester.Ingest(ctx, batch)
		if err != nil {
			return err
		}
		summary.Imported += len(created)
		summary.Duplicates += len(batch) - len(created)
		batch = batch[:0]
		return nil
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				slog.Warn("[Importer] Skipping row with wrong column count", "row", row)
				summary.Invalid++
				continue
			}
			return summary, fmt.Errorf("read csv row %d: %w", row, err)
		}

		evt, verr := toEvent(row, record, cols)
		if verr != nil {
			slog.Warn("[Importer] Skipping invalid row", "row", row, "field", verr.Field, "reason", verr.Reason)
			summary.Invalid++
			continue
		}

		batch = append(batch, evt)
		if len(batch) >= im.batchSize {
			if err := flush(); err != nil {
				return summary, fmt.Errorf("import batch ending at row %d: %w", row, err)
			}
		}
	}

	if err := flush(); err != nil {
		return summary, fmt.Errorf("import final batch: %w", err)
	}

	slog.Info("[Importer] Import finished",
		"imported", summary.Imported,
		"duplicates", summary.Duplicates,
		"invalid", summary.Invalid)
	return summary, nil
}

func parseHeader(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := columns{properties: -1}
	for name, dst := range map[string]*int{
		colEventID:    &cols.eventID,
		colOccurredAt: &cols.occurredAt,
		colUserID:     &cols.userID,
		colEventType:  &cols.eventType,
	} {
		i, ok := index[name]
		if !ok {
			return columns{}, fmt.Errorf("csv header is missing column %q", name)
		}
		*dst = i
	}
	for _, name := range propertyColumns {
		if i, ok := index[name]; ok {
			cols.properties = i
			break
		}
	}
	return cols, nil
}

func toEvent(row int, record []string, cols columns) (*v1.Event, *v1.ValidationError) {
	in := v1.EventInput{
		EventID:    record[cols.eventID],
		OccurredAt: record[cols.occurredAt],
		UserID:     v1.UserID(strings.TrimSpace(record[cols.userID])),
		EventType:  record[cols.eventType],
	}

	if cols.properties >= 0 {
		if raw := strings.TrimSpace(record[cols.properties]); raw != "" {
			dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
			dec.UseNumber()
			if err := dec.Decode(&in.Properties); err != nil {
				return nil, &v1.ValidationError{Index: row, EventID: in.EventID, Field: "properties", Reason: "is not a JSON object"}
			}
		}
	}

	return in.ToEvent(row)
}
