package postgres

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	v1 "github.com/aevon-lab/project-pulse/internal/api/v1"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// marshalProperties encodes event properties as JSON.
// Nil or empty properties produce nil (SQL NULL) rather than JSON "null".
func marshalProperties(event *v1.Event) ([]byte, error) {
	if len(event.Properties) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(event.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}
	return data, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event struct.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var userID string
	var propertiesJSON []byte

	err := row.Scan(
		&evt.EventID,
		&evt.OccurredAt,
		&userID,
		&evt.EventType,
		&propertiesJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}
	evt.UserID = v1.UserID(userID)
	evt.OccurredAt = evt.OccurredAt.UTC()

	if len(propertiesJSON) > 0 {
		// Numbers stay json.Number so large integers and literals like 1.0 keep their text.
		dec := json.NewDecoder(bytes.NewReader(propertiesJSON))
		dec.UseNumber()
		if err := dec.Decode(&evt.Properties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
		}
		evt.RawProperties = append(json.RawMessage(nil), propertiesJSON...)
	}

	return &evt, nil
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pgUniqueViolation
}

func isUndefinedTable(err error) bool {
	return pqCode(err) == pgUndefinedTable
}
