package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxEventTypeLength bounds the event_type category string.
const MaxEventTypeLength = 128

// Event is one timestamped user-activity record.
// It is created once by the ingestion pipeline and never updated.
type Event struct {
	// EventID is the client-supplied identity and the deduplication key.
	EventID uuid.UUID `json:"event_id"`

	// OccurredAt is the logical time of the event. It drives windowing and
	// is the dimension of the sync watermark.
	OccurredAt time.Time `json:"occurred_at"`

	// UserID identifies the acting user. Numeric ids are kept in their
	// decimal text form.
	UserID UserID `json:"user_id"`

	// EventType is a short category such as "login" or "purchase".
	EventType string `json:"event_type"`

	// Properties is an optional free-form map used for segment filters.
	Properties map[string]interface{} `json:"properties,omitempty"`

	// RawProperties holds the stored JSON text of Properties when the event was
	// read back from the event store. Copies to other stores write it as is.
	RawProperties json.RawMessage `json:"-"`
}

// UserID accepts either a JSON number or a JSON string.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user_id must be a string or a number")
	}
	*u = UserID(n.String())
	return nil
}

func (u UserID) String() string {
	return string(u)
}

// EventInput is the raw shape posted by clients. Fields are kept as loose types
// so that a malformed element can be reported individually instead of failing the
// whole array decode.
type EventInput struct {
	EventID    string                 `json:"event_id"`
	OccurredAt string                 `json:"occurred_at"`
	UserID     UserID                 `json:"user_id"`
	EventType  string                 `json:"event_type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// ValidationError reports why a single event was rejected.
type ValidationError struct {
	Index   int    `json:"index"`
	EventID string `json:"event_id,omitempty"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event %d: %s %s", e.Index, e.Field, e.Reason)
}

// ParseEventInput decodes and validates the element at position index of an
// ingestion batch.
func ParseEventInput(index int, raw json.RawMessage) (*Event, *ValidationError) {
	var in EventInput
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return nil, &ValidationError{Index: index, Field: "body", Reason: "is not a valid event object: " + err.Error()}
	}
	return in.ToEvent(index)
}

// ToEvent validates the input and converts it to an Event.
func (in EventInput) ToEvent(index int) (*Event, *ValidationError) {
	fail := func(field, reason string) (*Event, *ValidationError) {
		return nil, &ValidationError{Index: index, EventID: in.EventID, Field: field, Reason: reason}
	}

	if strings.TrimSpace(in.EventID) == "" {
		return fail("event_id", "is required")
	}
	id, err := uuid.Parse(in.EventID)
	if err != nil {
		return fail("event_id", "is not a valid UUID")
	}

	if strings.TrimSpace(in.OccurredAt) == "" {
		return fail("occurred_at", "is required")
	}
	occurredAt, err := ParseTimestamp(in.OccurredAt)
	if err != nil {
		return fail("occurred_at", "is not an RFC 3339 timestamp")
	}

	if strings.TrimSpace(in.UserID.String()) == "" {
		return fail("user_id", "is required")
	}

	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		return fail("event_type", "is required")
	}
	if len(eventType) > MaxEventTypeLength {
		return fail("event_type", fmt.Sprintf("exceeds %d characters", MaxEventTypeLength))
	}

	return &Event{
		EventID:    id,
		OccurredAt: occurredAt,
		UserID:     in.UserID,
		EventType:  eventType,
		Properties: in.Properties,
	}, nil
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds, and the
// zone-less ISO form, which is read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
