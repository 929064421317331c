package analytics

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the query API.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Epoch is the sync watermark of an empty analytical store.
var Epoch = time.Unix(0, 0).UTC()

// DateRange is an inclusive range of UTC calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange normalizes both bounds to UTC midnight and rejects inverted ranges.
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: DayStart(from), To: DayStart(to)}
	if r.To.Before(r.From) {
		return DateRange{}, fmt.Errorf("to (%s) is before from (%s)", r.To.Format(DateLayout), r.From.Format(DateLayout))
	}
	return r, nil
}

// Start is the first instant covered by the range.
func (r DateRange) Start() time.Time {
	return r.From
}

// End is the exclusive upper bound: midnight after the last date.
func (r DateRange) End() time.Time {
	return r.To.Add(day)
}

// Days is the number of calendar dates covered.
func (r DateRange) Days() int {
	return int(r.End().Sub(r.Start()) / day)
}

// DayStart truncates t to midnight of its UTC calendar date.
// Example: DayStart(2026-10-01T10:35:42+03:00) → 2026-10-01T00:00:00Z
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RetentionSpan returns the [start, end) interval covered by windows 1-day windows.
func RetentionSpan(start time.Time, windows int) (time.Time, time.Time) {
	s := DayStart(start)
	return s, s.Add(time.Duration(windows) * day)
}
