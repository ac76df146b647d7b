package daterange

import (
	"errors"
	"time"
)

var (
	ErrEmptyRange = errors.New("daterange: end must be strictly after start")
	ErrZeroDate   = errors.New("daterange: start and end are required")
)

// DateRange is a half-open [Start, End) interval with day granularity.
// A range ending the day another starts does not overlap it.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New builds a range truncating both bounds to midnight UTC.
func New(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, ErrZeroDate
	}
	dr := DateRange{Start: truncate(start), End: truncate(end)}
	if !dr.Start.Before(dr.End) {
		return DateRange{}, ErrEmptyRange
	}
	return dr, nil
}

// Must builds a range and panics on invalid input; for tests and fixtures.
func Must(start, end time.Time) DateRange {
	dr, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return dr
}

// Days returns the interval length in whole days.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Overlaps reports whether the two half-open ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether the given day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := truncate(day)
	return !d.Before(r.Start) && d.Before(r.End)
}

// EachDay iterates the days covered by the range, [Start, End).
func (r DateRange) EachDay(fn func(day time.Time)) {
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
