package schedule

import (
	"fmt"
	"time"
)

// Interval is a half-open [Start, End) span within one calendar day.
type Interval struct {
	Start time.Time
	End   time.Time
}

// StartOf combines a calendar date with an "15:04" time of day.
func StartOf(date time.Time, timeOfDay string) (time.Time, error) {
	tod, err := time.Parse(TimeFormat, timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time of day %q: %w", timeOfDay, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, time.UTC), nil
}

// EndOf is StartOf plus the duration in minutes.
func EndOf(date time.Time, timeOfDay string, durationMin int) (time.Time, error) {
	start, err := StartOf(date, timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(durationMin) * time.Minute), nil
}

// NewInterval builds the interval occupied by an appointment placement.
func NewInterval(date time.Time, timeOfDay string, durationMin int) (Interval, error) {
	start, err := StartOf(date, timeOfDay)
	if err != nil {
		return Interval{}, err
	}
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMin) * time.Minute),
	}, nil
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (one ends exactly when the other starts) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Interval returns the span the appointment occupies on the grid.
func (a *Appointment) Interval() (Interval, error) {
	return NewInterval(a.Date, a.StartTime, a.DurationMin)
}

// ParseDate parses a "2006-01-02" calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// ValidTimeOfDay reports whether s is a well-formed "15:04" value.
func ValidTimeOfDay(s string) bool {
	_, err := time.Parse(TimeFormat, s)
	return err == nil
}

// daysBetween returns whole days from a to b. Both are midnight-UTC dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
