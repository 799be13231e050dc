package core

import (
	"fmt"
	"time"
)

const (
	UnitDay   Unit = "DAY"
	UnitWeek  Unit = "WEEK"
	UnitMonth Unit = "MONTH"
	UnitYear  Unit = "YEAR"
)

// MaxBuckets bounds the axis length a single aggregation may produce.
const MaxBuckets = 3660

// DateLayout is the wire format of calendar dates (yyyy-MM-dd).
const DateLayout = "2006-01-02"

type (
	// Unit is the calendar granularity of a bucket.
	Unit string

	// Range is an inclusive time interval. Buckets are computed in the
	// location of Start.
	Range struct {
		Start time.Time
		End   time.Time
	}
)

var (
	monthAbbr = [...]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."}
)

// ParseUnit accepts DAY, WEEK, MONTH or YEAR in any case.
func ParseUnit(s string) (Unit, error) {
	u := Unit(normalize(s))
	if !u.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// NewDateRange returns the range covering the whole calendar days from start
// to end, both included, in start's location.
func NewDateRange(start, end time.Time) Range {
	loc := start.Location()
	s := startOfDay(start)
	e := startOfDay(end.In(loc)).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return Range{Start: s, End: e}
}

// ParseDateRange parses two yyyy-MM-dd dates into a whole-day range in loc.
func ParseDateRange(start, end string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start date %q", ErrInvalidRange, start)
	}
	e, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end date %q", ErrInvalidRange, end)
	}
	r := NewDateRange(s, e)
	return r, r.Validate()
}

// Trailing returns the range made of the n buckets of the given unit ending
// with the bucket that contains now. The range ends at the end of now's day.
func Trailing(unit Unit, now time.Time, n int) (Range, error) {
	if !unit.Valid() {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	if n < 1 {
		return Range{}, fmt.Errorf("%w: need at least one period, got %d", ErrInvalidRange, n)
	}
	start := bucketStart(now, unit)
	for i := 1; i < n; i++ {
		start = previousBucket(start, unit)
	}
	return NewDateRange(start, now), nil
}

// TrailingMonths returns the n calendar months ending with now's month.
func TrailingMonths(now time.Time, n int) (Range, error) {
	return Trailing(UnitMonth, now, n)
}

// Validate checks that the range is set and not reversed.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange,
			r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

// Contains reports whether t falls inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Buckets returns the empty, chronologically ordered buckets spanning the
// range at the given granularity.
func Buckets(unit Unit, r Range) ([]PeriodBucket, error) {
	if !unit.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	loc := r.Start.Location()
	last := bucketStart(r.End.In(loc), unit)

	var out []PeriodBucket
	for start := bucketStart(r.Start, unit); !start.After(last); start = nextBucket(start, unit) {
		if len(out) == MaxBuckets {
			return nil, fmt.Errorf("%w: more than %d %s buckets", ErrInvalidRange, MaxBuckets, unit)
		}
		out = append(out, PeriodBucket{
			Key:   BucketKey(start, unit),
			Label: BucketLabel(start, unit),
			Start: start,
			End:   nextBucket(start, unit),
		})
	}
	return out, nil
}

// BucketKey returns the calendar-aligned key of the bucket containing t:
// YYYY-MM-DD, YYYY-Www (ISO week), YYYY-MM or YYYY.
func BucketKey(t time.Time, unit Unit) string {
	switch unit {
	case UnitDay:
		return t.Format(DateLayout)
	case UnitWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case UnitMonth:
		return t.Format("2006-01")
	case UnitYear:
		return t.Format("2006")
	}
	return ""
}

// BucketLabel returns the French display label of the bucket containing t.
func BucketLabel(t time.Time, unit Unit) string {
	switch unit {
	case UnitDay:
		return fmt.Sprintf("%02d %s", t.Day(), monthAbbr[t.Month()-1])
	case UnitWeek:
		_, week := t.ISOWeek()
		return fmt.Sprintf("Sem. %d", week)
	case UnitMonth:
		return monthAbbr[t.Month()-1]
	case UnitYear:
		return t.Format("2006")
	}
	return ""
}

func bucketStart(t time.Time, unit Unit) time.Time {
	switch unit {
	case UnitWeek:
		day := startOfDay(t)
		offset := (int(day.Weekday()) + 6) % 7 // Monday first
		return day.AddDate(0, 0, -offset)
	case UnitMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case UnitYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return startOfDay(t)
	}
}

func nextBucket(start time.Time, unit Unit) time.Time {
	switch unit {
	case UnitWeek:
		return start.AddDate(0, 0, 7)
	case UnitMonth:
		return start.AddDate(0, 1, 0)
	case UnitYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func previousBucket(start time.Time, unit Unit) time.Time {
	switch unit {
	case UnitWeek:
		return start.AddDate(0, 0, -7)
	case UnitMonth:
		return start.AddDate(0, -1, 0)
	case UnitYear:
		return start.AddDate(-1, 0, 0)
	default:
		return start.AddDate(0, 0, -1)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
