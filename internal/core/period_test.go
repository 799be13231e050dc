package core

import (
	"testing"
	"time"
)

func TestParseUnit(t *testing.T) {
	cases := []struct {
		in   string
		want Unit
		ok   bool
	}{
		{"DAY", UnitDay, true},
		{"week", UnitWeek, true},
		{" Month ", UnitMonth, true},
		{"year", UnitYear, true},
		{"quarter", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseUnit(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestBucketKeyAndLabel(t *testing.T) {
	cases := []struct {
		t     time.Time
		unit  Unit
		key   string
		label string
	}{
		{day(2024, time.March, 5), UnitDay, "2024-03-05", "05 mars"},
		{day(2024, time.March, 5), UnitWeek, "2024-W10", "Sem. 10"},
		{day(2024, time.December, 30), UnitWeek, "2025-W01", "Sem. 1"},
		{day(2021, time.January, 3), UnitWeek, "2020-W53", "Sem. 53"},
		{day(2024, time.August, 20), UnitMonth, "2024-08", "août"},
		{day(2024, time.February, 1), UnitMonth, "2024-02", "févr."},
		{day(2024, time.July, 4), UnitYear, "2024", "2024"},
	}
	for _, tc := range cases {
		if got := BucketKey(tc.t, tc.unit); got != tc.key {
			t.Errorf("BucketKey(%s, %s) = %q, want %q", tc.t.Format(DateLayout), tc.unit, got, tc.key)
		}
		if got := BucketLabel(tc.t, tc.unit); got != tc.label {
			t.Errorf("BucketLabel(%s, %s) = %q, want %q", tc.t.Format(DateLayout), tc.unit, got, tc.label)
		}
	}
}

func TestWeekBucketsStartOnMonday(t *testing.T) {
	buckets, err := Buckets(UnitWeek, NewDateRange(day(2024, time.March, 6), day(2024, time.March, 12)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if got := buckets[0].Start; !got.Equal(day(2024, time.March, 4)) || got.Weekday() != time.Monday {
		t.Fatalf("first bucket start = %v", got)
	}
	if got := buckets[1].End; !got.Equal(day(2024, time.March, 18)) {
		t.Fatalf("last bucket end = %v", got)
	}
}

func TestTrailing(t *testing.T) {
	now := time.Date(2024, time.March, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		unit  Unit
		n     int
		start time.Time
		count int
	}{
		{"six months", UnitMonth, 6, day(2023, time.October, 1), 6},
		{"twelve months", UnitMonth, 12, day(2023, time.April, 1), 12},
		{"seven days", UnitDay, 7, day(2024, time.March, 9), 7},
		{"four weeks", UnitWeek, 4, day(2024, time.February, 19), 4},
		{"two years", UnitYear, 2, day(2023, time.January, 1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Trailing(tt.unit, now, tt.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !r.Start.Equal(tt.start) {
				t.Errorf("start = %v, want %v", r.Start, tt.start)
			}
			if want := day(2024, time.March, 16).Add(-time.Nanosecond); !r.End.Equal(want) {
				t.Errorf("end = %v, want %v", r.End, want)
			}
			buckets, err := Buckets(tt.unit, r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(buckets) != tt.count {
				t.Errorf("got %d buckets, want %d", len(buckets), tt.count)
			}
		})
	}

	if _, err := TrailingMonths(now, 0); err == nil {
		t.Fatal("expected error for zero periods")
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-03-01", "2024-03-31", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Contains(time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("end day should be fully included")
	}
	if r.Contains(day(2024, time.April, 1)) {
		t.Fatal("next day should be excluded")
	}

	for _, tc := range [][2]string{{"2024-03-31", "2024-03-01"}, {"03/01/2024", "2024-03-31"}, {"2024-03-01", ""}} {
		if _, err := ParseDateRange(tc[0], tc[1], time.UTC); err == nil {
			t.Errorf("%v expected error", tc)
		}
	}
}
