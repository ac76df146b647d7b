package daterange

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{"valid", day(2026, 7, 1), day(2026, 7, 5), nil},
		{"single day", day(2026, 7, 1), day(2026, 7, 2), nil},
		{"equal bounds", day(2026, 7, 1), day(2026, 7, 1), ErrEmptyRange},
		{"inverted", day(2026, 7, 5), day(2026, 7, 1), ErrEmptyRange},
		{"zero start", time.Time{}, day(2026, 7, 1), ErrZeroDate},
		{"zero end", day(2026, 7, 1), time.Time{}, ErrZeroDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.start, tc.end)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewTruncatesToMidnightUTC(t *testing.T) {
	start := time.Date(2026, 7, 1, 15, 30, 12, 0, time.UTC)
	end := time.Date(2026, 7, 3, 2, 0, 0, 0, time.UTC)
	dr, err := New(start, end)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !dr.Start.Equal(day(2026, 7, 1)) || !dr.End.Equal(day(2026, 7, 3)) {
		t.Fatalf("bounds not truncated: %v %v", dr.Start, dr.End)
	}
}

func TestOverlaps(t *testing.T) {
	base := Must(day(2026, 7, 4), day(2026, 7, 8))
	cases := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"identical", Must(day(2026, 7, 4), day(2026, 7, 8)), true},
		{"partial front", Must(day(2026, 7, 1), day(2026, 7, 5)), true},
		{"partial back", Must(day(2026, 7, 7), day(2026, 7, 10)), true},
		{"contained", Must(day(2026, 7, 5), day(2026, 7, 6)), true},
		{"containing", Must(day(2026, 7, 1), day(2026, 7, 12)), true},
		{"abuts before", Must(day(2026, 7, 1), day(2026, 7, 4)), false},
		{"abuts after", Must(day(2026, 7, 8), day(2026, 7, 12)), false},
		{"disjoint before", Must(day(2026, 6, 1), day(2026, 6, 10)), false},
		{"disjoint after", Must(day(2026, 8, 1), day(2026, 8, 10)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.want {
				t.Fatalf("Overlaps() = %v, want %v", got, tc.want)
			}
			if got := tc.other.Overlaps(base); got != tc.want {
				t.Fatalf("Overlaps() not symmetric: = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDays(t *testing.T) {
	if got := Must(day(2026, 7, 1), day(2026, 7, 4)).Days(); got != 3 {
		t.Fatalf("Days() = %d, want 3", got)
	}
	if got := Must(day(2026, 7, 1), day(2026, 7, 2)).Days(); got != 1 {
		t.Fatalf("Days() = %d, want 1", got)
	}
}

func TestContains(t *testing.T) {
	dr := Must(day(2026, 7, 1), day(2026, 7, 4))
	if !dr.Contains(day(2026, 7, 1)) || !dr.Contains(day(2026, 7, 3)) {
		t.Fatal("expected interior days to be contained")
	}
	if dr.Contains(day(2026, 7, 4)) {
		t.Fatal("end bound must be exclusive")
	}
}

func TestEachDay(t *testing.T) {
	dr := Must(day(2026, 7, 1), day(2026, 7, 4))
	var seen []time.Time
	dr.EachDay(func(d time.Time) { seen = append(seen, d) })
	if len(seen) != 3 {
		t.Fatalf("EachDay visited %d days, want 3", len(seen))
	}
	if !seen[0].Equal(day(2026, 7, 1)) || !seen[2].Equal(day(2026, 7, 3)) {
		t.Fatalf("EachDay visited wrong days: %v", seen)
	}
}
