package calendar

import (
	"testing"
	"time"
)

func TestFreeSlots(t *testing.T) {
	slot := 30 * time.Minute

	tests := []struct {
		name   string
		busy   []Interval
		start  string
		end    string
		expect []string
	}{
		{
			name:   "no busy periods",
			start:  "09:00",
			end:    "10:30",
			expect: []string{"9:00 AM - 9:30 AM", "9:30 AM - 10:00 AM", "10:00 AM - 10:30 AM"},
		},
		{
			name:   "busy period blocks overlapping slots",
			busy:   []Interval{{Start: mustAt("09:15"), End: mustAt("09:45")}},
			start:  "09:00",
			end:    "11:00",
			expect: []string{"9:45 AM - 10:15 AM", "10:15 AM - 10:45 AM"},
		},
		{
			name: "unsorted busy periods",
			busy: []Interval{
				{Start: mustAt("10:00"), End: mustAt("10:30")},
				{Start: mustAt("09:00"), End: mustAt("09:30")},
			},
			start:  "09:00",
			end:    "11:00",
			expect: []string{"9:30 AM - 10:00 AM", "10:30 AM - 11:00 AM"},
		},
		{
			name:   "fully busy day",
			busy:   []Interval{{Start: mustAt("09:00"), End: mustAt("17:00")}},
			start:  "09:00",
			end:    "17:00",
			expect: nil,
		},
		{
			name:   "window shorter than slot",
			start:  "09:00",
			end:    "09:15",
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FreeSlots(tt.busy, mustAt(tt.start), mustAt(tt.end), slot)

			if len(got) != len(tt.expect) {
				t.Fatalf("Expected %d slots, got %d: %v", len(tt.expect), len(got), got)
			}
			for i, iv := range got {
				if iv.Format() != tt.expect[i] {
					t.Errorf("Slot %d: expected %q, got %q", i, tt.expect[i], iv.Format())
				}
			}
		})
	}
}

func TestFreeSlotsAreOrderedAndDisjoint(t *testing.T) {
	busy := []Interval{
		{Start: mustAt("09:40"), End: mustAt("10:10")},
		{Start: mustAt("12:00"), End: mustAt("13:00")},
	}
	got := FreeSlots(busy, mustAt("09:00"), mustAt("17:00"), 30*time.Minute)

	for i := 1; i < len(got); i++ {
		if got[i].Start.Before(got[i-1].End) {
			t.Errorf("Slots %d and %d overlap: %v %v", i-1, i, got[i-1], got[i])
		}
	}
	for _, iv := range got {
		for _, b := range busy {
			if iv.Start.Before(b.End) && b.Start.Before(iv.End) {
				t.Errorf("Slot %v intersects busy period %v", iv, b)
			}
		}
	}
}

func mustAt(hhmm string) time.Time {
	ts, err := time.Parse("2006-01-02 15:04", "2026-08-29 "+hhmm)
	if err != nil {
		panic(err)
	}
	return ts
}
