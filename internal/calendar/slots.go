package calendar

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open [Start, End) span of time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Format renders the interval the way it is offered to the caller.
func (iv Interval) Format() string {
	return fmt.Sprintf("%s - %s", iv.Start.Format("3:04 PM"), iv.End.Format("3:04 PM"))
}

// FreeSlots returns the ordered, non-overlapping free slots of fixed length
// between start and end, skipping any span that intersects a busy interval.
// Busy intervals may arrive unsorted; they are sorted by start time first.
func FreeSlots(busy []Interval, start, end time.Time, slot time.Duration) []Interval {
	if slot <= 0 || !start.Before(end) {
		return nil
	}

	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var slots []Interval
	current := start
	idx := 0
	for !current.Add(slot).After(end) {
		slotEnd := current.Add(slot)

		// Skip busy periods that ended before the candidate slot.
		for idx < len(sorted) && !sorted[idx].End.After(current) {
			idx++
		}

		if idx < len(sorted) && sorted[idx].Start.Before(slotEnd) && sorted[idx].End.After(current) {
			current = sorted[idx].End
			continue
		}

		slots = append(slots, Interval{Start: current, End: slotEnd})
		current = slotEnd
	}
	return slots
}
