package resolver

import (
	"sort"
	"time"

	"diviner-booking/internal/data/entity"
)

type Slot struct {
	Start time.Time
	End   time.Time
}

// GenerateSlots lists bookable starts on day, stepping through each
// matching window. Candidates must pass CheckSlot and FindConflict. day
// carries the marketplace location; only its date is used.
func GenerateSlots(
	windows []entity.Availability,
	day time.Time,
	duration, step time.Duration,
	now time.Time,
	horizonDays int,
	bookings []entity.Booking,
) []Slot {
	if duration <= 0 || step <= 0 {
		return nil
	}

	base := midnight(day)
	seen := make(map[int64]struct{})
	var slots []Slot

	for _, w := range windows {
		if !w.IsActive || w.DayOfWeek != base.Weekday() {
			continue
		}
		windowEnd := time.Duration(w.EndMinute) * time.Minute
		for off := time.Duration(w.StartMinute) * time.Minute; off+duration <= windowEnd; off += step {
			start := base.Add(off)
			if _, dup := seen[start.Unix()]; dup {
				continue
			}
			if CheckSlot(windows, start, duration, now, horizonDays) != nil {
				continue
			}
			end := start.Add(duration)
			if _, conflict := FindConflict(bookings, start, end); conflict {
				continue
			}
			seen[start.Unix()] = struct{}{}
			slots = append(slots, Slot{Start: start, End: end})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots
}
