package resolver

import (
	"time"

	"diviner-booking/internal/data/entity"
)

// FindConflict returns the first slot-holding booking whose [start, end)
// range shares an instant with the requested [start, end).
func FindConflict(existing []entity.Booking, start, end time.Time) (*entity.Booking, bool) {
	for i := range existing {
		b := &existing[i]
		if !b.Status.HoldsSlot() {
			continue
		}
		if Overlaps(start, end, b.ScheduledAt, BookingEnd(b)) {
			return b, true
		}
	}
	return nil, false
}

// Overlaps is the half-open interval test. Touching ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// BookingEnd falls back to start + duration for rows without a stored end.
func BookingEnd(b *entity.Booking) time.Time {
	if !b.EndsAt.IsZero() {
		return b.EndsAt
	}
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}
