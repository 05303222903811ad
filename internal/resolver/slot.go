package resolver

import (
	"errors"
	"time"

	"diviner-booking/internal/data/entity"
)

// DefaultHorizonDays is how far ahead, in calendar days, a slot may be booked.
const DefaultHorizonDays = 30

var (
	ErrSlotInPast          = errors.New("slot starts in the past")
	ErrBeyondHorizon       = errors.New("slot is beyond the booking horizon")
	ErrOutsideAvailability = errors.New("slot is outside the diviner's availability")
	ErrInvalidDuration     = errors.New("duration must be positive")
)

// IsLegalSlot reports whether a session of duration starting at start can
// be booked at now, using the default horizon. start must already be in the
// marketplace time zone.
func IsLegalSlot(windows []entity.Availability, start time.Time, duration time.Duration, now time.Time) bool {
	return CheckSlot(windows, start, duration, now, DefaultHorizonDays) == nil
}

// CheckSlot is IsLegalSlot with an explicit horizon, returning the reason
// a slot is refused.
func CheckSlot(windows []entity.Availability, start time.Time, duration time.Duration, now time.Time, horizonDays int) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}
	if !start.After(now) {
		return ErrSlotInPast
	}

	// calendar-day comparison, so the last day is bookable until midnight
	last := midnight(now.In(start.Location())).AddDate(0, 0, horizonDays)
	if midnight(start).After(last) {
		return ErrBeyondHorizon
	}

	tod := timeOfDay(start)
	for _, w := range windows {
		if !w.IsActive || w.DayOfWeek != start.Weekday() {
			continue
		}
		windowStart := time.Duration(w.StartMinute) * time.Minute
		windowEnd := time.Duration(w.EndMinute) * time.Minute
		if windowStart <= tod && tod+duration <= windowEnd {
			return nil
		}
	}
	return ErrOutsideAvailability
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
