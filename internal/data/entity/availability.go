package entity

import (
	"time"

	"github.com/google/uuid"
)

const MinutesPerDay = 24 * 60

// Availability is a recurring weekly window. Times are minutes from
// midnight in the marketplace time zone; a session may end exactly at EndMinute.
type Availability struct {
	BaseSimple
	DivinerID   uuid.UUID    `db:"diviner_id"`
	DayOfWeek   time.Weekday `db:"day_of_week"`
	StartMinute int          `db:"start_minute"`
	EndMinute   int          `db:"end_minute"`
	IsActive    bool         `db:"is_active"`
}

func (a Availability) Valid() bool {
	return a.DayOfWeek >= time.Sunday && a.DayOfWeek <= time.Saturday &&
		a.StartMinute >= 0 && a.StartMinute < a.EndMinute && a.EndMinute <= MinutesPerDay
}
