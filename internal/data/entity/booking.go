package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
	BookingStatusNoShow     BookingStatus = "NO_SHOW"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCompleted, BookingStatusNoShow, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusNoShow},
}

// HoldsSlot reports whether a booking in this status blocks its time range.
func (s BookingStatus) HoldsSlot() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

type Booking struct {
	BaseNoDelete
	ClientID        uuid.UUID     `db:"client_id"`
	DivinerID       uuid.UUID     `db:"diviner_id"`
	ServiceID       uuid.UUID     `db:"service_id"`
	ScheduledAt     time.Time     `db:"scheduled_at"`
	EndsAt          time.Time     `db:"ends_at"`
	DurationMinutes int           `db:"duration_minutes"`
	TotalAmount     int64         `db:"total_amount"`
	PreQuestion     *string       `db:"pre_question"`
	Status          BookingStatus `db:"status"`
	CancelReason    *string       `db:"cancel_reason"`
	CancelledAt     *time.Time    `db:"cancelled_at"`
}
