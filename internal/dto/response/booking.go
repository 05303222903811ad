package response

import (
	"time"

	"diviner-booking/internal/data/entity"
)

type BookingResponse struct {
	ID              string               `json:"id"`
	ClientID        string               `json:"client_id"`
	DivinerID       string               `json:"diviner_id"`
	ServiceID       string               `json:"service_id"`
	ScheduledAt     time.Time            `json:"scheduled_at"`
	EndsAt          time.Time            `json:"ends_at"`
	DurationMinutes int                  `json:"duration_minutes"`
	TotalAmount     int64                `json:"total_amount"`
	PreQuestion     *string              `json:"pre_question,omitempty"`
	Status          entity.BookingStatus `json:"status"`
	CancelReason    *string              `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		ClientID:        b.ClientID.String(),
		DivinerID:       b.DivinerID.String(),
		ServiceID:       b.ServiceID.String(),
		ScheduledAt:     b.ScheduledAt,
		EndsAt:          b.EndsAt,
		DurationMinutes: b.DurationMinutes,
		TotalAmount:     b.TotalAmount,
		PreQuestion:     b.PreQuestion,
		Status:          b.Status,
		CancelReason:    b.CancelReason,
		CancelledAt:     b.CancelledAt,
		CreatedAt:       b.CreatedAt,
	}
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailableSlotsResponse struct {
	ServiceID       string         `json:"service_id"`
	Date            string         `json:"date"`
	DurationMinutes int            `json:"duration_minutes"`
	Slots           []SlotResponse `json:"slots"`
}

type PriceQuoteResponse struct {
	ServiceID     string `json:"service_id"`
	StandardPrice int64  `json:"standard_price"`
	Price         int64  `json:"price"`
	FirstTime     bool   `json:"first_time"`
	PlatformFee   int64  `json:"platform_fee"`
	DivinerNet    int64  `json:"diviner_net"`
}
