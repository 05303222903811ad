package response

import (
	"diviner-booking/internal/data/entity"
	"diviner-booking/pkg/utils"
)

type DivinerResponse struct {
	ID              string                 `json:"id"`
	DisplayName     string                 `json:"display_name"`
	Bio             string                 `json:"bio"`
	RatingAvg       string                 `json:"rating_avg"`
	ReviewCount     int                    `json:"review_count"`
	BookingCount    int                    `json:"booking_count"`
	AcceptsPayments bool                   `json:"accepts_payments"`
	Services        []ServiceResponse      `json:"services"`
	Availability    []AvailabilityResponse `json:"availability"`
}

type ServiceResponse struct {
	ID               string                  `json:"id"`
	DivinerID        string                  `json:"diviner_id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	ConsultationType entity.ConsultationType `json:"consultation_type"`
	DurationMinutes  int                     `json:"duration_minutes"`
	Price            int64                   `json:"price"`
	FirstTimePrice   *int64                  `json:"first_time_price,omitempty"`
	IsActive         bool                    `json:"is_active"`
}

type AvailabilityResponse struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func ServiceToResponse(s *entity.Service) ServiceResponse {
	return ServiceResponse{
		ID:               s.ID.String(),
		DivinerID:        s.DivinerID.String(),
		Title:            s.Title,
		Description:      s.Description,
		ConsultationType: s.ConsultationType,
		DurationMinutes:  s.DurationMinutes,
		Price:            s.Price,
		FirstTimePrice:   s.FirstTimePrice,
		IsActive:         s.IsActive,
	}
}

func AvailabilityToResponse(windows []entity.Availability) []AvailabilityResponse {
	out := make([]AvailabilityResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, AvailabilityResponse{
			DayOfWeek: int(w.DayOfWeek),
			StartTime: utils.FormatClock(w.StartMinute),
			EndTime:   utils.FormatClock(w.EndMinute),
		})
	}
	return out
}

func DivinerToResponse(d *entity.Diviner, services []*entity.Service, windows []entity.Availability) DivinerResponse {
	svc := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		svc = append(svc, ServiceToResponse(s))
	}
	return DivinerResponse{
		ID:              d.ID.String(),
		DisplayName:     d.DisplayName,
		Bio:             d.Bio,
		RatingAvg:       d.RatingAvg.StringFixed(2),
		ReviewCount:     d.ReviewCount,
		BookingCount:    d.BookingCount,
		AcceptsPayments: d.CanReceivePayouts(),
		Services:        svc,
		Availability:    AvailabilityToResponse(windows),
	}
}
