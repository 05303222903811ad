package request

type AvailabilityWindowRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time" validate:"required,len=5"`
}

type ReplaceAvailabilityRequest struct {
	Windows []AvailabilityWindowRequest `json:"windows" validate:"max=50,dive"`
}

type CreateServiceRequest struct {
	Title            string `json:"title" validate:"required,max=100"`
	Description      string `json:"description,omitempty" validate:"max=2000"`
	ConsultationType string `json:"consultation_type" validate:"required,oneof=VIDEO_CALL VOICE_CALL CHAT EMAIL IN_PERSON"`
	DurationMinutes  int    `json:"duration_minutes" validate:"required,min=10,max=240"`
	Price            int64  `json:"price" validate:"min=0"`
	FirstTimePrice   *int64 `json:"first_time_price,omitempty" validate:"omitempty,min=0"`
}

type UpdateServiceRequest struct {
	CreateServiceRequest
	IsActive *bool `json:"is_active,omitempty"`
}
