package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationType string

const (
	ConsultationVideoCall ConsultationType = "VIDEO_CALL"
	ConsultationVoiceCall ConsultationType = "VOICE_CALL"
	ConsultationChat      ConsultationType = "CHAT"
	ConsultationEmail     ConsultationType = "EMAIL"
	ConsultationInPerson  ConsultationType = "IN_PERSON"
)

type Service struct {
	BaseNoDelete
	DivinerID        uuid.UUID        `db:"diviner_id"`
	Title            string           `db:"title"`
	Description      string           `db:"description"`
	ConsultationType ConsultationType `db:"consultation_type"`
	DurationMinutes  int              `db:"duration_minutes"`
	Price            int64            `db:"price"`
	FirstTimePrice   *int64           `db:"first_time_price"`
	IsActive         bool             `db:"is_active"`
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
