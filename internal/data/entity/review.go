package entity

import (
	"github.com/google/uuid"
)

type Review struct {
	BaseSimple
	BookingID uuid.UUID `db:"booking_id"`
	ClientID  uuid.UUID `db:"client_id"`
	DivinerID uuid.UUID `db:"diviner_id"`
	Rating    int       `db:"rating"` // 1-5
	Comment   *string   `db:"comment"`
	IsVisible bool      `db:"is_visible"`
}
