package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Diviner struct {
	BaseNoDelete
	UserID          uuid.UUID       `db:"user_id"`
	DisplayName     string          `db:"display_name"`
	Bio             string          `db:"bio"`
	PayoutAccountID *string         `db:"payout_account_id"`
	RatingAvg       decimal.Decimal `db:"rating_avg"`
	ReviewCount     int             `db:"review_count"`
	BookingCount    int             `db:"booking_count"`
}

// CanReceivePayouts reports whether a connected gateway account is on file.
func (d *Diviner) CanReceivePayouts() bool {
	return d.PayoutAccountID != nil && *d.PayoutAccountID != ""
}
