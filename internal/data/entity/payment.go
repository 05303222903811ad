package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type Payment struct {
	BaseNoDelete
	BookingID        uuid.UUID     `db:"booking_id"`
	Amount           int64         `db:"amount"`
	PlatformFee      int64         `db:"platform_fee"`
	DivinerNet       int64         `db:"diviner_net"`
	GatewayPaymentID *string       `db:"gateway_payment_id"`
	Status           PaymentStatus `db:"status"`
	PaidAt           *time.Time    `db:"paid_at"`
}
