// Package gateway adapts the card processor to the booking flow: split
// payment intents, refunds and signed webhook events.
package gateway

import (
	"errors"

	"github.com/google/uuid"
)

type EventType string

const (
	EventPaymentSucceeded EventType = "payment.succeeded"
	EventPaymentFailed    EventType = "payment.failed"
	EventPaymentRefunded  EventType = "payment.refunded"
	EventAccountUpdated   EventType = "account.updated"
	EventIgnored          EventType = "ignored"
)

// RoutingKeys are the event types worth queueing for the payment consumer.
var RoutingKeys = []string{
	string(EventPaymentSucceeded),
	string(EventPaymentFailed),
	string(EventPaymentRefunded),
	string(EventAccountUpdated),
}

var ErrInvalidSignature = errors.New("gateway: invalid webhook signature")

// Event is a verified gateway notification reduced to what the booking
// flow needs. It is also the message body on the payment exchange.
type Event struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	GatewayType      string    `json:"gateway_type"`
	PaymentID        string    `json:"payment_id,omitempty"`
	BookingID        string    `json:"booking_id,omitempty"`
	AccountID        string    `json:"account_id,omitempty"`
	DivinerID        string    `json:"diviner_id,omitempty"`
	DetailsSubmitted bool      `json:"details_submitted,omitempty"`
	FailureMessage   string    `json:"failure_message,omitempty"`
}

type SplitPaymentRequest struct {
	Amount      int64
	PlatformFee int64
	Destination string
	BookingID   uuid.UUID
	DivinerID   uuid.UUID
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}
