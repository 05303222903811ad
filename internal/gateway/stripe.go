package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"diviner-booking/pkg/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	metaBookingID = "bookingId"
	metaDivinerID = "divinerId"
)

// Stripe implements the gateway over Stripe Connect destination charges.
type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripe(cfg utils.StripeConfig, currency string) *Stripe {
	return &Stripe{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
	}
}

// CreateSplitPayment creates an intent whose platform fee stays with the
// platform and whose remainder is transferred to the destination account.
func (s *Stripe) CreateSplitPayment(ctx context.Context, req SplitPaymentRequest) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(req.Amount),
		Currency:             stripe.String(s.currency),
		ApplicationFeeAmount: stripe.Int64(req.PlatformFee),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.Destination),
		},
	}
	params.Context = ctx
	params.AddMetadata(metaBookingID, req.BookingID.String())
	params.AddMetadata(metaDivinerID, req.DivinerID.String())

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *Stripe) Refund(ctx context.Context, paymentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx

	if _, err := s.api.Refunds.New(params); err != nil {
		return fmt.Errorf("stripe refund %s: %w", paymentID, err)
	}
	return nil
}

// CancelPayment voids an intent that has not been paid yet.
func (s *Stripe) CancelPayment(ctx context.Context, paymentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonRequestedByCustomer)),
	}
	params.Context = ctx

	if _, err := s.api.PaymentIntents.Cancel(paymentID, params); err != nil {
		return fmt.Errorf("stripe cancel payment intent %s: %w", paymentID, err)
	}
	return nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return normalizeEvent(ev)
}

func normalizeEvent(ev stripe.Event) (*Event, error) {
	out := &Event{ID: ev.ID, GatewayType: string(ev.Type), Type: EventIgnored}
	if ev.Data == nil {
		return out, nil
	}

	switch string(ev.Type) {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Type = EventPaymentSucceeded
		if string(ev.Type) == "payment_intent.payment_failed" {
			out.Type = EventPaymentFailed
			if pi.LastPaymentError != nil {
				out.FailureMessage = pi.LastPaymentError.Msg
			}
		}
		out.PaymentID = pi.ID
		out.BookingID = pi.Metadata[metaBookingID]
		out.DivinerID = pi.Metadata[metaDivinerID]

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
			return out, nil
		}
		out.Type = EventPaymentRefunded
		out.PaymentID = ch.PaymentIntent.ID

	case "account.updated":
		var acct stripe.Account
		if err := json.Unmarshal(ev.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		out.Type = EventAccountUpdated
		out.AccountID = acct.ID
		out.DivinerID = acct.Metadata[metaDivinerID]
		out.DetailsSubmitted = acct.DetailsSubmitted
	}

	return out, nil
}
