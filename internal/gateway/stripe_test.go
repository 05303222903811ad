package gateway

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"diviner-booking/pkg/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawEvent(t *testing.T, eventType, object string) stripe.Event {
	t.Helper()
	var ev stripe.Event
	payload := fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"data":{"object":%s}}`, eventType, object)
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	return ev
}

func TestNormalizePaymentSucceeded(t *testing.T) {
	ev := rawEvent(t, "payment_intent.succeeded",
		`{"id":"pi_123","object":"payment_intent","metadata":{"bookingId":"b-1","divinerId":"d-1"}}`)

	out, err := normalizeEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, out.Type)
	assert.Equal(t, "pi_123", out.PaymentID)
	assert.Equal(t, "b-1", out.BookingID)
	assert.Equal(t, "d-1", out.DivinerID)
	assert.Equal(t, "payment_intent.succeeded", out.GatewayType)
}

func TestNormalizePaymentFailed(t *testing.T) {
	ev := rawEvent(t, "payment_intent.payment_failed",
		`{"id":"pi_9","object":"payment_intent","last_payment_error":{"message":"card declined"}}`)

	out, err := normalizeEvent(ev)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, out.Type)
	assert.Equal(t, "pi_9", out.PaymentID)
	assert.Equal(t, "card declined", out.FailureMessage)
}

func TestNormalizeChargeRefunded(t *testing.T) {
	out, err := normalizeEvent(rawEvent(t, "charge.refunded", `{"id":"ch_1","object":"charge","payment_intent":"pi_77"}`))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentRefunded, out.Type)
	assert.Equal(t, "pi_77", out.PaymentID)

	out, err = normalizeEvent(rawEvent(t, "charge.refunded", `{"id":"ch_2","object":"charge"}`))
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, out.Type)
}

func TestNormalizeAccountUpdated(t *testing.T) {
	out, err := normalizeEvent(rawEvent(t, "account.updated",
		`{"id":"acct_1","object":"account","details_submitted":true,"metadata":{"divinerId":"d-7"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventAccountUpdated, out.Type)
	assert.Equal(t, "acct_1", out.AccountID)
	assert.Equal(t, "d-7", out.DivinerID)
	assert.True(t, out.DetailsSubmitted)
}

func TestNormalizeUnknownEvent(t *testing.T) {
	out, err := normalizeEvent(rawEvent(t, "customer.created", `{"id":"cus_1","object":"customer"}`))
	require.NoError(t, err)
	assert.Equal(t, EventIgnored, out.Type)
	assert.Equal(t, "customer.created", out.GatewayType)
}

func TestParseWebhookVerifiesSignature(t *testing.T) {
	const secret = "whsec_test"
	s := NewStripe(utils.StripeConfig{SecretKey: "sk_test", WebhookSecret: secret}, "jpy")

	payload := []byte(`{"id":"evt_2","object":"event","api_version":"2023-10-16","type":"payment_intent.succeeded",` +
		`"data":{"object":{"id":"pi_5","object":"payment_intent","metadata":{"bookingId":"b-5"}}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	out, err := s.ParseWebhook(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, out.Type)
	assert.Equal(t, "pi_5", out.PaymentID)
	assert.Equal(t, "b-5", out.BookingID)

	_, err = s.ParseWebhook(payload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
}
