package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"diviner-booking/internal/gateway"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ackRecorder struct {
	mu      sync.Mutex
	acks    []uint64
	nacks   []uint64
	requeue []bool
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type recordingHandler struct {
	events []*gateway.Event
	fail   map[string]bool
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *gateway.Event) error {
	h.events = append(h.events, event)
	if h.fail[event.ID] {
		return errors.New("database unavailable")
	}
	return nil
}

func TestPaymentConsumer_Run(t *testing.T) {
	acks := &ackRecorder{}
	handler := &recordingHandler{fail: map[string]bool{"evt_fail": true}}
	consumer := NewPaymentConsumer(handler, zap.NewNop())

	deliveries := make(chan amqp.Delivery, 4)
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte(`{"id":"evt_ok","type":"payment.succeeded","booking_id":"b1"}`)}
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte(`{not json`)}
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: []byte(`{"id":"evt_fail","type":"payment.failed"}`)}
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 4, Redelivered: true, Body: []byte(`{"id":"evt_fail","type":"payment.failed"}`)}
	close(deliveries)

	consumer.Run(context.Background(), deliveries)

	require.Len(t, handler.events, 3)
	assert.Equal(t, gateway.EventPaymentSucceeded, handler.events[0].Type)
	assert.Equal(t, "b1", handler.events[0].BookingID)

	assert.Equal(t, []uint64{1}, acks.acks)
	assert.Equal(t, []uint64{2, 3, 4}, acks.nacks)
	assert.Equal(t, []bool{false, true, false}, acks.requeue)
}

func TestPaymentConsumer_StopsOnCancel(t *testing.T) {
	consumer := NewPaymentConsumer(&recordingHandler{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		consumer.Run(ctx, make(chan amqp.Delivery))
		close(done)
	}()
	<-done
}
