// Package worker runs background consumers that feed queued gateway events
// back into the booking flow.
package worker

import (
	"context"
	"encoding/json"

	"diviner-booking/internal/gateway"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventHandler is satisfied by usecase.PaymentService.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *gateway.Event) error
}

type PaymentConsumer struct {
	handler EventHandler
	log     *zap.Logger
}

func NewPaymentConsumer(handler EventHandler, log *zap.Logger) *PaymentConsumer {
	return &PaymentConsumer{handler: handler, log: log.Named("payment-consumer")}
}

// Run handles deliveries until ctx is done or the channel closes.
// Undecodable messages are dropped. A failed event is requeued once.
func (c *PaymentConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.log.Info("Payment consumer started")
	defer c.log.Info("Payment consumer stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *PaymentConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var event gateway.Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.log.Error("Dropping undecodable payment event",
			zap.String("routing_key", d.RoutingKey),
			zap.Error(err))
		if err := d.Nack(false, false); err != nil {
			c.log.Warn("Nack failed", zap.Error(err))
		}
		return
	}

	log := c.log.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	if err := c.handler.HandleEvent(ctx, &event); err != nil {
		log.Error("Payment event failed, requeueing", zap.Error(err))
		if err := d.Nack(false, !d.Redelivered); err != nil {
			log.Warn("Nack failed", zap.Error(err))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Warn("Ack failed", zap.Error(err))
		return
	}
	log.Debug("Payment event handled")
}
