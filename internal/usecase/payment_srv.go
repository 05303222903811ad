package usecase

import (
	"context"
	"errors"
	"fmt"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/dto/response"
	"diviner-booking/internal/gateway"
	"diviner-booking/internal/resolver"
	"diviner-booking/pkg/metrics"
	"diviner-booking/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error)
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID) (platformFee, divinerNet int64, err error)
	CancelForRefund(ctx context.Context, bookingID uuid.UUID, reason string) error

	ReceiveWebhook(ctx context.Context, payload []byte, signature string) error
	HandleEvent(ctx context.Context, event *gateway.Event) error
}

type paymentService struct {
	repo      *repository.Repository
	config    *utils.Config
	clock     Clock
	gateway   PaymentGateway
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewPaymentService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:      repo,
		config:    config,
		clock:     deps.Clock,
		gateway:   deps.Gateway,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		log:       log.With(zap.String("service", "payment")),
	}
}

// CreatePaymentIntent opens a split payment for a PENDING booking. The
// diviner's share goes to their payout account and the platform keeps the fee.
func (s *paymentService) CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error) {
	ctx, span := tracer.Start(ctx, "payment.CreateIntent")
	defer span.End()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	bookingID, err := parseID(req.BookingID, "booking ID")
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.id", bookingID.String()))

	client, err := s.repo.Client.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.ClientID != client.ID {
		return nil, ErrForbidden
	}

	existing, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if existing != nil && existing.Status == entity.PaymentStatusSucceeded {
		return nil, ErrAlreadyPaid
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: status %s", ErrBookingNotPayable, booking.Status)
	}

	diviner, err := s.repo.Diviner.FindByID(ctx, booking.DivinerID)
	if err != nil {
		return nil, fmt.Errorf("find diviner: %w", err)
	}
	if diviner == nil {
		return nil, ErrDivinerNotFound
	}
	if !diviner.CanReceivePayouts() {
		return nil, ErrPayoutAccountMissing
	}

	fee, net := resolver.SplitPayment(booking.TotalAmount, s.config.Booking.PlatformFeeRate)
	intent, err := s.gateway.CreateSplitPayment(ctx, gateway.SplitPaymentRequest{
		Amount:      booking.TotalAmount,
		PlatformFee: fee,
		Destination: *diviner.PayoutAccountID,
		BookingID:   booking.ID,
		DivinerID:   diviner.ID,
	})
	if err != nil {
		s.log.Error("Gateway refused payment intent", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	now := s.clock.Now()
	payment := &entity.Payment{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:        booking.ID,
		Amount:           booking.TotalAmount,
		PlatformFee:      fee,
		DivinerNet:       net,
		GatewayPaymentID: &intent.ID,
		Status:           entity.PaymentStatusPending,
	}
	if err := s.repo.Payment.Upsert(ctx, payment); err != nil {
		s.log.Error("Failed to store payment", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, fmt.Errorf("store payment: %w", err)
	}

	s.log.Info("Payment intent created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("gateway_payment_id", intent.ID),
		zap.Int64("amount", payment.Amount),
		zap.Int64("platform_fee", fee))

	return &response.PaymentIntentResponse{
		BookingID:    booking.ID.String(),
		PaymentID:    payment.ID.String(),
		ClientSecret: intent.ClientSecret,
		Amount:       payment.Amount,
		PlatformFee:  fee,
		DivinerNet:   net,
	}, nil
}

// ConfirmPayment settles a booking's payment. Calling it again for a
// settled or refunded payment returns the stored split and changes nothing.
// A payment that lands on a booking that can no longer be confirmed is
// refunded at the gateway instead.
func (s *paymentService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "payment.Confirm")
	defer span.End()

	var fee, net int64
	var settled, refunded bool
	var bookingStatus entity.BookingStatus
	err := s.repo.Tx.Do(ctx, func(ctx context.Context) error {
		payment, err := s.repo.Payment.FindByBookingIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if payment.Status == entity.PaymentStatusSucceeded || payment.Status == entity.PaymentStatusRefunded {
			fee, net = payment.PlatformFee, payment.DivinerNet
			return nil
		}

		booking, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		if !booking.Status.CanTransitionTo(entity.BookingStatusConfirmed) {
			bookingStatus = booking.Status
			if err := s.repo.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusRefunded); err != nil {
				return err
			}
			if payment.GatewayPaymentID != nil {
				if err := s.gateway.Refund(ctx, *payment.GatewayPaymentID); err != nil {
					return fmt.Errorf("refund payment: %w", err)
				}
			}
			refunded = true
			return nil
		}

		fee, net = resolver.SplitPayment(payment.Amount, s.config.Booking.PlatformFeeRate)
		if err := s.repo.Payment.MarkSucceeded(ctx, payment.ID, fee, net, s.clock.Now()); err != nil {
			return err
		}
		if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed); err != nil {
			return err
		}
		settled = true
		return s.repo.Diviner.IncrementBookingCount(ctx, booking.DivinerID)
	})
	if err != nil {
		s.log.Error("Failed to confirm payment", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return 0, 0, fmt.Errorf("confirm payment: %w", err)
	}

	if refunded {
		s.log.Warn("Payment refunded, booking no longer payable",
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(bookingStatus)))
	}
	if settled {
		s.metrics.PaymentsConfirmed.Inc()
		s.metrics.PlatformFeeYen.Add(float64(fee))
		s.log.Info("Payment confirmed",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("platform_fee", fee),
			zap.Int64("diviner_net", net))
	}
	return fee, net, nil
}

// CancelForRefund records a gateway refund and releases the booking's slot.
func (s *paymentService) CancelForRefund(ctx context.Context, bookingID uuid.UUID, reason string) error {
	var cancelled bool
	err := s.repo.Tx.Do(ctx, func(ctx context.Context) error {
		booking, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		payment, err := s.repo.Payment.FindByBookingIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if payment != nil && payment.Status != entity.PaymentStatusRefunded {
			if err := s.repo.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusRefunded); err != nil {
				return err
			}
		}

		if booking.Status == entity.BookingStatusCancelled {
			return nil
		}
		cancelled = true
		return s.repo.Booking.Cancel(ctx, booking.ID, reason, s.clock.Now())
	})
	if err != nil {
		s.log.Error("Failed to cancel refunded booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return fmt.Errorf("cancel for refund: %w", err)
	}

	if cancelled {
		s.metrics.BookingsCancelled.WithLabelValues("refund").Inc()
		s.log.Info("Booking cancelled after refund", zap.String("booking_id", bookingID.String()))
	}
	return nil
}

// ReceiveWebhook verifies a gateway delivery and queues it, or handles it
// right away when no broker is configured.
func (s *paymentService) ReceiveWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		if errors.Is(err, gateway.ErrInvalidSignature) {
			s.log.Warn("Webhook signature rejected")
		} else {
			s.log.Warn("Webhook payload rejected", zap.Error(err))
		}
		return fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}

	if event.Type == gateway.EventIgnored {
		s.metrics.WebhookEvents.WithLabelValues(event.GatewayType, "ignored").Inc()
		return nil
	}

	if s.publisher != nil {
		if err := s.publisher.PublishJSON(ctx, string(event.Type), event); err != nil {
			s.log.Error("Failed to queue webhook event", zap.Error(err), zap.String("event_id", event.ID))
			return fmt.Errorf("queue webhook event: %w", err)
		}
		s.metrics.WebhookEvents.WithLabelValues(string(event.Type), "queued").Inc()
		return nil
	}

	return s.HandleEvent(ctx, event)
}

// HandleEvent applies a verified gateway event. Events that reference
// unknown payments or diviners are logged and dropped.
func (s *paymentService) HandleEvent(ctx context.Context, event *gateway.Event) error {
	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	var err error
	outcome := "handled"
	switch event.Type {
	case gateway.EventPaymentSucceeded:
		var payment *entity.Payment
		if payment, err = s.paymentFor(ctx, event); err == nil {
			if payment == nil {
				outcome = "unknown_payment"
				break
			}
			_, _, err = s.ConfirmPayment(ctx, payment.BookingID)
		}

	case gateway.EventPaymentFailed:
		var payment *entity.Payment
		if payment, err = s.paymentFor(ctx, event); err == nil {
			if payment == nil {
				outcome = "unknown_payment"
				break
			}
			if payment.Status == entity.PaymentStatusPending {
				err = s.repo.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusFailed)
				log.Info("Payment failed", zap.String("booking_id", payment.BookingID.String()),
					zap.String("reason", event.FailureMessage))
			}
		}

	case gateway.EventPaymentRefunded:
		var payment *entity.Payment
		if payment, err = s.paymentFor(ctx, event); err == nil {
			if payment == nil {
				outcome = "unknown_payment"
				break
			}
			err = s.CancelForRefund(ctx, payment.BookingID, "refund")
		}

	case gateway.EventAccountUpdated:
		err = s.updatePayoutAccount(ctx, event)

	default:
		outcome = "ignored"
	}

	if err != nil {
		s.metrics.WebhookEvents.WithLabelValues(string(event.Type), "error").Inc()
		log.Error("Failed to handle gateway event", zap.Error(err))
		return err
	}
	if outcome != "handled" {
		log.Warn("Gateway event not applied", zap.String("outcome", outcome))
	}
	s.metrics.WebhookEvents.WithLabelValues(string(event.Type), outcome).Inc()
	return nil
}

func (s *paymentService) paymentFor(ctx context.Context, event *gateway.Event) (*entity.Payment, error) {
	if event.PaymentID != "" {
		payment, err := s.repo.Payment.FindByGatewayID(ctx, event.PaymentID)
		if err != nil || payment != nil {
			return payment, err
		}
	}
	if event.BookingID == "" {
		return nil, nil
	}
	bookingID, err := uuid.Parse(event.BookingID)
	if err != nil {
		return nil, nil
	}
	return s.repo.Payment.FindByBookingID(ctx, bookingID)
}

func (s *paymentService) updatePayoutAccount(ctx context.Context, event *gateway.Event) error {
	if !event.DetailsSubmitted || event.AccountID == "" || event.DivinerID == "" {
		return nil
	}
	divinerID, err := uuid.Parse(event.DivinerID)
	if err != nil {
		return nil
	}
	diviner, err := s.repo.Diviner.FindByID(ctx, divinerID)
	if err != nil {
		return err
	}
	if diviner == nil {
		s.log.Warn("Payout account for unknown diviner", zap.String("diviner_id", event.DivinerID))
		return nil
	}
	if err := s.repo.Diviner.UpdatePayoutAccount(ctx, diviner.ID, event.AccountID); err != nil {
		return err
	}
	s.log.Info("Payout account connected", zap.String("diviner_id", diviner.ID.String()))
	return nil
}
