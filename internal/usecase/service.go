package usecase

import (
	"context"
	"time"

	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/gateway"
	"diviner-booking/pkg/metrics"
	"diviner-booking/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("diviner-booking/usecase")

// Clock is the time source for slot legality and payment timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// PaymentGateway creates split payments, refunds them and verifies
// webhook deliveries.
type PaymentGateway interface {
	CreateSplitPayment(ctx context.Context, req gateway.SplitPaymentRequest) (*gateway.PaymentIntent, error)
	Refund(ctx context.Context, paymentID string) error
	CancelPayment(ctx context.Context, paymentID string) error
	ParseWebhook(payload []byte, signature string) (*gateway.Event, error)
}

// EventPublisher hands verified gateway events to the broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type Deps struct {
	Clock     Clock
	Gateway   PaymentGateway
	Publisher EventPublisher // nil handles webhook events inline
	Metrics   *metrics.Metrics
}

type Service struct {
	Auth    AuthService
	User    UserService
	Booking BookingService
	Payment PaymentService
	Review  ReviewService
	Diviner DivinerService
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry(), config.App.Name)
	}
	loc, err := config.Location()
	if err != nil {
		log.Warn("Falling back to UTC", zap.Error(err))
		loc = time.UTC
	}

	return &Service{
		Auth:    NewAuthService(repo, config, deps.Clock, log),
		User:    NewUserService(repo, log),
		Booking: NewBookingService(repo, config, loc, deps, log),
		Payment: NewPaymentService(repo, config, deps, log),
		Review:  NewReviewService(repo, deps.Clock, log),
		Diviner: NewDivinerService(repo, deps.Clock, log),
	}
}
