package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/dto/response"
	"diviner-booking/internal/resolver"
	"diviner-booking/pkg/database"
	"diviner-booking/pkg/metrics"
	"diviner-booking/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const defaultSlotStep = 30 * time.Minute

type BookingService interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error)
	ListClientBookings(ctx context.Context, userID uuid.UUID, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	ListDivinerBookings(ctx context.Context, userID uuid.UUID, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	CancelBooking(ctx context.Context, userID uuid.UUID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error)
	UpdateBookingStatus(ctx context.Context, userID uuid.UUID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)

	ListAvailableSlots(ctx context.Context, serviceID, date string) (*response.AvailableSlotsResponse, error)
	QuotePrice(ctx context.Context, userID uuid.UUID, serviceID string) (*response.PriceQuoteResponse, error)
}

type bookingService struct {
	repo    *repository.Repository
	config  *utils.Config
	loc     *time.Location
	clock   Clock
	gateway PaymentGateway
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewBookingService(repo *repository.Repository, config *utils.Config, loc *time.Location, deps Deps, log *zap.Logger) BookingService {
	return &bookingService{
		repo:    repo,
		config:  config,
		loc:     loc,
		clock:   deps.Clock,
		gateway: deps.Gateway,
		metrics: deps.Metrics,
		log:     log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) horizonDays() int {
	if s.config.Booking.HorizonDays > 0 {
		return s.config.Booking.HorizonDays
	}
	return resolver.DefaultHorizonDays
}

// CreateBooking places a PENDING booking for the client after checking the
// slot against the diviner's availability and held bookings.
func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	ctx, span := tracer.Start(ctx, "booking.Create")
	defer span.End()

	// 1. Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}
	serviceID, err := parseID(req.ServiceID, "service ID")
	if err != nil {
		return nil, err
	}

	// 2. Resolve client, service and diviner
	client, err := s.clientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	service, err := s.activeService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	diviner, err := s.repo.Diviner.FindByID(ctx, service.DivinerID)
	if err != nil {
		return nil, fmt.Errorf("find diviner: %w", err)
	}
	if diviner == nil {
		return nil, ErrDivinerNotFound
	}
	span.SetAttributes(
		attribute.String("booking.service_id", service.ID.String()),
		attribute.String("booking.diviner_id", diviner.ID.String()),
	)

	// 3. Slot must fall inside availability and the horizon
	windows, err := s.repo.Availability.FindActiveByDiviner(ctx, diviner.ID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	start := req.ScheduledAt.In(s.loc)
	if err := resolver.CheckSlot(windows, start, service.Duration(), s.clock.Now(), s.horizonDays()); err != nil {
		s.metrics.InvalidSlots.Inc()
		s.log.Info("Booking slot refused",
			zap.String("diviner_id", diviner.ID.String()),
			zap.Time("scheduled_at", start),
			zap.String("reason", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrInvalidSlot, err)
	}
	end := start.Add(service.Duration())

	now := s.clock.Now()
	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClientID:        client.ID,
		DivinerID:       diviner.ID,
		ServiceID:       service.ID,
		ScheduledAt:     start,
		EndsAt:          end,
		DurationMinutes: service.DurationMinutes,
		PreQuestion:     req.PreQuestion,
		Status:          entity.BookingStatusPending,
	}

	// 4. Conflict check, pricing and insert in one serializable transaction
	err = s.repo.Tx.DoSerializable(ctx, func(ctx context.Context) error {
		held, err := s.repo.Booking.FindHoldingOverlap(ctx, diviner.ID, start, end, true)
		if err != nil {
			return err
		}
		if other, conflict := resolver.FindConflict(held, start, end); conflict {
			s.log.Info("Booking slot taken",
				zap.String("diviner_id", diviner.ID.String()),
				zap.String("conflicting_booking_id", other.ID.String()))
			return ErrSlotConflict
		}

		completed, err := s.repo.Booking.CountCompleted(ctx, client.ID, diviner.ID)
		if err != nil {
			return err
		}
		booking.TotalAmount = resolver.ResolvePrice(*service, completed)

		return s.repo.Booking.Create(ctx, booking)
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) || database.IsExclusionViolation(err) || database.IsSerializationFailure(err) {
			s.metrics.BookingConflicts.Inc()
			span.SetStatus(codes.Error, "slot conflict")
			return nil, ErrSlotConflict
		}
		s.log.Error("Failed to create booking", zap.Error(err), zap.String("client_id", client.ID.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create booking")
		return nil, fmt.Errorf("create booking: %w", err)
	}

	// 5. Record
	s.metrics.BookingsCreated.Inc()
	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("client_id", client.ID.String()),
		zap.String("diviner_id", diviner.ID.String()),
		zap.Int64("total_amount", booking.TotalAmount))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canAccess(ctx, userID, booking)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ListClientBookings(ctx context.Context, userID uuid.UUID, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	client, err := s.clientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, repository.BookingFilter{ClientID: &client.ID}, req)
}

func (s *bookingService) ListDivinerBookings(ctx context.Context, userID uuid.UUID, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	diviner, err := s.divinerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, repository.BookingFilter{DivinerID: &diviner.ID}, req)
}

func (s *bookingService) list(ctx context.Context, filter repository.BookingFilter, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	filter.Status = entity.BookingStatus(req.Status)
	filter.Limit = req.Limit()
	filter.Offset = req.Offset()

	bookings, total, err := s.repo.Booking.List(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, response.BookingToResponse(b))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

// CancelBooking lets the client drop a PENDING or CONFIRMED booking. The
// payment is released at the gateway in the same transaction as the slot.
func (s *bookingService) CancelBooking(ctx context.Context, userID uuid.UUID, bookingID string, req *request.CancelBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	client, err := s.clientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != client.ID {
		return nil, ErrForbidden
	}
	if !booking.Status.CanTransitionTo(entity.BookingStatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, entity.BookingStatusCancelled)
	}

	now := s.clock.Now()
	var paymentStatus entity.PaymentStatus
	err = s.repo.Tx.Do(ctx, func(ctx context.Context) error {
		payment, err := s.repo.Payment.FindByBookingIDForUpdate(ctx, booking.ID)
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		if payment != nil {
			paymentStatus = payment.Status
			if err := s.releasePayment(ctx, payment); err != nil {
				return err
			}
		}
		return s.repo.Booking.Cancel(ctx, booking.ID, req.Reason, now)
	})
	if err != nil {
		s.log.Error("Failed to cancel booking", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.metrics.BookingsCancelled.WithLabelValues("client").Inc()
	s.log.Info("Booking cancelled by client",
		zap.String("booking_id", booking.ID.String()),
		zap.String("payment_status", string(paymentStatus)))

	booking.Status = entity.BookingStatusCancelled
	if req.Reason != "" {
		booking.CancelReason = &req.Reason
	}
	booking.CancelledAt = &now
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// releasePayment settles the gateway side of a client cancel: a paid
// payment is refunded and an open intent is voided so it can no longer be paid.
func (s *bookingService) releasePayment(ctx context.Context, payment *entity.Payment) error {
	switch payment.Status {
	case entity.PaymentStatusSucceeded:
		if err := s.repo.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusRefunded); err != nil {
			return err
		}
		if payment.GatewayPaymentID != nil {
			if err := s.gateway.Refund(ctx, *payment.GatewayPaymentID); err != nil {
				return fmt.Errorf("refund payment: %w", err)
			}
		}
	case entity.PaymentStatusPending:
		if err := s.repo.Payment.UpdateStatus(ctx, payment.ID, entity.PaymentStatusFailed); err != nil {
			return err
		}
		if payment.GatewayPaymentID != nil {
			if err := s.gateway.CancelPayment(ctx, *payment.GatewayPaymentID); err != nil {
				return fmt.Errorf("cancel payment intent: %w", err)
			}
		}
	}
	return nil
}

// UpdateBookingStatus moves a diviner's booking through the session stages.
func (s *bookingService) UpdateBookingStatus(ctx context.Context, userID uuid.UUID, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	diviner, err := s.divinerFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.DivinerID != diviner.ID {
		return nil, ErrForbidden
	}

	next := entity.BookingStatus(req.Status)
	if !booking.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, next)
	}

	if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, next); err != nil {
		s.log.Error("Failed to update booking status", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	s.log.Info("Booking status updated",
		zap.String("booking_id", booking.ID.String()),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(next)))

	booking.Status = next
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// ListAvailableSlots lists the bookable starts of a service on one day.
func (s *bookingService) ListAvailableSlots(ctx context.Context, serviceID, date string) (*response.AvailableSlotsResponse, error) {
	id, err := parseID(serviceID, "service ID")
	if err != nil {
		return nil, err
	}
	day, err := utils.ParseDate(date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	service, err := s.activeService(ctx, id)
	if err != nil {
		return nil, err
	}
	windows, err := s.repo.Availability.FindActiveByDiviner(ctx, service.DivinerID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	held, err := s.repo.Booking.FindHoldingOverlap(ctx, service.DivinerID, day, day.AddDate(0, 0, 1), false)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	step := defaultSlotStep
	if s.config.Booking.SlotStepMinutes > 0 {
		step = time.Duration(s.config.Booking.SlotStepMinutes) * time.Minute
	}
	slots := resolver.GenerateSlots(windows, day, service.Duration(), step, s.clock.Now(), s.horizonDays(), held)

	out := make([]response.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, response.SlotResponse{Start: slot.Start, End: slot.End})
	}
	return &response.AvailableSlotsResponse{
		ServiceID:       service.ID.String(),
		Date:            day.Format(time.DateOnly),
		DurationMinutes: service.DurationMinutes,
		Slots:           out,
	}, nil
}

// QuotePrice shows the client what a booking would cost right now.
func (s *bookingService) QuotePrice(ctx context.Context, userID uuid.UUID, serviceID string) (*response.PriceQuoteResponse, error) {
	id, err := parseID(serviceID, "service ID")
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	service, err := s.activeService(ctx, id)
	if err != nil {
		return nil, err
	}

	completed, err := s.repo.Booking.CountCompleted(ctx, client.ID, service.DivinerID)
	if err != nil {
		return nil, fmt.Errorf("count completed bookings: %w", err)
	}
	price := resolver.ResolvePrice(*service, completed)
	fee, net := resolver.SplitPayment(price, s.config.Booking.PlatformFeeRate)

	return &response.PriceQuoteResponse{
		ServiceID:     service.ID.String(),
		StandardPrice: service.Price,
		Price:         price,
		FirstTime:     completed == 0 && price != service.Price,
		PlatformFee:   fee,
		DivinerNet:    net,
	}, nil
}

func (s *bookingService) clientFor(ctx context.Context, userID uuid.UUID) (*entity.Client, error) {
	client, err := s.repo.Client.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	return client, nil
}

func (s *bookingService) divinerFor(ctx context.Context, userID uuid.UUID) (*entity.Diviner, error) {
	diviner, err := s.repo.Diviner.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find diviner: %w", err)
	}
	if diviner == nil {
		return nil, ErrDivinerNotFound
	}
	return diviner, nil
}

func (s *bookingService) activeService(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	service, err := s.repo.Service.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find service: %w", err)
	}
	if service == nil || !service.IsActive {
		return nil, ErrServiceNotFound
	}
	return service, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := parseID(bookingID, "booking ID")
	if err != nil {
		return nil, err
	}
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) canAccess(ctx context.Context, userID uuid.UUID, booking *entity.Booking) (bool, error) {
	client, err := s.repo.Client.FindByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("find client: %w", err)
	}
	if client != nil && client.ID == booking.ClientID {
		return true, nil
	}
	diviner, err := s.repo.Diviner.FindByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("find diviner: %w", err)
	}
	return diviner != nil && diviner.ID == booking.DivinerID, nil
}
