package usecase

import (
	"context"
	"fmt"
	"time"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/dto/response"
	"diviner-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DivinerService interface {
	GetDiviner(ctx context.Context, divinerID string) (*response.DivinerResponse, error)
	ReplaceAvailability(ctx context.Context, userID uuid.UUID, req *request.ReplaceAvailabilityRequest) ([]response.AvailabilityResponse, error)
	CreateService(ctx context.Context, userID uuid.UUID, req *request.CreateServiceRequest) (*response.ServiceResponse, error)
	UpdateService(ctx context.Context, userID uuid.UUID, serviceID string, req *request.UpdateServiceRequest) (*response.ServiceResponse, error)
}

type divinerService struct {
	repo  *repository.Repository
	clock Clock
	log   *zap.Logger
}

func NewDivinerService(repo *repository.Repository, clock Clock, log *zap.Logger) DivinerService {
	return &divinerService{
		repo:  repo,
		clock: clock,
		log:   log.With(zap.String("service", "diviner")),
	}
}

// GetDiviner returns the public profile with active services and weekly windows.
func (s *divinerService) GetDiviner(ctx context.Context, divinerID string) (*response.DivinerResponse, error) {
	id, err := parseID(divinerID, "diviner ID")
	if err != nil {
		return nil, err
	}

	diviner, err := s.repo.Diviner.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find diviner: %w", err)
	}
	if diviner == nil {
		return nil, ErrDivinerNotFound
	}

	services, err := s.repo.Service.FindActiveByDiviner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	windows, err := s.repo.Availability.FindActiveByDiviner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	resp := response.DivinerToResponse(diviner, services, windows)
	return &resp, nil
}

// ReplaceAvailability swaps the diviner's weekly schedule for the given windows.
func (s *divinerService) ReplaceAvailability(ctx context.Context, userID uuid.UUID, req *request.ReplaceAvailabilityRequest) ([]response.AvailabilityResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Availability validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}
	diviner, err := s.ownDiviner(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	windows := make([]entity.Availability, 0, len(req.Windows))
	for i, w := range req.Windows {
		start, err := utils.ParseClock(w.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: window %d start_time: %v", ErrValidation, i, err)
		}
		end, err := utils.ParseClock(w.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: window %d end_time: %v", ErrValidation, i, err)
		}
		window := entity.Availability{
			BaseSimple:  entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			DivinerID:   diviner.ID,
			DayOfWeek:   time.Weekday(w.DayOfWeek),
			StartMinute: start,
			EndMinute:   end,
			IsActive:    true,
		}
		if !window.Valid() {
			return nil, fmt.Errorf("%w: window %d must satisfy 00:00 <= start < end <= 24:00", ErrValidation, i)
		}
		windows = append(windows, window)
	}

	err = s.repo.Tx.Do(ctx, func(ctx context.Context) error {
		return s.repo.Availability.ReplaceForDiviner(ctx, diviner.ID, windows)
	})
	if err != nil {
		s.log.Error("Failed to replace availability", zap.Error(err), zap.String("diviner_id", diviner.ID.String()))
		return nil, fmt.Errorf("replace availability: %w", err)
	}

	s.log.Info("Availability replaced",
		zap.String("diviner_id", diviner.ID.String()),
		zap.Int("windows", len(windows)))
	return response.AvailabilityToResponse(windows), nil
}

func (s *divinerService) CreateService(ctx context.Context, userID uuid.UUID, req *request.CreateServiceRequest) (*response.ServiceResponse, error) {
	if err := validateService(req); err != nil {
		s.log.Warn("Create service validation failed", zap.Error(err))
		return nil, err
	}
	diviner, err := s.ownDiviner(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	service := &entity.Service{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DivinerID: diviner.ID,
		IsActive:  true,
	}
	applyServiceRequest(service, req)

	if err := s.repo.Service.Create(ctx, service); err != nil {
		s.log.Error("Failed to create service", zap.Error(err), zap.String("diviner_id", diviner.ID.String()))
		return nil, fmt.Errorf("create service: %w", err)
	}

	s.log.Info("Service created",
		zap.String("service_id", service.ID.String()),
		zap.String("diviner_id", diviner.ID.String()))

	resp := response.ServiceToResponse(service)
	return &resp, nil
}

func (s *divinerService) UpdateService(ctx context.Context, userID uuid.UUID, serviceID string, req *request.UpdateServiceRequest) (*response.ServiceResponse, error) {
	id, err := parseID(serviceID, "service ID")
	if err != nil {
		return nil, err
	}
	if err := validateService(&req.CreateServiceRequest); err != nil {
		s.log.Warn("Update service validation failed", zap.Error(err))
		return nil, err
	}
	diviner, err := s.ownDiviner(ctx, userID)
	if err != nil {
		return nil, err
	}

	service, err := s.repo.Service.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find service: %w", err)
	}
	if service == nil {
		return nil, ErrServiceNotFound
	}
	if service.DivinerID != diviner.ID {
		return nil, ErrForbidden
	}

	applyServiceRequest(service, &req.CreateServiceRequest)
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	service.UpdatedAt = s.clock.Now()

	if err := s.repo.Service.Update(ctx, service); err != nil {
		s.log.Error("Failed to update service", zap.Error(err), zap.String("service_id", service.ID.String()))
		return nil, fmt.Errorf("update service: %w", err)
	}

	s.log.Info("Service updated", zap.String("service_id", service.ID.String()))

	resp := response.ServiceToResponse(service)
	return &resp, nil
}

func (s *divinerService) ownDiviner(ctx context.Context, userID uuid.UUID) (*entity.Diviner, error) {
	diviner, err := s.repo.Diviner.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find diviner: %w", err)
	}
	if diviner == nil {
		return nil, ErrDivinerNotFound
	}
	return diviner, nil
}

func validateService(req *request.CreateServiceRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs)
	}
	if req.FirstTimePrice != nil && *req.FirstTimePrice > req.Price {
		return fmt.Errorf("%w: first_time_price must not exceed price", ErrValidation)
	}
	return nil
}

func applyServiceRequest(service *entity.Service, req *request.CreateServiceRequest) {
	service.Title = req.Title
	service.Description = req.Description
	service.ConsultationType = entity.ConsultationType(req.ConsultationType)
	service.DurationMinutes = req.DurationMinutes
	service.Price = req.Price
	service.FirstTimePrice = req.FirstTimePrice
}
