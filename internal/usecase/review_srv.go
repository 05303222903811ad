package usecase

import (
	"context"
	"fmt"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/dto/request"
	"diviner-booking/internal/dto/response"
	"diviner-booking/internal/resolver"
	"diviner-booking/pkg/database"
	"diviner-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	ListDivinerReviews(ctx context.Context, divinerID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
}

type reviewService struct {
	repo  *repository.Repository
	clock Clock
	log   *zap.Logger
}

func NewReviewService(repo *repository.Repository, clock Clock, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:  repo,
		clock: clock,
		log:   log.With(zap.String("service", "review")),
	}
}

// CreateReview stores the client's review of a completed session and
// refreshes the diviner's rating.
func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}
	bookingID, err := parseID(req.BookingID, "booking ID")
	if err != nil {
		return nil, err
	}

	client, err := s.repo.Client.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	// Only the client of a completed booking may review it, once
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
	if booking.Status != entity.BookingStatusCompleted {
		return nil, ErrReviewNotAllowed
	}

	exists, err := s.repo.Review.ExistsForBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	review := &entity.Review{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.clock.Now(),
		},
		BookingID: booking.ID,
		ClientID:  client.ID,
		DivinerID: booking.DivinerID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		IsVisible: true,
	}

	// the diviner row lock serializes rating recomputes for the same diviner
	err = s.repo.Tx.Do(ctx, func(ctx context.Context) error {
		if err := s.repo.Diviner.LockForUpdate(ctx, booking.DivinerID); err != nil {
			return err
		}
		if err := s.repo.Review.Create(ctx, review); err != nil {
			return err
		}
		return s.updateDivinerRating(ctx, booking.DivinerID)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyReviewed
		}
		s.log.Error("Failed to create review", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("diviner_id", review.DivinerID.String()),
		zap.Int("rating", review.Rating))

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) ListDivinerReviews(ctx context.Context, divinerID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	id, err := parseID(divinerID, "diviner ID")
	if err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	reviews, total, err := s.repo.Review.ListVisibleByDiviner(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list reviews", zap.Error(err), zap.String("diviner_id", divinerID))
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	data := make([]response.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		data = append(data, response.ReviewToResponse(r))
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *reviewService) updateDivinerRating(ctx context.Context, divinerID uuid.UUID) error {
	ratings, err := s.repo.Review.VisibleRatings(ctx, divinerID)
	if err != nil {
		return err
	}
	return s.repo.Diviner.UpdateRating(ctx, divinerID, resolver.AverageRating(ratings), len(ratings))
}
