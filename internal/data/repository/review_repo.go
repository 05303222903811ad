package repository

import (
	"context"
	"fmt"

	"diviner-booking/internal/data/entity"
	"diviner-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	ListVisibleByDiviner(ctx context.Context, divinerID uuid.UUID, limit, offset int) ([]*entity.Review, int64, error)
	VisibleRatings(ctx context.Context, divinerID uuid.UUID) ([]int, error)
}

type reviewRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReviewRepository(db database.Querier, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, booking_id, client_id, diviner_id, rating, comment, is_visible, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		review.ID,
		review.BookingID,
		review.ClientID,
		review.DivinerID,
		review.Rating,
		review.Comment,
		review.IsVisible,
		review.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("booking_id", review.BookingID.String()),
		)
		return fmt.Errorf("create review for booking %s: %w", review.BookingID, err)
	}

	return nil
}

func (r *reviewRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := database.Conn(ctx, r.db).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1)`, bookingID).
		Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check review", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return false, fmt.Errorf("check review for booking %s: %w", bookingID, err)
	}
	return exists, nil
}

func (r *reviewRepository) ListVisibleByDiviner(ctx context.Context, divinerID uuid.UUID, limit, offset int) ([]*entity.Review, int64, error) {
	conn := database.Conn(ctx, r.db)

	var total int64
	err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE diviner_id = $1 AND is_visible`, divinerID).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count reviews", zap.Error(err), zap.String("diviner_id", divinerID.String()))
		return nil, 0, fmt.Errorf("count reviews for diviner %s: %w", divinerID, err)
	}

	query := `
		SELECT id, booking_id, client_id, diviner_id, rating, comment, is_visible, created_at
		FROM reviews
		WHERE diviner_id = $1 AND is_visible
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := conn.Query(ctx, query, divinerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list reviews",
			zap.Error(err),
			zap.String("diviner_id", divinerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, 0, fmt.Errorf("list reviews for diviner %s: %w", divinerID, err)
	}
	defer rows.Close()

	var reviews []*entity.Review
	for rows.Next() {
		var rv entity.Review
		if err := rows.Scan(&rv.ID, &rv.BookingID, &rv.ClientID, &rv.DivinerID, &rv.Rating,
			&rv.Comment, &rv.IsVisible, &rv.CreatedAt); err != nil {
			r.log.Error("Failed to scan review row", zap.Error(err))
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, &rv)
	}

	return reviews, total, rows.Err()
}

func (r *reviewRepository) VisibleRatings(ctx context.Context, divinerID uuid.UUID) ([]int, error) {
	rows, err := database.Conn(ctx, r.db).
		Query(ctx, `SELECT rating FROM reviews WHERE diviner_id = $1 AND is_visible`, divinerID)
	if err != nil {
		r.log.Error("Failed to load ratings", zap.Error(err), zap.String("diviner_id", divinerID.String()))
		return nil, fmt.Errorf("load ratings for diviner %s: %w", divinerID, err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	return ratings, rows.Err()
}
