package repository

import (
	"context"
	"errors"
	"fmt"

	"diviner-booking/internal/data/entity"
	"diviner-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DivinerRepository interface {
	Create(ctx context.Context, diviner *entity.Diviner) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Diviner, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Diviner, error)
	UpdatePayoutAccount(ctx context.Context, id uuid.UUID, accountID string) error
	// LockForUpdate takes the diviner row lock for the current transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) error
	IncrementBookingCount(ctx context.Context, id uuid.UUID) error
	UpdateRating(ctx context.Context, id uuid.UUID, avg decimal.Decimal, count int) error
}

type divinerRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewDivinerRepository(db database.Querier, log *zap.Logger) DivinerRepository {
	return &divinerRepository{
		db:  db,
		log: log.With(zap.String("repository", "diviner")),
	}
}

func (r *divinerRepository) Create(ctx context.Context, d *entity.Diviner) error {
	query := `
		INSERT INTO diviners (id, user_id, display_name, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		d.ID, d.UserID, d.DisplayName, d.Bio, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create diviner", zap.Error(err), zap.String("user_id", d.UserID.String()))
		return fmt.Errorf("create diviner for user %s: %w", d.UserID, err)
	}

	return nil
}

func (r *divinerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Diviner, error) {
	return r.findOne(ctx, "id", id)
}

func (r *divinerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Diviner, error) {
	return r.findOne(ctx, "user_id", userID)
}

func (r *divinerRepository) findOne(ctx context.Context, column string, value uuid.UUID) (*entity.Diviner, error) {
	query := `
		SELECT id, user_id, display_name, bio, payout_account_id,
		       rating_avg, review_count, booking_count, created_at, updated_at
		FROM diviners
		WHERE ` + column + ` = $1
	`

	var d entity.Diviner
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, value).Scan(
		&d.ID,
		&d.UserID,
		&d.DisplayName,
		&d.Bio,
		&d.PayoutAccountID,
		&d.RatingAvg,
		&d.ReviewCount,
		&d.BookingCount,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find diviner", zap.Error(err), zap.String(column, value.String()))
		return nil, fmt.Errorf("find diviner by %s %s: %w", column, value, err)
	}

	return &d, nil
}

func (r *divinerRepository) UpdatePayoutAccount(ctx context.Context, id uuid.UUID, accountID string) error {
	query := `UPDATE diviners SET payout_account_id = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update payout account", id, query, id, accountID)
}

func (r *divinerRepository) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT id FROM diviners WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("diviner %s not found", id)
	}
	if err != nil {
		r.log.Error("Failed to lock diviner", zap.Error(err), zap.String("diviner_id", id.String()))
		return fmt.Errorf("lock diviner %s: %w", id, err)
	}
	return nil
}

func (r *divinerRepository) IncrementBookingCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE diviners SET booking_count = booking_count + 1, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "increment booking count", id, query, id)
}

func (r *divinerRepository) UpdateRating(ctx context.Context, id uuid.UUID, avg decimal.Decimal, count int) error {
	query := `UPDATE diviners SET rating_avg = $2, review_count = $3, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update rating", id, query, id, avg.StringFixed(2), count)
}

func (r *divinerRepository) execOne(ctx context.Context, op string, id uuid.UUID, query string, args ...any) error {
	result, err := database.Conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op, zap.Error(err), zap.String("diviner_id", id.String()))
		return fmt.Errorf("%s for diviner %s: %w", op, id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("diviner %s not found", id)
	}
	return nil
}
