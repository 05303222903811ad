package repository

import (
	"context"
	"fmt"

	"diviner-booking/internal/data/entity"
	"diviner-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityRepository interface {
	FindActiveByDiviner(ctx context.Context, divinerID uuid.UUID) ([]entity.Availability, error)
	// ReplaceForDiviner must run inside a transaction.
	ReplaceForDiviner(ctx context.Context, divinerID uuid.UUID, windows []entity.Availability) error
}

type availabilityRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAvailabilityRepository(db database.Querier, log *zap.Logger) AvailabilityRepository {
	return &availabilityRepository{
		db:  db,
		log: log.With(zap.String("repository", "availability")),
	}
}

func (r *availabilityRepository) FindActiveByDiviner(ctx context.Context, divinerID uuid.UUID) ([]entity.Availability, error) {
	query := `
		SELECT id, diviner_id, day_of_week, start_minute, end_minute, is_active, created_at
		FROM availabilities
		WHERE diviner_id = $1 AND is_active
		ORDER BY day_of_week, start_minute
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, divinerID)
	if err != nil {
		r.log.Error("Failed to find availability", zap.Error(err), zap.String("diviner_id", divinerID.String()))
		return nil, fmt.Errorf("find availability for diviner %s: %w", divinerID, err)
	}
	defer rows.Close()

	var windows []entity.Availability
	for rows.Next() {
		var a entity.Availability
		if err := rows.Scan(&a.ID, &a.DivinerID, &a.DayOfWeek, &a.StartMinute, &a.EndMinute, &a.IsActive, &a.CreatedAt); err != nil {
			r.log.Error("Failed to scan availability row", zap.Error(err))
			return nil, fmt.Errorf("scan availability row: %w", err)
		}
		windows = append(windows, a)
	}

	return windows, rows.Err()
}

func (r *availabilityRepository) ReplaceForDiviner(ctx context.Context, divinerID uuid.UUID, windows []entity.Availability) error {
	conn := database.Conn(ctx, r.db)

	if _, err := conn.Exec(ctx, `DELETE FROM availabilities WHERE diviner_id = $1`, divinerID); err != nil {
		r.log.Error("Failed to clear availability", zap.Error(err), zap.String("diviner_id", divinerID.String()))
		return fmt.Errorf("clear availability for diviner %s: %w", divinerID, err)
	}
	if len(windows) == 0 {
		return nil
	}

	insert := psql.Insert("availabilities").
		Columns("id", "diviner_id", "day_of_week", "start_minute", "end_minute", "is_active", "created_at")
	for _, w := range windows {
		insert = insert.Values(w.ID, divinerID, int(w.DayOfWeek), w.StartMinute, w.EndMinute, w.IsActive, w.CreatedAt)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build availability insert: %w", err)
	}
	if _, err := conn.Exec(ctx, query, args...); err != nil {
		r.log.Error("Failed to insert availability", zap.Error(err), zap.String("diviner_id", divinerID.String()))
		return fmt.Errorf("insert availability for diviner %s: %w", divinerID, err)
	}

	return nil
}
