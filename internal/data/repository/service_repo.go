package repository

import (
	"context"
	"errors"
	"fmt"

	"diviner-booking/internal/data/entity"
	"diviner-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) error
	Update(ctx context.Context, service *entity.Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	FindActiveByDiviner(ctx context.Context, divinerID uuid.UUID) ([]*entity.Service, error)
}

type serviceRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewServiceRepository(db database.Querier, log *zap.Logger) ServiceRepository {
	return &serviceRepository{
		db:  db,
		log: log.With(zap.String("repository", "service")),
	}
}

const serviceColumns = `id, diviner_id, title, description, consultation_type, duration_minutes,
	price, first_time_price, is_active, created_at, updated_at`

func scanService(row pgx.Row) (*entity.Service, error) {
	var s entity.Service
	err := row.Scan(&s.ID, &s.DivinerID, &s.Title, &s.Description, &s.ConsultationType,
		&s.DurationMinutes, &s.Price, &s.FirstTimePrice, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepository) Create(ctx context.Context, s *entity.Service) error {
	query := `
		INSERT INTO services (` + serviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		s.ID, s.DivinerID, s.Title, s.Description, s.ConsultationType, s.DurationMinutes,
		s.Price, s.FirstTimePrice, s.IsActive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create service", zap.Error(err), zap.String("diviner_id", s.DivinerID.String()))
		return fmt.Errorf("create service %s: %w", s.Title, err)
	}

	return nil
}

func (r *serviceRepository) Update(ctx context.Context, s *entity.Service) error {
	query := `
		UPDATE services
		SET title = $2, description = $3, consultation_type = $4, duration_minutes = $5,
		    price = $6, first_time_price = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		s.ID, s.Title, s.Description, s.ConsultationType, s.DurationMinutes,
		s.Price, s.FirstTimePrice, s.IsActive, s.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to update service", zap.Error(err), zap.String("service_id", s.ID.String()))
		return fmt.Errorf("update service %s: %w", s.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("service %s not found", s.ID)
	}

	return nil
}

func (r *serviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	s, err := scanService(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service by ID", zap.Error(err), zap.String("service_id", id.String()))
		return nil, fmt.Errorf("find service by ID %s: %w", id, err)
	}

	return s, nil
}

func (r *serviceRepository) FindActiveByDiviner(ctx context.Context, divinerID uuid.UUID) ([]*entity.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE diviner_id = $1 AND is_active ORDER BY price`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, divinerID)
	if err != nil {
		r.log.Error("Failed to find services", zap.Error(err), zap.String("diviner_id", divinerID.String()))
		return nil, fmt.Errorf("find services for diviner %s: %w", divinerID, err)
	}
	defer rows.Close()

	var services []*entity.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			r.log.Error("Failed to scan service row", zap.Error(err))
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, s)
	}

	return services, rows.Err()
}
