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

type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Client, error)
}

type clientRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewClientRepository(db database.Querier, log *zap.Logger) ClientRepository {
	return &clientRepository{
		db:  db,
		log: log.With(zap.String("repository", "client")),
	}
}

func (r *clientRepository) Create(ctx context.Context, client *entity.Client) error {
	query := `
		INSERT INTO clients (id, user_id, nickname, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		client.ID, client.UserID, client.Nickname, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create client", zap.Error(err), zap.String("user_id", client.UserID.String()))
		return fmt.Errorf("create client for user %s: %w", client.UserID, err)
	}

	return nil
}

func (r *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	return r.findOne(ctx, "id", id)
}

func (r *clientRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Client, error) {
	return r.findOne(ctx, "user_id", userID)
}

func (r *clientRepository) findOne(ctx context.Context, column string, value uuid.UUID) (*entity.Client, error) {
	query := `SELECT id, user_id, nickname, created_at, updated_at FROM clients WHERE ` + column + ` = $1`

	var c entity.Client
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, value).
		Scan(&c.ID, &c.UserID, &c.Nickname, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find client", zap.Error(err), zap.String(column, value.String()))
		return nil, fmt.Errorf("find client by %s %s: %w", column, value, err)
	}

	return &c, nil
}
