package usecase

import (
	"context"
	"fmt"

	"diviner-booking/internal/data/entity"
	"diviner-booking/internal/data/repository"
	"diviner-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

// GetProfile returns the user with the ID of its role profile.
func (us *userService) GetProfile(ctx context.Context, id uuid.UUID) (*response.UserResponse, error) {
	user, err := us.repo.User.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	resp := response.UserToResponse(user)
	switch user.Role {
	case entity.RoleClient:
		client, err := us.repo.Client.FindByUserID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get client profile: %w", err)
		}
		if client != nil {
			clientID := client.ID.String()
			resp.ClientID = &clientID
		}
	case entity.RoleDiviner:
		diviner, err := us.repo.Diviner.FindByUserID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get diviner profile: %w", err)
		}
		if diviner != nil {
			divinerID := diviner.ID.String()
			resp.DivinerID = &divinerID
		}
	}

	return &resp, nil
}
