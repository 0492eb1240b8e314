package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rcamargo/postwing/internal/models"
	"github.com/rcamargo/postwing/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	ur repository.UserRepository
}

func NewUserService(ur repository.UserRepository) UserService {
	return &userService{
		ur: ur,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.ur.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user == nil {
		err = errors.New("user not found")
		slog.Info(err.Error())
		return nil, err
	}

	return user, nil
}
