package service

import (
	"context"

	"github.com/eaglebank/ledger/shared/models"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// FindByEmail returns (nil, nil) when no user is registered with email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *UserService) Save(ctx context.Context, user *models.User) (*models.User, error) {
	return s.repo.Save(ctx, user)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}
