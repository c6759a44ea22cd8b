package query

import (
	"context"

	"github.com/eaglebank/ledger/api-service/internal/service"
	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
)

type UserQueryService struct {
	users *service.UserService
}

func NewUserQueryService(users *service.UserService) *UserQueryService {
	return &UserQueryService{users: users}
}

// GetUser returns the user only to themselves.
func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if user.Email != q.PrincipalEmail {
		return nil, apperr.Forbidden("Authenticated user does not have access to this user.")
	}
	return models.NewUserView(user), nil
}
