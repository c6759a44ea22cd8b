package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/config"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// ErrInvalidCredentials covers an unknown email, a wrong password and an
// unusable refresh token alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// AuthQueryService handles login and token refresh. There's no CommandService
// for auth because these operations don't mutate application state.
type AuthQueryService struct {
	users UserFinder
	jwt   config.JWT
	now   func() time.Time
}

func NewAuthQueryService(users UserFinder, jwtCfg config.JWT) *AuthQueryService {
	return &AuthQueryService{users: users, jwt: jwtCfg, now: time.Now}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*Token, error) {
	user, err := s.users.GetByEmail(ctx, cmd.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user.ID, user.Email)
}

// RefreshToken exchanges a valid, unexpired token for a fresh one, provided
// its subject is still registered.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*Token, error) {
	claims, err := middleware.ParseToken(s.jwt, cmd.Token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, claims.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user.ID, user.Email)
}

func (s *AuthQueryService) issue(userID int64, email string) (*Token, error) {
	signed, expiresAt, err := middleware.IssueToken(s.jwt, userID, email, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
