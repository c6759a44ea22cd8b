package command

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/eaglebank/ledger/api-service/internal/service"
	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// UserCommandService registers users.
type UserCommandService struct {
	users     *service.UserService
	publisher EventPublisher
}

func NewUserCommandService(users *service.UserService, publisher EventPublisher) *UserCommandService {
	return &UserCommandService{users: users, publisher: publisher}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	if strings.TrimSpace(cmd.Email) == "" {
		return nil, apperr.InvalidArgument("email must not be blank")
	}
	if cmd.Password == "" {
		return nil, apperr.InvalidArgument("password must not be blank")
	}

	existing, err := s.users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("User with email %s already exists", cmd.Email)
	}

	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.users.Save(ctx, &models.User{
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  cmd.PhoneNumber,
		Address:      cmd.Address,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}); err != nil {
		log.Printf("Failed to publish user.created event: %v", err)
	}
	return user, nil
}
