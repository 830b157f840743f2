package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/homemanager/auth-service/internal/auth"
	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/events"
	"github.com/homemanager/auth-service/internal/repository"
)

// Admin management errors.
var (
	ErrSelfModification = errors.New("cannot change own status or role")
	ErrOutranked        = errors.New("target account outranks actor")
	ErrInvalidRole      = errors.New("unknown role")
)

// UserService manages accounts on behalf of administrators.
type UserService struct {
	users      repository.UserRepository
	throttle   auth.LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, throttle auth.LoginThrottle, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, throttle: throttle, dispatcher: dispatcher, logger: logger}
}

// List returns accounts matching filter.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	return s.users.List(ctx, filter)
}

// GetByApartment returns the resident registered for apartment.
func (s *UserService) GetByApartment(ctx context.Context, apartment string) (*domain.User, error) {
	return s.users.GetByApartment(ctx, apartment)
}

// SetActive enables or soft-disables an account. Tokens already issued stay
// valid until the gate's next lookup sees the inactive flag.
func (s *UserService) SetActive(ctx context.Context, actor *domain.User, userID string, active bool) (*domain.User, error) {
	target, err := s.loadTarget(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if target.IsActive == active {
		return target, nil
	}

	old := target.IsActive
	target.IsActive = active
	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventUserStatusChanged, target.ID, actorOf(actor),
		events.UserStatusChangedPayload{OldActive: old, NewActive: active}))
	return target, nil
}

// SetRole changes an account's role.
func (s *UserService) SetRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	target, err := s.loadTarget(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == role {
		return target, nil
	}

	old := target.Role
	target.Role = role
	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventUserRoleChanged, target.ID, actorOf(actor),
		events.UserRoleChangedPayload{OldRole: old, NewRole: role}))
	return target, nil
}

// ResetLoginAttempts clears the throttle counter for email.
func (s *UserService) ResetLoginAttempts(ctx context.Context, email string) error {
	if s.throttle == nil {
		return nil
	}
	return s.throttle.Reset(ctx, email)
}

func (s *UserService) loadTarget(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if actor != nil && actor.ID == userID {
		return nil, ErrSelfModification
	}
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil || (target.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin) {
		return nil, ErrOutranked
	}
	return target, nil
}
