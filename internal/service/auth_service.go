package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/homemanager/auth-service/internal/auth"
	"github.com/homemanager/auth-service/internal/config"
	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/events"
	"github.com/homemanager/auth-service/internal/repository"
)

// Service errors.
var (
	// ErrInvalidCredentials is deliberately the same for an unknown email and
	// a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrRoleNotAssignable  = errors.New("role cannot be assigned")
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Apartment string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      domain.Role
	Language  domain.Language
}

// ProfileUpdate holds the self-service profile fields; nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Language  *domain.Language
}

// AuthService coordinates login, registration and self-service flows.
type AuthService struct {
	users      repository.UserRepository
	throttle   auth.LoginThrottle
	tokenMgr   *auth.TokenManager
	hasher     *auth.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service. Tokens and
// Hasher default to values built from config.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Throttle   auth.LoginThrottle
	Tokens     *auth.TokenManager
	Hasher     *auth.Hasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.UserRepo,
		throttle:   deps.Throttle,
		tokenMgr:   deps.Tokens,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
	if s.tokenMgr == nil {
		s.tokenMgr = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	}
	if s.hasher == nil {
		s.hasher = auth.NewHasher(cfg.Auth.BcryptCost)
	}
	if s.throttle == nil {
		s.throttle = auth.NewMemoryThrottle(cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow(), cfg.Auth.ThrottleSweepInterval())
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Login authenticates by email and password. The throttle is consulted before
// any lookup, so attempts against unknown emails are limited too.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	email = domain.NormalizeEmail(email)

	if err := s.RecordAttempt(ctx, email); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByEmail(ctx, email, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.publish(ctx, events.NewEvent(events.EventLoginRejected, "", events.Actor{},
				events.LoginPayload{Email: email, Reason: "unknown_or_inactive"}))
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.publish(ctx, events.NewEvent(events.EventLoginRejected, user.ID, events.Actor{},
			events.LoginPayload{Email: email, Reason: "wrong_password"}))
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	session, err := s.issue(user.ID, now)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserLoggedIn, user.ID, actorOf(user), events.LoginPayload{Email: email}))

	public := user.WithoutPassword()
	return &public, session, nil
}

// RecordAttempt counts a login attempt for email without checking
// credentials. Login calls it first; the HTTP layer calls it directly for
// requests that fail validation so they still count toward the limit.
func (s *AuthService) RecordAttempt(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := s.throttle.CheckAndRecord(ctx, email); err != nil {
		if errors.Is(err, auth.ErrRateLimited) {
			s.publish(ctx, events.NewEvent(events.EventLoginThrottled, "", events.Actor{}, events.LoginPayload{Email: email}))
		}
		return err
	}
	return nil
}

// Register creates an account on behalf of an administrator. Only resident and
// admin roles can be granted here; superadmins come from seeding or a role change.
func (s *AuthService) Register(ctx context.Context, actor *domain.User, in RegisterInput) (*domain.User, *domain.Session, error) {
	if in.Role == "" {
		in.Role = domain.RoleResident
	}
	if in.Role != domain.RoleResident && in.Role != domain.RoleAdmin {
		return nil, nil, ErrRoleNotAssignable
	}
	if in.Language == "" {
		in.Language = domain.LanguageLatvian
	}

	apartment := strings.TrimSpace(in.Apartment)
	if _, err := s.users.GetByApartment(ctx, apartment); err == nil {
		return nil, nil, repository.ErrDuplicateApartment
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check apartment: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email, false); err == nil {
		return nil, nil, repository.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	user := &domain.User{
		Apartment: apartment,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		Role:      in.Role,
		Language:  in.Language,
		IsActive:  true,
	}
	user.SetPassword(in.Password)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.issue(user.ID, s.now())
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, actorOf(actor), events.UserRegisteredPayload{
		Apartment: user.Apartment,
		Email:     user.Email,
		Role:      user.Role,
	}))

	public := user.WithoutPassword()
	return &public, session, nil
}

// Me returns the current user without credentials.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies self-service changes.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) != "" {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil && strings.TrimSpace(*upd.LastName) != "" {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil && strings.TrimSpace(*upd.Phone) != "" {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Language != nil && upd.Language.Valid() {
		user.Language = *upd.Language
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	public := user.WithoutPassword()
	return &public, nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	withHash, err := s.users.GetByEmail(ctx, user.Email, false)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, withHash.PasswordHash) {
		return ErrIncorrectPassword
	}

	withHash.SetPassword(newPassword)
	if err := s.users.Update(ctx, withHash); err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, user.ID, actorOf(user), nil))
	return nil
}

// Logout is a no-op; tokens are stateless and discarded by the client.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Hasher exposes the password hasher shared with the credential store.
func (s *AuthService) Hasher() *auth.Hasher {
	return s.hasher
}

func (s *AuthService) issue(userID string, issuedAt time.Time) (*domain.Session, error) {
	token, exp, err := s.tokenMgr.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.Session{UserID: userID, Token: token, IssuedAt: issuedAt, ExpiresAt: exp}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	id := user.ID
	return events.Actor{UserID: &id, Role: user.Role}
}
