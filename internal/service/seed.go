package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/homemanager/auth-service/internal/config"
	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/repository"
)

// Seeder creates the bootstrap accounts.
type Seeder struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(users repository.UserRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, logger: logger}
}

// DefaultAccounts returns the superadmin and test resident described by cfg.
func DefaultAccounts(cfg config.SeedConfig) []domain.User {
	admin := domain.User{
		Apartment: "ADMIN",
		FirstName: "Super",
		LastName:  "Administrator",
		Email:     cfg.AdminEmail,
		Phone:     "+37120000000",
		Role:      domain.RoleSuperAdmin,
		Language:  domain.LanguageLatvian,
		IsActive:  true,
	}
	admin.SetPassword(cfg.AdminPassword)

	resident := domain.User{
		Apartment: "1A",
		FirstName: "Jānis",
		LastName:  "Bērziņš",
		Email:     cfg.ResidentEmail,
		Phone:     "+37120000001",
		Role:      domain.RoleResident,
		Language:  domain.LanguageLatvian,
		IsActive:  true,
	}
	resident.SetPassword(cfg.ResidentPassword)

	return []domain.User{admin, resident}
}

// Seed creates each account whose email is not yet registered and returns the
// number created. Existing accounts are left untouched.
func (s *Seeder) Seed(ctx context.Context, accounts []domain.User) (int, error) {
	created := 0
	for i := range accounts {
		account := accounts[i]
		_, err := s.users.GetByEmail(ctx, account.Email, false)
		if err == nil {
			s.logger.Debug("seed account exists", zap.String("email", account.Email))
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, fmt.Errorf("lookup %s: %w", account.Email, err)
		}
		if err := s.users.Create(ctx, &account); err != nil {
			return created, fmt.Errorf("create %s: %w", account.Email, err)
		}
		s.logger.Info("seeded account",
			zap.String("email", account.Email),
			zap.String("apartment", account.Apartment),
			zap.String("role", string(account.Role)))
		created++
	}
	return created, nil
}
