package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/homemanager/auth-service/internal/domain"
)

// MemoryUserRepository keeps users in process memory. It is used when no
// Postgres DSN is configured and in tests.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	hasher PasswordHasher
	now    func() time.Time
}

// NewMemoryUserRepository returns an empty in-memory store.
func NewMemoryUserRepository(hasher PasswordHasher) *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[string]*domain.User),
		hasher: hasher,
		now:    time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	if err := applyPendingPassword(r.hasher, user); err != nil {
		return err
	}
	prepareForSave(user)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUniqueLocked(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	passwordChanged := user.PlainPassword != ""
	if err := applyPendingPassword(r.hasher, user); err != nil {
		return err
	}
	prepareForSave(user)

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.checkUniqueLocked(user); err != nil {
		return err
	}
	updated := cloneUser(user)
	if !passwordChanged {
		updated.PasswordHash = stored.PasswordHash
	}
	updated.CreatedAt = stored.CreatedAt
	updated.LastLogin = stored.LastLogin
	updated.UpdatedAt = r.now()
	user.UpdatedAt = updated.UpdatedAt
	r.users[user.ID] = updated
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	public := cloneUser(user).WithoutPassword()
	return &public, nil
}

func (r *MemoryUserRepository) GetByApartment(_ context.Context, apartment string) (*domain.User, error) {
	apartment = strings.TrimSpace(apartment)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Apartment == apartment {
			public := cloneUser(user).WithoutPassword()
			return &public, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string, activeOnly bool) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email != email {
			continue
		}
		if activeOnly && !user.IsActive {
			return nil, ErrNotFound
		}
		return cloneUser(user), nil
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLogin = &at
	user.UpdatedAt = r.now()
	return nil
}

func (r *MemoryUserRepository) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	matched := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.IsActive != *filter.Active {
			continue
		}
		matched = append(matched, cloneUser(user).WithoutPassword())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Apartment < matched[j].Apartment })

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *MemoryUserRepository) checkUniqueLocked(user *domain.User) error {
	for id, existing := range r.users {
		if id != user.ID && existing.Apartment == user.Apartment {
			return ErrDuplicateApartment
		}
	}
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	return nil
}

func cloneUser(user *domain.User) *domain.User {
	c := *user
	c.PlainPassword = ""
	if user.LastLogin != nil {
		t := *user.LastLogin
		c.LastLogin = &t
	}
	c.ParkingSpaces = append([]string(nil), user.ParkingSpaces...)
	c.Contacts = append([]domain.Contact(nil), user.Contacts...)
	return &c
}
