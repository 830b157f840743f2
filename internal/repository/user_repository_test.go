package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/persistence"
)

// newTestPool connects to POSTGRES_TEST_DSN and migrates it, or skips.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	if err := pool.Ping(ctx); err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

// createTestUser stores a user with a unique email and apartment and removes
// it when the test ends.
func createTestUser(t *testing.T, pool *pgxpool.Pool, repo UserRepository) *domain.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := newUser("T-"+suffix, "user-"+suffix+"@example.com", domain.RoleResident)
	require.NoError(t, repo.Create(context.Background(), user))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id=$1`, user.ID)
	})
	return user
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool, prefixHasher{})
	ctx := context.Background()

	user := createTestUser(t, pool, repo)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "hashed:secret123", user.PasswordHash)
	assert.Empty(t, user.PlainPassword)
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
	assert.Empty(t, byID.PasswordHash, "GetByID must not expose the hash")
	assert.Equal(t, domain.LanguageLatvian, byID.Language)

	byApartment, err := repo.GetByApartment(ctx, " "+user.Apartment+" ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byApartment.ID)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_UniqueConstraints(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool, prefixHasher{})
	ctx := context.Background()

	existing := createTestUser(t, pool, repo)
	suffix := uuid.NewString()[:8]

	sameEmail := newUser("T-"+suffix, existing.Email, domain.RoleResident)
	assert.ErrorIs(t, repo.Create(ctx, sameEmail), ErrDuplicateEmail)

	sameApartment := newUser(existing.Apartment, "other-"+suffix+"@example.com", domain.RoleResident)
	assert.ErrorIs(t, repo.Create(ctx, sameApartment), ErrDuplicateApartment)

	other := createTestUser(t, pool, repo)
	other.Email = existing.Email
	assert.ErrorIs(t, repo.Update(ctx, other), ErrDuplicateEmail)
}

func TestUserRepository_UpdateKeepsHashUnlessPasswordSet(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool, prefixHasher{})
	ctx := context.Background()

	user := createTestUser(t, pool, repo)

	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	loaded.Phone = "+37120000000"
	require.NoError(t, repo.Update(ctx, loaded))

	withHash, err := repo.GetByEmail(ctx, user.Email, false)
	require.NoError(t, err)
	assert.Equal(t, "+37120000000", withHash.Phone)
	assert.Equal(t, "hashed:secret123", withHash.PasswordHash)

	withHash.SetPassword("newsecret1")
	require.NoError(t, repo.Update(ctx, withHash))

	withHash, err = repo.GetByEmail(ctx, user.Email, false)
	require.NoError(t, err)
	assert.Equal(t, "hashed:newsecret1", withHash.PasswordHash)
}

func TestUserRepository_ActiveOnlyLookup(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool, prefixHasher{})
	ctx := context.Background()

	user := createTestUser(t, pool, repo)
	user.IsActive = false
	require.NoError(t, repo.Update(ctx, user))

	_, err := repo.GetByEmail(ctx, user.Email, true)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := repo.GetByEmail(ctx, user.Email, false)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestUserRepository_UnknownIDs(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool, prefixHasher{})
	ctx := context.Background()

	ghost := newUser("T-ghost", "ghost@example.com", domain.RoleResident)
	ghost.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Update(ctx, ghost), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, ghost.ID, ghost.CreatedAt), ErrNotFound)
}
