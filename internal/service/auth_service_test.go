package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/homemanager/auth-service/internal/auth"
	"github.com/homemanager/auth-service/internal/config"
	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/events"
	"github.com/homemanager/auth-service/internal/repository"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	cfg      config.Config
	users    *repository.MemoryUserRepository
	throttle *auth.MemoryThrottle
	auth     *AuthService
	userSvc  *UserService
	recorded *recordedEvents
	admin    *domain.User
	resident *domain.User
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret",
			TokenTTLHours:      7 * 24,
			BcryptCost:         bcrypt.MinCost,
			LoginMaxAttempts:   5,
			LoginWindowMinutes: 15,
		},
		Seed: config.SeedConfig{
			AdminEmail:       "admin@homemanager.com",
			AdminPassword:    "admin123",
			ResidentEmail:    "janis@example.com",
			ResidentPassword: "resident123",
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	users := repository.NewMemoryUserRepository(hasher)
	throttle := auth.NewMemoryThrottle(cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow(), 0)

	recorded := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventUserLoggedIn, events.EventLoginRejected, events.EventLoginThrottled,
		events.EventUserRegistered, events.EventPasswordChanged,
		events.EventUserStatusChanged, events.EventUserRoleChanged,
	} {
		dispatcher.Subscribe(et, recorded.handle)
	}

	created, err := NewSeeder(users, nil).Seed(ctx, DefaultAccounts(cfg.Seed))
	require.NoError(t, err)
	require.Equal(t, 2, created)

	admin, err := users.GetByEmail(ctx, cfg.Seed.AdminEmail, false)
	require.NoError(t, err)
	resident, err := users.GetByEmail(ctx, cfg.Seed.ResidentEmail, false)
	require.NoError(t, err)

	return &fixture{
		cfg:      cfg,
		users:    users,
		throttle: throttle,
		auth: NewAuthService(cfg, AuthDependencies{
			UserRepo:   users,
			Throttle:   throttle,
			Hasher:     hasher,
			Dispatcher: dispatcher,
		}),
		userSvc:  NewUserService(users, throttle, dispatcher, nil),
		recorded: recorded,
		admin:    admin,
		resident: resident,
	}
}

func TestAuthService_LoginSuccess(t *testing.T) {
	f := newFixture(t)

	user, session, err := f.auth.Login(context.Background(), "admin@homemanager.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, user.Role)
	assert.Equal(t, "ADMIN", user.Apartment)
	assert.Empty(t, user.PasswordHash)
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, session.IssuedAt.Add(7*24*time.Hour), session.ExpiresAt, time.Second)

	claims, err := f.auth.TokenManager().Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	assert.Contains(t, f.recorded.types(), events.EventUserLoggedIn)
}

func TestAuthService_LoginEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.Login(context.Background(), "  JANIS@Example.com ", "resident123")
	assert.NoError(t, err)
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, session, err := f.auth.Login(ctx, "janis@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, session)

	_, _, unknownErr := f.auth.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.Equal(t, err.Error(), unknownErr.Error(), "unknown email and wrong password must be indistinguishable")

	assert.Contains(t, f.recorded.types(), events.EventLoginRejected)
}

func TestAuthService_LoginInactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.userSvc.SetActive(ctx, f.admin, f.resident.ID, false)
	require.NoError(t, err)

	_, _, err = f.auth.Login(ctx, "janis@example.com", "resident123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginThrottled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := f.auth.Login(ctx, "janis@example.com", "wrongpass")
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i+1)
	}

	_, session, err := f.auth.Login(ctx, "janis@example.com", "resident123")
	require.ErrorIs(t, err, auth.ErrRateLimited, "correct password is still throttled")
	assert.Nil(t, session)
	assert.Contains(t, f.recorded.types(), events.EventLoginThrottled)

	_, _, err = f.auth.Login(ctx, "admin@homemanager.com", "admin123")
	assert.NoError(t, err, "other identifiers are unaffected")

	require.NoError(t, f.userSvc.ResetLoginAttempts(ctx, "janis@example.com"))
	_, _, err = f.auth.Login(ctx, "janis@example.com", "resident123")
	assert.NoError(t, err)
}

type unreachableUsers struct {
	repository.UserRepository
}

func (unreachableUsers) GetByEmail(context.Context, string, bool) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func TestAuthService_LoginStoreFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.cfg, AuthDependencies{
		UserRepo: unreachableUsers{UserRepository: f.users},
		Throttle: f.throttle,
	})

	_, session, err := svc.Login(context.Background(), "janis@example.com", "resident123")
	require.Error(t, err)
	assert.Nil(t, session)
	assert.NotErrorIs(t, err, ErrInvalidCredentials, "store faults must not look like bad credentials")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAuthService_RecordAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.auth.RecordAttempt(ctx, "Janis@Example.com"), "attempt %d", i+1)
	}

	err := f.auth.RecordAttempt(ctx, "janis@example.com")
	assert.ErrorIs(t, err, auth.ErrRateLimited)
	assert.Contains(t, f.recorded.types(), events.EventLoginThrottled)

	_, _, err = f.auth.Login(ctx, "janis@example.com", "resident123")
	assert.ErrorIs(t, err, auth.ErrRateLimited, "recorded attempts share the login budget")
}

func TestNewAuthService_DefaultThrottleSweeps(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.ThrottleSweepSeconds = 30

	svc := NewAuthService(cfg, AuthDependencies{UserRepo: repository.NewMemoryUserRepository(nil)})
	throttle, ok := svc.throttle.(*auth.MemoryThrottle)
	require.True(t, ok)
	t.Cleanup(throttle.Close)

	assert.Equal(t, 30*time.Second, throttle.SweepInterval())
}

func TestAuthService_SuccessfulLoginsCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := f.auth.Login(ctx, "janis@example.com", "resident123")
		require.NoError(t, err)
	}
	_, _, err := f.auth.Login(ctx, "janis@example.com", "resident123")
	assert.ErrorIs(t, err, auth.ErrRateLimited)
}

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, session, err := f.auth.Register(ctx, f.admin, RegisterInput{
		Apartment: "2B",
		FirstName: "Anna",
		LastName:  "Kalniņa",
		Email:     "Anna@Example.com",
		Phone:     "+37120000002",
		Password:  "anna123",
		Role:      domain.RoleResident,
		Language:  domain.LanguageEnglish,
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, session.Token)
	assert.Contains(t, f.recorded.types(), events.EventUserRegistered)

	_, _, err = f.auth.Login(ctx, "anna@example.com", "anna123")
	assert.NoError(t, err)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := RegisterInput{
		FirstName: "Anna",
		LastName:  "Kalniņa",
		Phone:     "+37120000002",
		Password:  "anna123",
	}

	dupApartment := base
	dupApartment.Apartment = "1A"
	dupApartment.Email = "anna@example.com"
	_, _, err := f.auth.Register(ctx, f.admin, dupApartment)
	assert.ErrorIs(t, err, repository.ErrDuplicateApartment)

	dupEmail := base
	dupEmail.Apartment = "2B"
	dupEmail.Email = "JANIS@example.com"
	_, _, err = f.auth.Register(ctx, f.admin, dupEmail)
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	superadmin := base
	superadmin.Apartment = "2B"
	superadmin.Email = "anna@example.com"
	superadmin.Role = domain.RoleSuperAdmin
	_, _, err = f.auth.Register(ctx, f.admin, superadmin)
	assert.ErrorIs(t, err, ErrRoleNotAssignable)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.auth.ChangePassword(ctx, f.resident.ID, "wrong", "newpass123")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	require.NoError(t, f.auth.ChangePassword(ctx, f.resident.ID, "resident123", "newpass123"))
	assert.Contains(t, f.recorded.types(), events.EventPasswordChanged)

	_, _, err = f.auth.Login(ctx, "janis@example.com", "resident123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.auth.Login(ctx, "janis@example.com", "newpass123")
	assert.NoError(t, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	phone := "+37129999999"
	blank := "  "
	lang := domain.LanguageEnglish
	user, err := f.auth.UpdateProfile(ctx, f.resident.ID, ProfileUpdate{Phone: &phone, FirstName: &blank, Language: &lang})
	require.NoError(t, err)
	assert.Equal(t, phone, user.Phone)
	assert.Equal(t, "Jānis", user.FirstName, "blank values are ignored")
	assert.Equal(t, domain.LanguageEnglish, user.Language)

	_, _, err = f.auth.Login(ctx, "janis@example.com", "resident123")
	assert.NoError(t, err, "profile update keeps the password")
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.Me(context.Background(), f.resident.ID)
	require.NoError(t, err)
	assert.Equal(t, "1A", user.Apartment)
	assert.Empty(t, user.PasswordHash)

	_, err = f.auth.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
