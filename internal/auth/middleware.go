package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/homemanager/auth-service/internal/domain"
	"github.com/homemanager/auth-service/internal/repository"
	apperrors "github.com/homemanager/auth-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. It is request scoped and
// never carries the password hash.
type Principal struct {
	User   *domain.User
	Claims *Claims
}

// UserID returns the caller's id.
func (p *Principal) UserID() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.ID
}

// Role returns the caller's role.
func (p *Principal) Role() domain.Role {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Role
}

// Gate validates bearer tokens and loads principals.
type Gate struct {
	tokens *TokenManager
	users  repository.UserRepository
	logger *zap.Logger
}

// NewGate constructs the gate.
func NewGate(tokens *TokenManager, users repository.UserRepository, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Authenticate resolves the caller from an Authorization header value.
// Deactivation is enforced here, at lookup time only.
func (g *Gate) Authenticate(ctx context.Context, authHeader string) (*Principal, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return nil, ErrMissingToken
	}

	scheme, token, _ := strings.Cut(authHeader, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return nil, ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownPrincipal
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnknownPrincipal
	}

	public := user.WithoutPassword()
	return &Principal{User: &public, Claims: claims}, nil
}

// Handle enforces authentication for protected routes.
func (g *Gate) Handle(c *fiber.Ctx) error {
	principal, err := g.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		if isCredentialError(err) {
			return ToHTTPError(err)
		}
		g.logger.Error("identity lookup failed", zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	c.Locals(principalKey, principal)
	c.SetUserContext(WithPrincipal(c.UserContext(), principal))
	return c.Next()
}

func isCredentialError(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

type principalContextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFrom retrieves the principal from a context, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
