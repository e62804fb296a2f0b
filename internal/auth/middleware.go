package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Session *domain.Session
	// Profile is filled by RequireRole.
	Profile *domain.Profile
}

// SessionResolver turns a bearer token into a live session, or nil when the
// token is invalid, expired or signed out.
type SessionResolver interface {
	GetSession(ctx context.Context, accessToken string) (*domain.Session, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	sessions SessionResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return err
	}
	session, err := m.sessions.GetSession(c.UserContext(), token)
	if err != nil {
		return apperrors.MapError(err)
	}
	if session == nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	c.Locals(principalKey, &Principal{Session: session})
	return c.Next()
}

// Optional loads the principal when a live token is present and lets
// anonymous callers, or callers holding a dead token, through otherwise.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return c.Next()
	}
	session, err := m.sessions.GetSession(c.UserContext(), token)
	if err != nil {
		return apperrors.MapError(err)
	}
	if session != nil {
		c.Locals(principalKey, &Principal{Session: session})
	}
	return c.Next()
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}
