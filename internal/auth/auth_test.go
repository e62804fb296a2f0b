package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	session, err := tm.Issue("u1", "jane@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, session.TokenID)

	parsed, err := tm.Parse(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, "jane@example.com", parsed.Email)
	assert.Equal(t, session.TokenID, parsed.TokenID)
	assert.True(t, session.ExpiresAt.Equal(parsed.ExpiresAt))
}

func TestTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	session, err := tm.Issue("u1", "jane@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(session.AccessToken)
	assert.Error(t, err)

	expired := NewTokenManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("u1", "jane@example.com")
	require.NoError(t, err)
	_, err = tm.Parse(old.AccessToken)
	assert.Error(t, err)

	_, err = tm.Parse("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.ErrorIs(t, ComparePassword(hash, "hunter23"), ErrPasswordMismatch)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes+1), 4)
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))

	// out of range cost falls back to the default
	hash, err = HashPassword("hunter22", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

type resolverFunc func(ctx context.Context, token string) (*domain.Session, error)

func (f resolverFunc) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	return f(ctx, token)
}

type profileLoaderFunc func(ctx context.Context, userID string) (*domain.Profile, error)

func (f profileLoaderFunc) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return f(ctx, userID)
}

func newTestApp(role domain.Role, allowed ...domain.Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	sessions := resolverFunc(func(_ context.Context, token string) (*domain.Session, error) {
		if token == "good" {
			return &domain.Session{UserID: "u1", TokenID: "t1"}, nil
		}
		if token == "broken" {
			return nil, errors.New("redis down")
		}
		return nil, nil
	})
	profiles := profileLoaderFunc(func(_ context.Context, userID string) (*domain.Profile, error) {
		if role == "" {
			return nil, nil
		}
		return &domain.Profile{ID: userID, Role: role}, nil
	})
	mw := NewAuthMiddleware(sessions)

	app.Get("/private", mw.Handle, RequireRole(profiles, allowed...), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(string(p.Profile.Role))
	})
	app.Get("/maybe", mw.Optional, func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); ok {
			return c.SendString("signed-in")
		}
		return c.SendString("anonymous")
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.Role
		allowed []domain.Role
		path    string
		header  string
		status  int
	}{
		{name: "missing header", role: domain.RoleTeacher, path: "/private", status: http.StatusUnauthorized},
		{name: "malformed header", role: domain.RoleTeacher, path: "/private", header: "Token good", status: http.StatusUnauthorized},
		{name: "unknown token", role: domain.RoleTeacher, path: "/private", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "resolver failure", role: domain.RoleTeacher, path: "/private", header: "Bearer broken", status: http.StatusInternalServerError},
		{name: "allowed role", role: domain.RoleTeacher, allowed: []domain.Role{domain.RoleTeacher}, path: "/private", header: "Bearer good", status: http.StatusOK},
		{name: "wrong role", role: domain.RoleStudent, allowed: []domain.Role{domain.RoleTeacher}, path: "/private", header: "Bearer good", status: http.StatusForbidden},
		{name: "no profile", path: "/private", header: "Bearer good", status: http.StatusForbidden},
		{name: "optional anonymous", path: "/maybe", status: http.StatusOK},
		{name: "optional signed in", path: "/maybe", header: "Bearer good", status: http.StatusOK},
		{name: "optional dead token", path: "/maybe", header: "Bearer nope", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.role, tt.allowed...)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
