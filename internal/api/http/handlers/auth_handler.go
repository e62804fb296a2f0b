package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/dto"
	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/domain"
)

// Authenticator is the session side of the auth service.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string, role domain.Role) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	GetSession(ctx context.Context, accessToken string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, accessToken string) (*domain.Session, error)
}

// AuthHandler exposes sign-up, sign-in and session endpoints.
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService Authenticator) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// SignUp handles POST /auth/sign-up.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	session, err := h.auth.SignUp(c.UserContext(), req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewSessionResponse(session))
}

// SignIn handles POST /auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	session, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewSessionResponse(session))
}

// SignOut handles POST /auth/sign-out. Unknown or dead tokens still succeed.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}
	if err := h.auth.SignOut(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Session handles GET /auth/session. The session is null when the caller is signed out.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return respond(c, http.StatusOK, fiber.Map{"session": nil})
	}
	session, err := h.auth.GetSession(c.UserContext(), token)
	if err != nil {
		return err
	}
	if session == nil {
		return respond(c, http.StatusOK, fiber.Map{"session": nil})
	}
	return respond(c, http.StatusOK, fiber.Map{"session": dto.NewSessionResponse(session)})
}

// Refresh handles POST /auth/session/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}
	session, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewSessionResponse(session))
}
