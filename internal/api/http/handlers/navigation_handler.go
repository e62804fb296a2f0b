package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/dto"
	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/navigation"
)

// NavigationResolver decides where a client belongs.
type NavigationResolver interface {
	Resolve(ctx context.Context, session *domain.Session, path string, loading bool) (navigation.Decision, error)
}

// NavigationHandler serves guard decisions to clients.
type NavigationHandler struct {
	navigation NavigationResolver
}

// NewNavigationHandler constructs handler.
func NewNavigationHandler(resolver NavigationResolver) *NavigationHandler {
	return &NavigationHandler{navigation: resolver}
}

// Resolve handles POST /navigation/resolve. Anonymous callers are evaluated as signed out.
func (h *NavigationHandler) Resolve(c *fiber.Ctx) error {
	var req dto.NavigationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	var session *domain.Session
	if p, ok := auth.PrincipalFromContext(c); ok {
		session = p.Session
	}
	decision, err := h.navigation.Resolve(c.UserContext(), session, req.Path, req.Loading)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, decision)
}
