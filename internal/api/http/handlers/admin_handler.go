package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/dto"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/service"
)

// StatsSource reports platform totals.
type StatsSource interface {
	Stats(ctx context.Context) (*service.AdminStats, error)
}

// UserManager lists, promotes, demotes and deletes users.
type UserManager interface {
	ListUsers(ctx context.Context, search string) ([]domain.Profile, error)
	ChangeRole(ctx context.Context, actorID, userID string, role domain.Role) (*domain.Profile, error)
	DeleteUser(ctx context.Context, actorID, userID string) error
}

// AdminHandler serves the admin dashboard and staff management.
type AdminHandler struct {
	stats StatsSource
	users UserManager
}

// NewAdminHandler constructs handler.
func NewAdminHandler(stats StatsSource, users UserManager) *AdminHandler {
	return &AdminHandler{stats: stats, users: users}
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

// Users handles GET /admin/users?search=.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext(), c.Query("search"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, users)
}

// ChangeRole handles PUT /admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ChangeRoleRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	profile, err := h.users.ChangeRole(c.UserContext(), p.Session.UserID, c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile)
}

// DeleteUser handles DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), p.Session.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
