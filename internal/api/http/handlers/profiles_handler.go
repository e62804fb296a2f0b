package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/dto"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/service"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// ProfileManager reads and completes profiles.
type ProfileManager interface {
	FetchProfile(ctx context.Context, userID string) (*domain.Profile, error)
	SetupProfile(ctx context.Context, userID string, input service.SetupProfileInput) (*domain.Profile, error)
	RecordActivity(ctx context.Context, userID string) (*domain.Profile, error)
}

// ProfilesHandler serves the caller's own profile.
type ProfilesHandler struct {
	profiles ProfileManager
}

// NewProfilesHandler constructs handler.
func NewProfilesHandler(profiles ProfileManager) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// Me handles GET /profiles/me.
func (h *ProfilesHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.FetchProfile(c.UserContext(), p.Session.UserID)
	if err != nil {
		return err
	}
	if profile == nil {
		return apperrors.NewNotFound("profile", nil)
	}
	return respond(c, http.StatusOK, profile)
}

// Setup handles PUT /profiles/me.
func (h *ProfilesHandler) Setup(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.SetupProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	profile, err := h.profiles.SetupProfile(c.UserContext(), p.Session.UserID, service.SetupProfileInput{
		FullName:   req.FullName,
		ClassLevel: req.ClassLevel,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile)
}

// Activity handles POST /profiles/me/activity and returns the updated streak.
func (h *ProfilesHandler) Activity(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.RecordActivity(c.UserContext(), p.Session.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{
		"current_streak":   profile.CurrentStreak,
		"last_active_date": profile.LastActiveDate,
	})
}
