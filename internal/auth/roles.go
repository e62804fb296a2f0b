package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// ProfileLoader returns the profile of a user, nil when none exists.
type ProfileLoader interface {
	FetchProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// RequireRole ensures the caller's profile has one of the allowed roles.
// With no roles given any caller holding a profile passes.
func RequireRole(profiles ProfileLoader, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Profile == nil {
			profile, err := profiles.FetchProfile(c.UserContext(), principal.Session.UserID)
			if err != nil {
				return apperrors.MapError(err)
			}
			if profile == nil {
				return apperrors.NewForbidden("profile required")
			}
			principal.Profile = profile
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Profile.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSession ensures the caller is authenticated.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
