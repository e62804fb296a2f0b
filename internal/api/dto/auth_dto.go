package dto

import (
	"time"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,signup_role"`
}

// SignInRequest payload for password sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse standard response for auth endpoints.
type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewSessionResponse renders a session for the wire.
func NewSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		AccessToken: s.AccessToken,
		TokenType:   "bearer",
		UserID:      s.UserID,
		Email:       s.Email,
		ExpiresAt:   s.ExpiresAt,
	}
}

// NavigationRequest asks where the client should be for path.
type NavigationRequest struct {
	Path    string `json:"path" validate:"required"`
	Loading bool   `json:"loading"`
}
