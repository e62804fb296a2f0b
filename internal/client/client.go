// Package client talks to a running classroom service over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// Client calls the API with one bearer token.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// New returns a client for baseURL. An empty token calls the API anonymously.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, timeout: timeout}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Session returns the caller's session, nil when signed out.
func (c *Client) Session(ctx context.Context) (*domain.Session, error) {
	var data struct {
		Session *struct {
			AccessToken string    `json:"access_token"`
			UserID      string    `json:"user_id"`
			Email       string    `json:"email"`
			ExpiresAt   time.Time `json:"expires_at"`
		} `json:"session"`
	}
	if err := c.get(ctx, "/auth/session", &data); err != nil {
		return nil, err
	}
	if data.Session == nil {
		return nil, nil
	}
	return &domain.Session{
		AccessToken: data.Session.AccessToken,
		TokenID:     data.Session.AccessToken,
		UserID:      data.Session.UserID,
		Email:       data.Session.Email,
		ExpiresAt:   data.Session.ExpiresAt,
	}, nil
}

// FetchProfile returns the caller's profile, nil when none exists.
// The API only serves the caller's own profile, so userID is informational.
func (c *Client) FetchProfile(ctx context.Context, _ string) (*domain.Profile, error) {
	var profile domain.Profile
	err := c.get(ctx, "/profiles/me", &profile)
	if apperrors.IsDomainCode(err, "NOT_FOUND") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	agent := fiber.Get(c.baseURL + path).Timeout(c.timeout)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("GET %s: %w", path, errors.Join(errs...))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("GET %s: status %d: %w", path, status, err)
	}
	if status >= fiber.StatusBadRequest {
		if env.Error != nil {
			return apperrors.NewDomainError(env.Error.Code, env.Error.Message, status, nil)
		}
		return apperrors.FromStatus(status, string(body))
	}
	return json.Unmarshal(env.Data, dest)
}
