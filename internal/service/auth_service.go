package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// AuthService coordinates sign-up, sign-in and session lifecycle.
type AuthService struct {
	accounts    repository.AccountRepository
	revocations *cache.TokenRevocations
	dispatcher  events.Dispatcher
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	logger      *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
	Revocations *cache.TokenRevocations
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:    deps.AccountRepo,
		revocations: deps.Revocations,
		dispatcher:  deps.Dispatcher,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		bcryptCost:  cfg.Auth.BcryptCost,
		logger:      orNop(deps.Logger),
	}
}

// SignUp creates an account with a bare profile and signs it in.
// An empty role defaults to student; only self-assignable roles are accepted.
func (s *AuthService) SignUp(ctx context.Context, email, password string, role domain.Role) (*domain.Session, error) {
	email = normalizeEmail(email)
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.SelfAssignable() {
		return nil, apperrors.NewValidationError("role cannot be chosen at sign-up", map[string]any{"role": role})
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{Email: email, PasswordHash: hash}
	if err := s.accounts.CreateWithProfile(ctx, account, role); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	return s.startSession(ctx, account)
}

// SignIn authenticates with email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.startSession(ctx, account)
}

// GetSession returns the live session behind accessToken, or nil when the
// token is malformed, expired or signed out.
func (s *AuthService) GetSession(ctx context.Context, accessToken string) (*domain.Session, error) {
	session, err := s.tokenMgr.Parse(accessToken)
	if err != nil {
		return nil, nil
	}
	revoked, err := s.revocations.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, nil
	}
	return session, nil
}

// SignOut revokes the token. Signing out an already dead token is a no-op.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	session, err := s.GetSession(ctx, accessToken)
	if err != nil || session == nil {
		return err
	}
	return s.endSession(ctx, session)
}

// Refresh exchanges a live token for a new one and revokes the old.
func (s *AuthService) Refresh(ctx context.Context, accessToken string) (*domain.Session, error) {
	current, err := s.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperrors.NewUnauthorized("session expired")
	}
	account, err := s.accounts.GetByID(ctx, current.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewUnauthorized("account no longer exists")
	}
	if err != nil {
		return nil, err
	}

	next, err := s.startSession(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := s.endSession(ctx, current); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *AuthService) startSession(ctx context.Context, account *domain.Account) (*domain.Session, error) {
	session, err := s.tokenMgr.Issue(account.ID, account.Email)
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventSessionStarted, account.ID, events.SessionPayload{TokenID: session.TokenID}))
	return session, nil
}

func (s *AuthService) endSession(ctx context.Context, session *domain.Session) error {
	if err := s.revocations.Revoke(ctx, session.TokenID, time.Until(session.ExpiresAt)); err != nil {
		return err
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventSessionEnded, session.UserID, events.SessionPayload{TokenID: session.TokenID}))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
