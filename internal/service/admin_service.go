package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/datastore"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

const (
	// premiumPrice is what one premium subscription brings in, in naira.
	premiumPrice = 2000
	maxUserList  = 200
)

// AdminStats summarises the platform for the admin dashboard.
type AdminStats struct {
	Students    int64           `json:"students"`
	Teachers    int64           `json:"teachers"`
	Premium     int64           `json:"premium"`
	Revenue     int64           `json:"revenue"`
	RecentUsers []datastore.Row `json:"recent_users"`
}

// ProfileInvalidator forgets cached copies of a profile.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// AdminDependencies groups collaborators of AdminService.
type AdminDependencies struct {
	Store       *datastore.Store
	ProfileRepo repository.ProfileRepository
	AccountRepo repository.AccountRepository
	Profiles    ProfileInvalidator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// AdminService computes dashboard figures and manages users and staff.
type AdminService struct {
	store      *datastore.Store
	profiles   repository.ProfileRepository
	accounts   repository.AccountRepository
	cached     ProfileInvalidator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		store:      deps.Store,
		profiles:   deps.ProfileRepo,
		accounts:   deps.AccountRepo,
		cached:     deps.Profiles,
		dispatcher: deps.Dispatcher,
		logger:     orNop(deps.Logger),
	}
}

// Stats counts users by role and lists the latest sign-ups.
func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	students, err := s.store.Table("profiles").Eq("role", string(domain.RoleStudent)).Count(ctx)
	if err != nil {
		return nil, err
	}
	teachers, err := s.store.Table("profiles").Eq("role", string(domain.RoleTeacher)).Count(ctx)
	if err != nil {
		return nil, err
	}
	premium, err := s.store.Table("profiles").Eq("is_premium", true).Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.Table("profiles").
		Select("id", "full_name", "role", "created_at").
		Order("created_at", false).
		Limit(5).
		List(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{
		Students:    students,
		Teachers:    teachers,
		Premium:     premium,
		Revenue:     premium * premiumPrice,
		RecentUsers: recent,
	}, nil
}

// ListUsers returns users newest first, filtered by a name or email fragment.
func (s *AdminService) ListUsers(ctx context.Context, search string) ([]domain.Profile, error) {
	users, err := s.profiles.List(ctx, strings.TrimSpace(search), maxUserList)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.Profile{}
	}
	return users, nil
}

// ChangeRole promotes or demotes userID. Nobody can grant super_admin, touch
// a super_admin, or change their own role.
func (s *AdminService) ChangeRole(ctx context.Context, actorID, userID string, role domain.Role) (*domain.Profile, error) {
	if !role.Valid() || role == domain.RoleSuperAdmin {
		return nil, apperrors.NewValidationError("role cannot be assigned", map[string]any{"role": role})
	}
	target, err := s.manageable(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == role {
		return target, nil
	}

	updated, err := s.profiles.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, userID)
	s.logger.Info("role changed",
		zap.String("actor_id", actorID),
		zap.String("user_id", userID),
		zap.String("from", string(target.Role)),
		zap.String("to", string(role)))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventRoleChanged, userID, events.RoleChangedPayload{
		ActorID: actorID,
		From:    string(target.Role),
		To:      string(role),
	}))
	return updated, nil
}

// DeleteUser removes the account of userID together with its data.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if _, err := s.manageable(ctx, actorID, userID); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, userID); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidate(ctx, userID)
	s.logger.Info("user deleted", zap.String("actor_id", actorID), zap.String("user_id", userID))
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventAccountDeleted, userID, nil))
	return nil
}

func (s *AdminService) manageable(ctx context.Context, actorID, userID string) (*domain.Profile, error) {
	if actorID == userID {
		return nil, apperrors.NewForbidden("you cannot modify your own account")
	}
	target, err := s.profiles.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
	}
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleSuperAdmin {
		return nil, apperrors.NewForbidden("you cannot modify another super admin")
	}
	return target, nil
}

func (s *AdminService) invalidate(ctx context.Context, userID string) {
	if s.cached != nil {
		s.cached.Invalidate(ctx, userID)
	}
}
