package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

const profileCacheTTL = 5 * time.Minute

// SetupProfileInput carries the onboarding form.
type SetupProfileInput struct {
	FullName   string
	ClassLevel *string
}

// ProfileService reads and updates profiles. It is the profile source of the navigation guard.
type ProfileService struct {
	profiles   repository.ProfileRepository
	cache      *cache.CacheHelper
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewProfileService builds the service. cacheHelper may wrap a nil client.
func NewProfileService(profiles repository.ProfileRepository, cacheHelper *cache.CacheHelper, dispatcher events.Dispatcher, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profiles:   profiles,
		cache:      cacheHelper,
		dispatcher: dispatcher,
		logger:     orNop(logger),
		now:        time.Now,
	}
}

// FetchProfile returns the profile of userID, or nil when it has none.
func (s *ProfileService) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var cached domain.Profile
	err := s.cache.Get(ctx, userID, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		s.logger.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, userID, profile, profileCacheTTL); err != nil {
		s.logger.Warn("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return profile, nil
}

// SetupProfile records the name and, for students, the class level. A user
// without a profile row gets one, as a student.
func (s *ProfileService) SetupProfile(ctx context.Context, userID string, input SetupProfileInput) (*domain.Profile, error) {
	current, err := s.FetchProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	role := domain.RoleStudent
	if current != nil {
		role = current.Role
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, apperrors.NewValidationError("full name is required", nil)
	}

	var classLevel *string
	if role == domain.RoleStudent {
		if input.ClassLevel == nil || !domain.ValidClassLevel(*input.ClassLevel) {
			return nil, apperrors.NewValidationError("choose your class", map[string]any{"allowed": domain.ClassLevels})
		}
		classLevel = input.ClassLevel
	}

	updated, err := s.profiles.SaveSetup(ctx, userID, role, fullName, classLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("account", map[string]any{"id": userID})
	}
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, userID)
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventProfileUpdated, userID, nil))
	return updated, nil
}

// Invalidate drops the cached profile of userID.
func (s *ProfileService) Invalidate(ctx context.Context, userID string) {
	s.cache.Delete(ctx, userID)
}

// RecordActivity advances the daily streak of userID.
func (s *ProfileService) RecordActivity(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("profile", map[string]any{"id": userID})
	}
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	streak, changed := domain.NextStreak(profile.CurrentStreak, profile.LastActiveDate, today)
	if !changed {
		return profile, nil
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.profiles.UpdateStreak(ctx, userID, streak, day); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, userID)

	profile.CurrentStreak = streak
	profile.LastActiveDate = &day
	return profile, nil
}
