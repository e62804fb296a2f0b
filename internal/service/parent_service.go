package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// ParentService links parents to students and reports on them.
type ParentService struct {
	parents    repository.ParentRepository
	profiles   repository.ProfileRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewParentService builds the service.
func NewParentService(parents repository.ParentRepository, profiles repository.ProfileRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ParentService {
	return &ParentService{parents: parents, profiles: profiles, dispatcher: dispatcher, logger: orNop(logger)}
}

// LinkChild links the student registered under email to the parent.
func (s *ParentService) LinkChild(ctx context.Context, parentID, email string) (*domain.Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewValidationError("enter student email", nil)
	}

	student, err := s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewDomainError("NOT_FOUND", "student email not found, make sure they have registered", http.StatusNotFound, nil)
	}
	if err != nil {
		return nil, err
	}
	if student.Role != domain.RoleStudent {
		return nil, apperrors.NewValidationError("that account is not a student", nil)
	}

	if err := s.parents.Link(ctx, parentID, student.ID); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("you already linked this student", nil)
		}
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventChildLinked, parentID, events.MembershipPayload{TargetID: student.ID}))
	return student, nil
}

// Children lists the parent's linked students with their quiz counts.
func (s *ParentService) Children(ctx context.Context, parentID string) ([]domain.ChildSummary, error) {
	children, err := s.parents.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []domain.ChildSummary{}
	}
	return children, nil
}
