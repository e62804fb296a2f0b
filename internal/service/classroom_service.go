package service

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

const (
	classCodeLength   = 6
	classCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	classCodeAttempts = 5
)

// ClassroomService creates classrooms and enrols students by code.
type ClassroomService struct {
	classrooms repository.ClassroomRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	newCode    func() string
}

// NewClassroomService builds the service.
func NewClassroomService(classrooms repository.ClassroomRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ClassroomService {
	return &ClassroomService{
		classrooms: classrooms,
		dispatcher: dispatcher,
		logger:     orNop(logger),
		newCode:    randomClassCode,
	}
}

// CreateClassroom opens a classroom with a fresh join code.
func (s *ClassroomService) CreateClassroom(ctx context.Context, teacherID, name string) (*domain.Classroom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("class name is required", nil)
	}

	for attempt := 0; attempt < classCodeAttempts; attempt++ {
		classroom := &domain.Classroom{TeacherID: teacherID, Name: name, Code: s.newCode()}
		err := s.classrooms.Create(ctx, classroom)
		if err == nil {
			return classroom, nil
		}
		if !apperrors.IsUniqueViolation(err) {
			return nil, err
		}
		s.logger.Debug("class code collision", zap.String("code", classroom.Code))
	}
	return nil, apperrors.NewConflict("could not allocate a class code, try again", nil)
}

// ListClassrooms returns the teacher's classrooms, newest first.
func (s *ClassroomService) ListClassrooms(ctx context.Context, teacherID string) ([]domain.Classroom, error) {
	classrooms, err := s.classrooms.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if classrooms == nil {
		classrooms = []domain.Classroom{}
	}
	return classrooms, nil
}

// JoinClassroom enrols the student in the classroom owning code.
func (s *ClassroomService) JoinClassroom(ctx context.Context, studentID, code string) (*domain.Classroom, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != classCodeLength {
		return nil, apperrors.NewValidationError("class code must be 6 characters", nil)
	}

	classroom, err := s.classrooms.GetByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewDomainError("NOT_FOUND", "invalid class code", http.StatusNotFound, nil)
	}
	if err != nil {
		return nil, err
	}

	if err := s.classrooms.AddStudent(ctx, classroom.ID, studentID); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("you are already in this class", nil)
		}
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventClassroomJoined, studentID, events.MembershipPayload{TargetID: classroom.ID}))
	return classroom, nil
}

func randomClassCode() string {
	var b strings.Builder
	for i := 0; i < classCodeLength; i++ {
		b.WriteByte(classCodeAlphabet[rand.Intn(len(classCodeAlphabet))])
	}
	return b.String()
}
