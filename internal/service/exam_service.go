package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

const sweepBatch = 100

// ExamView is a running attempt as shown to the student.
type ExamView struct {
	Session   *domain.ExamSession `json:"session"`
	Title     string              `json:"title,omitempty"`
	Questions []domain.Question   `json:"questions,omitempty"`
	Remaining string              `json:"remaining"`
}

// ExamService runs timed exams. Attempts live in Redis until submitted.
type ExamService struct {
	questions       repository.QuestionRepository
	results         repository.ResultRepository
	sessions        *cache.ExamSessionStore
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	defaultDuration time.Duration
	now             func() time.Time
}

// ExamDependencies bundles requirements for the exam service.
type ExamDependencies struct {
	QuestionRepo repository.QuestionRepository
	ResultRepo   repository.ResultRepository
	Sessions     *cache.ExamSessionStore
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewExamService builds the service.
func NewExamService(cfg config.ExamConfig, deps ExamDependencies) *ExamService {
	duration := time.Duration(cfg.DefaultDurationMinutes) * time.Minute
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	return &ExamService{
		questions:       deps.QuestionRepo,
		results:         deps.ResultRepo,
		sessions:        deps.Sessions,
		dispatcher:      deps.Dispatcher,
		logger:          orNop(deps.Logger),
		defaultDuration: duration,
		now:             time.Now,
	}
}

// StartExam opens an attempt, or resumes the student's running one.
func (s *ExamService) StartExam(ctx context.Context, studentID, examID string) (*ExamView, error) {
	exam, err := s.questions.GetExam(ctx, examID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("exam", map[string]any{"id": examID})
	}
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if running := s.resumable(ctx, studentID, examID, now); running != nil {
		return s.view(running, exam.Title, questions, now), nil
	}

	duration := s.defaultDuration
	if exam.DurationMinutes != nil && *exam.DurationMinutes > 0 {
		duration = time.Duration(*exam.DurationMinutes) * time.Minute
	}
	session := &domain.ExamSession{
		ID:        uuid.NewString(),
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: now.UTC(),
		Deadline:  now.Add(duration).UTC(),
		Answers:   map[string]string{},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, exam.Title, questions, now), nil
}

// GetSession returns the attempt with its questions.
func (s *ExamService) GetSession(ctx context.Context, studentID, sessionID string) (*ExamView, error) {
	session, err := s.load(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, err
	}
	return s.view(session, "", questions, s.now()), nil
}

// Answer records the chosen option for one question.
func (s *ExamService) Answer(ctx context.Context, studentID, sessionID, questionID, option string) (*ExamView, error) {
	session, err := s.load(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if session.Submitted {
		return nil, apperrors.NewConflict("exam already submitted", nil)
	}
	if session.Expired(now) {
		return nil, apperrors.NewConflict("time is up", map[string]any{"deadline": session.Deadline})
	}

	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, err
	}
	var question *domain.Question
	for i := range questions {
		if questions[i].ID == questionID {
			question = &questions[i]
			break
		}
	}
	if question == nil {
		return nil, apperrors.NewValidationError("question is not part of this exam", map[string]any{"question_id": questionID})
	}
	if !containsOption(question.Options, option) {
		return nil, apperrors.NewValidationError("unknown option", map[string]any{"question_id": questionID})
	}

	if session.Answers == nil {
		session.Answers = map[string]string{}
	}
	session.Answers[questionID] = option
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, "", nil, now), nil
}

// Submit grades the attempt. A second submit is a conflict.
func (s *ExamService) Submit(ctx context.Context, studentID, sessionID string) (*domain.ExamResult, error) {
	session, err := s.load(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, session, false)
}

// SweepExpired submits every attempt whose deadline passed with the answers
// given so far. It returns how many were submitted.
func (s *ExamService) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.sessions.Due(ctx, s.now(), sweepBatch)
	if err != nil {
		return 0, err
	}

	submitted := 0
	for _, id := range ids {
		session, err := s.sessions.Get(ctx, id)
		if errors.Is(err, cache.ErrCacheNotFound) {
			if err := s.sessions.Forget(ctx, id); err != nil {
				return submitted, err
			}
			continue
		}
		if err != nil {
			return submitted, err
		}
		if _, err := s.finish(ctx, session, true); err != nil {
			if apperrors.IsDomainCode(err, "CONFLICT") {
				continue
			}
			s.logger.Error("auto-submit exam", zap.String("session_id", id), zap.Error(err))
			continue
		}
		submitted++
	}
	return submitted, nil
}

func (s *ExamService) finish(ctx context.Context, session *domain.ExamSession, automatic bool) (*domain.ExamResult, error) {
	if session.Submitted {
		return nil, apperrors.NewConflict("exam already submitted", nil)
	}
	won, err := s.sessions.Claim(ctx, session)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperrors.NewConflict("exam already submitted", nil)
	}

	result, err := s.record(ctx, session)
	if err != nil {
		// hand the attempt back so a retry or the sweep can still submit it
		if releaseErr := s.sessions.Release(ctx, session); releaseErr != nil {
			s.logger.Error("release exam session", zap.String("session_id", session.ID), zap.Error(releaseErr))
		}
		return nil, err
	}
	score := result.Score

	session.Submitted = true
	session.Score = &score
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Warn("store submitted exam session", zap.String("session_id", session.ID), zap.Error(err))
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventExamSubmitted, session.StudentID, events.ExamSubmittedPayload{
		ExamID:    session.ExamID,
		SessionID: session.ID,
		Score:     score,
		Automatic: automatic,
	}))
	return result, nil
}

func (s *ExamService) record(ctx context.Context, session *domain.ExamSession) (*domain.ExamResult, error) {
	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, err
	}
	score := domain.Percentage(domain.Grade(questions, session.Answers), len(questions))
	result := &domain.ExamResult{ExamID: session.ExamID, StudentID: session.StudentID, Score: score}
	if err := s.results.CreateExamResult(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ExamService) resumable(ctx context.Context, studentID, examID string, now time.Time) *domain.ExamSession {
	id, err := s.sessions.Active(ctx, studentID, examID)
	if err != nil {
		return nil
	}
	session, err := s.sessions.Get(ctx, id)
	if err != nil || session.Submitted || session.Expired(now) {
		return nil
	}
	return session
}

func (s *ExamService) load(ctx context.Context, studentID, sessionID string) (*domain.ExamSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, cache.ErrCacheNotFound) {
		return nil, apperrors.NewNotFound("exam session", map[string]any{"id": sessionID})
	}
	if err != nil {
		return nil, err
	}
	// other students' attempts look like missing ones
	if session.StudentID != studentID {
		return nil, apperrors.NewNotFound("exam session", map[string]any{"id": sessionID})
	}
	return session, nil
}

func (s *ExamService) view(session *domain.ExamSession, title string, questions []domain.Question, now time.Time) *ExamView {
	return &ExamView{
		Session:   session,
		Title:     title,
		Questions: questions,
		Remaining: FormatRemaining(session.Remaining(now)),
	}
}

// FormatRemaining renders a countdown as m:ss.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func containsOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
