package service

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// QuizOutcome is the graded result of one quiz attempt.
type QuizOutcome struct {
	Result     *domain.QuizResult `json:"result"`
	Correct    int                `json:"correct"`
	Total      int                `json:"total"`
	Percentage int                `json:"percentage"`
	Passed     bool               `json:"passed"`
}

// QuizService serves and grades topic quizzes.
type QuizService struct {
	questions  repository.QuestionRepository
	results    repository.ResultRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	shuffle    func(n int, swap func(i, j int))
}

// NewQuizService builds the service.
func NewQuizService(questions repository.QuestionRepository, results repository.ResultRepository, dispatcher events.Dispatcher, logger *zap.Logger) *QuizService {
	return &QuizService{
		questions:  questions,
		results:    results,
		dispatcher: dispatcher,
		logger:     orNop(logger),
		shuffle:    rand.Shuffle,
	}
}

// QuizFor returns the topic's questions in random order. Correct options are
// never serialized.
func (s *QuizService) QuizFor(ctx context.Context, topicID string) ([]domain.Question, error) {
	questions, err := s.questions.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	s.shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	return questions, nil
}

// SubmitQuiz grades answers (question id to chosen option) and stores the percentage.
func (s *QuizService) SubmitQuiz(ctx context.Context, studentID, topicID string, answers map[string]string) (*QuizOutcome, error) {
	questions, err := s.questions.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperrors.NewValidationError("no questions", map[string]any{"topic_id": topicID})
	}

	correct := domain.Grade(questions, answers)
	percentage := domain.Percentage(correct, len(questions))
	result := &domain.QuizResult{
		StudentID:      studentID,
		TopicID:        topicID,
		Score:          percentage,
		TotalQuestions: len(questions),
	}
	if err := s.results.CreateQuizResult(ctx, result); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventQuizSubmitted, studentID, events.QuizSubmittedPayload{
		TopicID: topicID,
		Score:   percentage,
	}))
	return &QuizOutcome{
		Result:     result,
		Correct:    correct,
		Total:      len(questions),
		Percentage: percentage,
		Passed:     percentage >= domain.PassMark,
	}, nil
}
