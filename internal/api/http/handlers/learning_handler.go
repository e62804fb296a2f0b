package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/api/dto"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/service"
)

// Quizzes serves topic quizzes.
type Quizzes interface {
	QuizFor(ctx context.Context, topicID string) ([]domain.Question, error)
	SubmitQuiz(ctx context.Context, studentID, topicID string, answers map[string]string) (*service.QuizOutcome, error)
}

// Exams runs timed exam attempts.
type Exams interface {
	StartExam(ctx context.Context, studentID, examID string) (*service.ExamView, error)
	GetSession(ctx context.Context, studentID, sessionID string) (*service.ExamView, error)
	Answer(ctx context.Context, studentID, sessionID, questionID, option string) (*service.ExamView, error)
	Submit(ctx context.Context, studentID, sessionID string) (*domain.ExamResult, error)
}

// Leaderboard ranks students.
type Leaderboard interface {
	Top(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Export(ctx context.Context) ([]byte, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LearningHandler exposes quizzes, exams and the leaderboard.
type LearningHandler struct {
	quizzes     Quizzes
	exams       Exams
	leaderboard Leaderboard
}

// NewLearningHandler constructs handler.
func NewLearningHandler(quizzes Quizzes, exams Exams, leaderboard Leaderboard) *LearningHandler {
	return &LearningHandler{quizzes: quizzes, exams: exams, leaderboard: leaderboard}
}

// Quiz handles GET /topics/:id/quiz.
func (h *LearningHandler) Quiz(c *fiber.Ctx) error {
	questions, err := h.quizzes.QuizFor(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, questions)
}

// SubmitQuiz handles POST /topics/:id/quiz.
func (h *LearningHandler) SubmitQuiz(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.QuizSubmitRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	outcome, err := h.quizzes.SubmitQuiz(c.UserContext(), p.Session.UserID, c.Params("id"), req.Answers)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, outcome)
}

// StartExam handles POST /exams/:id/sessions. A running attempt is resumed.
func (h *LearningHandler) StartExam(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.exams.StartExam(c.UserContext(), p.Session.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, view)
}

// ExamSession handles GET /exam-sessions/:id.
func (h *LearningHandler) ExamSession(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.exams.GetSession(c.UserContext(), p.Session.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, view)
}

// Answer handles PUT /exam-sessions/:id/answers.
func (h *LearningHandler) Answer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ExamAnswerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	view, err := h.exams.Answer(c.UserContext(), p.Session.UserID, c.Params("id"), req.QuestionID, req.Option)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, view)
}

// SubmitExam handles POST /exam-sessions/:id/submit.
func (h *LearningHandler) SubmitExam(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	result, err := h.exams.Submit(c.UserContext(), p.Session.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, result)
}

// Leaderboard handles GET /leaderboard.
func (h *LearningHandler) Leaderboard(c *fiber.Ctx) error {
	entries, err := h.leaderboard.Top(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, entries)
}

// ExportLeaderboard handles GET /leaderboard/export.
func (h *LearningHandler) ExportLeaderboard(c *fiber.Ctx) error {
	data, err := h.leaderboard.Export(c.UserContext())
	if err != nil {
		return err
	}
	c.Attachment("leaderboard.xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}
