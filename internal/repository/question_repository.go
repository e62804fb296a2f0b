package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// QuestionRepository reads quiz and exam questions.
type QuestionRepository interface {
	ListByTopic(ctx context.Context, topicID string) ([]domain.Question, error)
	ListByExam(ctx context.Context, examID string) ([]domain.Question, error)
	GetExam(ctx context.Context, examID string) (*domain.Exam, error)
}

type questionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository returns a Postgres-backed implementation.
func NewQuestionRepository(pool *pgxpool.Pool) QuestionRepository {
	return &questionRepository{pool: pool}
}

func (r *questionRepository) ListByTopic(ctx context.Context, topicID string) ([]domain.Question, error) {
	const query = `
        SELECT id, topic_id, question_text, options, correct_option
        FROM questions WHERE topic_id=$1 ORDER BY created_at`
	return r.list(ctx, query, topicID)
}

func (r *questionRepository) ListByExam(ctx context.Context, examID string) ([]domain.Question, error) {
	const query = `
        SELECT id, exam_id, question_text, options, correct_option
        FROM exam_questions WHERE exam_id=$1 ORDER BY created_at`
	return r.list(ctx, query, examID)
}

func (r *questionRepository) GetExam(ctx context.Context, examID string) (*domain.Exam, error) {
	const query = `SELECT id, title, duration_minutes FROM exams WHERE id=$1`
	var exam domain.Exam
	if err := r.pool.QueryRow(ctx, query, examID).Scan(&exam.ID, &exam.Title, &exam.DurationMinutes); err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *questionRepository) list(ctx context.Context, query, parentID string) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Question, error) {
		var q domain.Question
		err := row.Scan(&q.ID, &q.ParentID, &q.Text, &q.Options, &q.CorrectOption)
		return q, err
	})
}
