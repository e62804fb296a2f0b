package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// StudentPoints is the raw input of the leaderboard.
type StudentPoints struct {
	StudentID  string
	FullName   *string
	ClassLevel *string
	Points     int
}

// ResultRepository stores quiz and exam outcomes.
type ResultRepository interface {
	CreateQuizResult(ctx context.Context, result *domain.QuizResult) error
	CreateExamResult(ctx context.Context, result *domain.ExamResult) error
	// PointsByStudent sums quiz scores for every student profile, zero included.
	PointsByStudent(ctx context.Context) ([]StudentPoints, error)
}

type resultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository returns a Postgres-backed implementation.
func NewResultRepository(pool *pgxpool.Pool) ResultRepository {
	return &resultRepository{pool: pool}
}

func (r *resultRepository) CreateQuizResult(ctx context.Context, result *domain.QuizResult) error {
	const query = `
        INSERT INTO quiz_results (student_id, topic_id, score, total_questions)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		result.StudentID,
		result.TopicID,
		result.Score,
		result.TotalQuestions,
	).Scan(&result.ID, &result.CreatedAt)
}

func (r *resultRepository) CreateExamResult(ctx context.Context, result *domain.ExamResult) error {
	const query = `
        INSERT INTO exam_results (exam_id, student_id, score)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		result.ExamID,
		result.StudentID,
		result.Score,
	).Scan(&result.ID, &result.CreatedAt)
}

func (r *resultRepository) PointsByStudent(ctx context.Context) ([]StudentPoints, error) {
	const query = `
        SELECT p.id, p.full_name, p.class_level, COALESCE(SUM(q.score), 0)::int
        FROM profiles p
        LEFT JOIN quiz_results q ON q.student_id = p.id
        WHERE p.role = 'student'
        GROUP BY p.id, p.full_name, p.class_level`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (StudentPoints, error) {
		var sp StudentPoints
		err := row.Scan(&sp.StudentID, &sp.FullName, &sp.ClassLevel, &sp.Points)
		return sp, err
	})
}
