package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// ParentRepository links parents to the students they follow.
type ParentRepository interface {
	Link(ctx context.Context, parentID, studentID string) error
	ListChildren(ctx context.Context, parentID string) ([]domain.ChildSummary, error)
	ParentsOf(ctx context.Context, studentID string) ([]string, error)
}

type parentRepository struct {
	pool *pgxpool.Pool
}

// NewParentRepository returns a Postgres-backed implementation.
func NewParentRepository(pool *pgxpool.Pool) ParentRepository {
	return &parentRepository{pool: pool}
}

func (r *parentRepository) Link(ctx context.Context, parentID, studentID string) error {
	const query = `
        INSERT INTO parent_students (parent_id, student_id)
        VALUES ($1, $2)`
	_, err := r.pool.Exec(ctx, query, parentID, studentID)
	return err
}

func (r *parentRepository) ListChildren(ctx context.Context, parentID string) ([]domain.ChildSummary, error) {
	const query = `
        SELECT p.id, COALESCE(p.full_name, 'Anonymous'), p.class_level,
               (SELECT COUNT(*) FROM quiz_results q WHERE q.student_id = p.id)::int
        FROM parent_students ps
        JOIN profiles p ON p.id = ps.student_id
        WHERE ps.parent_id=$1
        ORDER BY ps.created_at`
	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ChildSummary, error) {
		var c domain.ChildSummary
		err := row.Scan(&c.StudentID, &c.FullName, &c.ClassLevel, &c.QuizzesTaken)
		return c, err
	})
}

func (r *parentRepository) ParentsOf(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT parent_id FROM parent_students WHERE student_id=$1`
	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
