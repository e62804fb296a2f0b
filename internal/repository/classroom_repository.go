package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// ClassroomRepository persists classrooms and memberships.
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *domain.Classroom) error
	GetByCode(ctx context.Context, code string) (*domain.Classroom, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]domain.Classroom, error)
	AddStudent(ctx context.Context, classroomID, studentID string) error
}

type classroomRepository struct {
	pool *pgxpool.Pool
}

// NewClassroomRepository returns a Postgres-backed implementation.
func NewClassroomRepository(pool *pgxpool.Pool) ClassroomRepository {
	return &classroomRepository{pool: pool}
}

func (r *classroomRepository) Create(ctx context.Context, classroom *domain.Classroom) error {
	const query = `
        INSERT INTO classrooms (teacher_id, name, code)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, classroom.TeacherID, classroom.Name, classroom.Code).
		Scan(&classroom.ID, &classroom.CreatedAt)
}

func (r *classroomRepository) GetByCode(ctx context.Context, code string) (*domain.Classroom, error) {
	const query = `
        SELECT id, teacher_id, name, code, created_at
        FROM classrooms WHERE code=$1`
	var c domain.Classroom
	if err := r.pool.QueryRow(ctx, query, code).Scan(&c.ID, &c.TeacherID, &c.Name, &c.Code, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *classroomRepository) ListByTeacher(ctx context.Context, teacherID string) ([]domain.Classroom, error) {
	const query = `
        SELECT id, teacher_id, name, code, created_at
        FROM classrooms WHERE teacher_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Classroom, error) {
		var c domain.Classroom
		err := row.Scan(&c.ID, &c.TeacherID, &c.Name, &c.Code, &c.CreatedAt)
		return c, err
	})
}

func (r *classroomRepository) AddStudent(ctx context.Context, classroomID, studentID string) error {
	const query = `
        INSERT INTO classroom_students (classroom_id, student_id)
        VALUES ($1, $2)`
	_, err := r.pool.Exec(ctx, query, classroomID, studentID)
	return err
}
