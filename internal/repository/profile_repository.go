package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// ProfileRepository persists application profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	// SaveSetup upserts the onboarding fields; classLevel nil leaves the stored
	// value untouched. role only applies when the profile row is created.
	SaveSetup(ctx context.Context, id string, role domain.Role, fullName string, classLevel *string) (*domain.Profile, error)
	UpdateStreak(ctx context.Context, id string, streak int, activeOn time.Time) error
	// List returns profiles newest first; search matches name or email.
	List(ctx context.Context, search string, limit int) ([]domain.Profile, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, role, full_name, class_level, email, current_streak, last_active_date, created_at, updated_at`

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id))
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email)=lower($1)`, email))
}

func (r *profileRepository) SaveSetup(ctx context.Context, id string, role domain.Role, fullName string, classLevel *string) (*domain.Profile, error) {
	// the email comes from the account, so an unknown id yields no row
	const query = `
        INSERT INTO profiles (id, role, email, full_name, class_level)
        SELECT a.id, $2, a.email, $3, $4 FROM accounts a WHERE a.id=$1
        ON CONFLICT (id) DO UPDATE
        SET full_name=EXCLUDED.full_name,
            class_level=COALESCE(EXCLUDED.class_level, profiles.class_level),
            updated_at=NOW()
        RETURNING ` + profileColumns
	return scanProfile(r.pool.QueryRow(ctx, query, id, string(role), fullName, classLevel))
}

func (r *profileRepository) UpdateStreak(ctx context.Context, id string, streak int, activeOn time.Time) error {
	const query = `
        UPDATE profiles SET current_streak=$2, last_active_date=$3, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, streak, activeOn)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) List(ctx context.Context, search string, limit int) ([]domain.Profile, error) {
	const query = `
        SELECT ` + profileColumns + `
        FROM profiles
        WHERE $1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
        ORDER BY created_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, search, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *profileRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error) {
	const query = `
        UPDATE profiles SET role=$2, updated_at=NOW()
        WHERE id=$1
        RETURNING ` + profileColumns
	return scanProfile(r.pool.QueryRow(ctx, query, id, string(role)))
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var role string
	if err := row.Scan(
		&p.ID,
		&role,
		&p.FullName,
		&p.ClassLevel,
		&p.Email,
		&p.CurrentStreak,
		&p.LastActiveDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	// unknown stored roles are kept verbatim so routing can report them
	p.Role = domain.Role(role)
	return &p, nil
}
