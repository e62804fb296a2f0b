package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// AccountRepository persists sign-in credentials.
type AccountRepository interface {
	// CreateWithProfile inserts the account and its bare profile atomically.
	CreateWithProfile(ctx context.Context, account *domain.Account, role domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Delete removes the account; the profile and its results cascade.
	Delete(ctx context.Context, id string) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) CreateWithProfile(ctx context.Context, account *domain.Account, role domain.Role) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertAccount = `
        INSERT INTO accounts (email, password_hash)
        VALUES ($1, $2)
        RETURNING id, created_at`
		if err := tx.QueryRow(ctx, insertAccount, account.Email, account.PasswordHash).
			Scan(&account.ID, &account.CreatedAt); err != nil {
			return err
		}

		const insertProfile = `
        INSERT INTO profiles (id, role, email)
        VALUES ($1, $2, $3)`
		_, err := tx.Exec(ctx, insertProfile, account.ID, role, account.Email)
		return err
	})
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `
        SELECT id, email, password_hash, created_at
        FROM accounts WHERE id=$1`
	return r.scanOne(ctx, query, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT id, email, password_hash, created_at
        FROM accounts WHERE lower(email)=lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *accountRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) scanOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
