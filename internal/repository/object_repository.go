package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StoredObject is an uploaded file.
type StoredObject struct {
	Bucket      string
	Key         string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// ObjectRepository keeps uploaded files.
type ObjectRepository interface {
	Put(ctx context.Context, obj *StoredObject) error
	Get(ctx context.Context, bucket, key string) (*StoredObject, error)
}

type objectRepository struct {
	pool *pgxpool.Pool
}

// NewObjectRepository returns a Postgres-backed implementation.
func NewObjectRepository(pool *pgxpool.Pool) ObjectRepository {
	return &objectRepository{pool: pool}
}

func (r *objectRepository) Put(ctx context.Context, obj *StoredObject) error {
	const query = `
        INSERT INTO storage_objects (bucket, key, content_type, data)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (bucket, key) DO UPDATE
        SET content_type=EXCLUDED.content_type, data=EXCLUDED.data, created_at=NOW()
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query, obj.Bucket, obj.Key, obj.ContentType, obj.Data).Scan(&obj.CreatedAt)
}

func (r *objectRepository) Get(ctx context.Context, bucket, key string) (*StoredObject, error) {
	const query = `
        SELECT bucket, key, content_type, data, created_at
        FROM storage_objects WHERE bucket=$1 AND key=$2`
	var obj StoredObject
	if err := r.pool.QueryRow(ctx, query, bucket, key).Scan(
		&obj.Bucket, &obj.Key, &obj.ContentType, &obj.Data, &obj.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &obj, nil
}
