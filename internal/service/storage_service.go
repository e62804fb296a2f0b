package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/repository"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

var objectKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-/]*$`)

// StorageService stores uploaded files in allowed buckets.
type StorageService struct {
	objects  repository.ObjectRepository
	buckets  map[string]struct{}
	maxBytes int
	baseURL  string
}

// NewStorageService builds the service.
func NewStorageService(cfg config.Config, objects repository.ObjectRepository) *StorageService {
	buckets := make(map[string]struct{}, len(cfg.Storage.Buckets))
	for _, b := range cfg.Storage.Buckets {
		buckets[b] = struct{}{}
	}
	return &StorageService{
		objects:  objects,
		buckets:  buckets,
		maxBytes: cfg.Storage.MaxObjectBytes,
		baseURL:  strings.TrimRight(cfg.App.PublicBaseURL, "/"),
	}
}

// Upload stores data under bucket/key, replacing any previous object, and
// returns its public URL.
func (s *StorageService) Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	if err := s.check(bucket, key); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", apperrors.NewValidationError("empty upload", nil)
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return "", apperrors.NewDomainError("PAYLOAD_TOO_LARGE", "file is too large", http.StatusRequestEntityTooLarge,
			map[string]any{"max_bytes": s.maxBytes})
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	obj := &repository.StoredObject{Bucket: bucket, Key: key, ContentType: contentType, Data: data}
	if err := s.objects.Put(ctx, obj); err != nil {
		return "", err
	}
	return s.PublicURL(bucket, key), nil
}

// Download returns the stored object.
func (s *StorageService) Download(ctx context.Context, bucket, key string) (*repository.StoredObject, error) {
	if err := s.check(bucket, key); err != nil {
		return nil, err
	}
	obj, err := s.objects.Get(ctx, bucket, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("object", map[string]any{"bucket": bucket, "key": key})
	}
	return obj, err
}

// PublicURL is where clients fetch bucket/key.
func (s *StorageService) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/storage/%s/%s", s.baseURL, bucket, key)
}

func (s *StorageService) check(bucket, key string) error {
	if _, ok := s.buckets[bucket]; !ok {
		return apperrors.NewNotFound("bucket", map[string]any{"bucket": bucket})
	}
	if !objectKeyPattern.MatchString(key) || strings.Contains(key, "..") {
		return apperrors.NewValidationError("invalid object key", map[string]any{"key": key})
	}
	return nil
}
