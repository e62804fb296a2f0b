package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/repository"
)

// ObjectStorage stores uploaded files.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	Download(ctx context.Context, bucket, key string) (*repository.StoredObject, error)
}

// StorageHandler uploads and serves bucket objects.
type StorageHandler struct {
	storage ObjectStorage
}

// NewStorageHandler constructs handler.
func NewStorageHandler(storage ObjectStorage) *StorageHandler {
	return &StorageHandler{storage: storage}
}

// Upload handles PUT /storage/:bucket/*. The raw body is the file.
func (h *StorageHandler) Upload(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns
	data := append([]byte(nil), c.Body()...)
	url, err := h.storage.Upload(c.UserContext(), c.Params("bucket"), c.Params("*"), c.Get(fiber.HeaderContentType), data)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, fiber.Map{"public_url": url})
}

// Download handles GET /storage/:bucket/*.
func (h *StorageHandler) Download(c *fiber.Ctx) error {
	obj, err := h.storage.Download(c.UserContext(), c.Params("bucket"), c.Params("*"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, obj.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(obj.Data)
}
