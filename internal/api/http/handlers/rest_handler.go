package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/datastore"
	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// TableAccess is the generic table API.
type TableAccess interface {
	List(ctx context.Context, role domain.Role, table string, req datastore.Request) ([]datastore.Row, error)
	Insert(ctx context.Context, role domain.Role, table string, rows []datastore.Row, req datastore.Request) ([]datastore.Row, error)
	Update(ctx context.Context, role domain.Role, table string, fields datastore.Row, req datastore.Request) ([]datastore.Row, error)
	Delete(ctx context.Context, role domain.Role, table string, req datastore.Request) (int64, error)
}

// RestHandler maps /rest/:table onto TableAccess using select, order, limit
// and col=eq.value query parameters.
type RestHandler struct {
	tables TableAccess
}

// NewRestHandler constructs handler.
func NewRestHandler(tables TableAccess) *RestHandler {
	return &RestHandler{tables: tables}
}

// List handles GET /rest/:table.
func (h *RestHandler) List(c *fiber.Ctx) error {
	role, req, err := h.prepare(c)
	if err != nil {
		return err
	}
	rows, err := h.tables.List(c.UserContext(), role, c.Params("table"), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, rows)
}

// Insert handles POST /rest/:table with one object or an array of objects.
func (h *RestHandler) Insert(c *fiber.Ctx) error {
	role, req, err := h.prepare(c)
	if err != nil {
		return err
	}
	body, err := decodeBody(c.Body())
	if err != nil {
		return err
	}
	var rows []datastore.Row
	switch v := body.(type) {
	case map[string]any:
		rows = []datastore.Row{v}
	case []any:
		for _, item := range v {
			row, ok := item.(map[string]any)
			if !ok {
				return apperrors.NewValidationError("rows must be objects", nil)
			}
			rows = append(rows, row)
		}
	default:
		return apperrors.NewValidationError("body must be an object or an array of objects", nil)
	}
	inserted, err := h.tables.Insert(c.UserContext(), role, c.Params("table"), rows, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, inserted)
}

// Update handles PATCH /rest/:table.
func (h *RestHandler) Update(c *fiber.Ctx) error {
	role, req, err := h.prepare(c)
	if err != nil {
		return err
	}
	body, err := decodeBody(c.Body())
	if err != nil {
		return err
	}
	fields, ok := body.(map[string]any)
	if !ok {
		return apperrors.NewValidationError("body must be an object", nil)
	}
	updated, err := h.tables.Update(c.UserContext(), role, c.Params("table"), fields, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated)
}

// Delete handles DELETE /rest/:table.
func (h *RestHandler) Delete(c *fiber.Ctx) error {
	role, req, err := h.prepare(c)
	if err != nil {
		return err
	}
	n, err := h.tables.Delete(c.UserContext(), role, c.Params("table"), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"deleted": n})
}

// prepare reads the caller role, loaded by auth.RequireRole, and the query parameters.
func (h *RestHandler) prepare(c *fiber.Ctx) (domain.Role, datastore.Request, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p.Profile == nil {
		return "", datastore.Request{}, apperrors.NewForbidden("profile required")
	}
	req, err := datastore.ParseRequest(c.Queries())
	if err != nil {
		return "", datastore.Request{}, err
	}
	return p.Profile.Role, req, nil
}

func decodeBody(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	return normalize(body), nil
}

// normalize turns json.Number into int64 or float64 and string arrays into []string
// so pgx can encode them for the column types.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case []any:
		strs := make([]string, 0, len(t))
		for i, item := range t {
			t[i] = normalize(item)
			if s, ok := t[i].(string); ok {
				strs = append(strs, s)
			}
		}
		if len(strs) == len(t) && len(t) > 0 {
			return strs
		}
		return t
	default:
		return v
	}
}
