package service

import (
	"context"

	"github.com/spec-kit/classroom-service/internal/datastore"
	"github.com/spec-kit/classroom-service/internal/domain"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// tablePolicy says who may touch an exposed table through the generic API.
type tablePolicy struct {
	staffRead bool
	writable  bool
}

// questions carry the correct option, so only staff read them directly.
var tablePolicies = map[string]tablePolicy{
	"profiles":           {},
	"subjects":           {writable: true},
	"topics":             {writable: true},
	"lessons":            {writable: true},
	"questions":          {staffRead: true, writable: true},
	"exams":              {writable: true},
	"exam_questions":     {staffRead: true, writable: true},
	"quiz_results":       {},
	"exam_results":       {},
	"classrooms":         {},
	"classroom_students": {},
	"class_posts":        {writable: true},
	"parent_students":    {},
}

// DataService exposes table access to authenticated callers under tablePolicies.
type DataService struct {
	store *datastore.Store
}

// NewDataService builds the service.
func NewDataService(store *datastore.Store) *DataService {
	return &DataService{store: store}
}

// List runs a select.
func (s *DataService) List(ctx context.Context, role domain.Role, table string, req datastore.Request) ([]datastore.Row, error) {
	if err := s.authorize(role, table, false); err != nil {
		return nil, err
	}
	return req.Apply(s.store.Table(table)).List(ctx)
}

// Insert writes rows and returns them, restricted to the requested columns.
func (s *DataService) Insert(ctx context.Context, role domain.Role, table string, rows []datastore.Row, req datastore.Request) ([]datastore.Row, error) {
	if err := s.authorize(role, table, true); err != nil {
		return nil, err
	}
	return s.store.Table(table).Select(req.Select...).Insert(ctx, rows...)
}

// Update applies fields to the rows matched by req's filters.
func (s *DataService) Update(ctx context.Context, role domain.Role, table string, fields datastore.Row, req datastore.Request) ([]datastore.Row, error) {
	if err := s.authorize(role, table, true); err != nil {
		return nil, err
	}
	return filtered(s.store.Table(table).Select(req.Select...), req).Update(ctx, fields)
}

// Delete removes the rows matched by req's filters.
func (s *DataService) Delete(ctx context.Context, role domain.Role, table string, req datastore.Request) (int64, error) {
	if err := s.authorize(role, table, true); err != nil {
		return 0, err
	}
	return filtered(s.store.Table(table), req).Delete(ctx)
}

func (s *DataService) authorize(role domain.Role, table string, write bool) error {
	policy, ok := tablePolicies[table]
	if !ok {
		return apperrors.NewNotFound("table", map[string]any{"table": table})
	}
	if write && !policy.writable {
		return apperrors.NewForbidden("table is read-only")
	}
	if (write || policy.staffRead) && !role.IsStaff() {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

func filtered(q *datastore.Query, req datastore.Request) *datastore.Query {
	for _, f := range req.Filters {
		q = q.Eq(f.Column, f.Value)
	}
	return q
}
