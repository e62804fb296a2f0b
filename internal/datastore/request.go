package datastore

import (
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// Filter is one equality condition; a nil Value matches NULL.
type Filter struct {
	Column string
	Value  any
}

// Request is a query read from URL parameters in the PostgREST dialect:
// select=a,b  col=eq.value  col=is.null  order=col.desc  limit=n
type Request struct {
	Select    []string
	Filters   []Filter
	Order     string
	Ascending bool
	Limit     int
}

// ParseRequest reads params. Filter order follows the sorted column names.
func ParseRequest(params map[string]string) (Request, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var req Request
	for _, key := range keys {
		raw := params[key]
		switch key {
		case "select":
			for _, c := range strings.Split(raw, ",") {
				if c = strings.TrimSpace(c); c != "" && c != "*" {
					req.Select = append(req.Select, c)
				}
			}
		case "order":
			col, dir, _ := strings.Cut(raw, ".")
			switch dir {
			case "", "asc":
				req.Ascending = true
			case "desc":
			default:
				return Request{}, apperrors.NewValidationError("order direction must be asc or desc", map[string]any{"order": raw})
			}
			req.Order = col
		case "limit":
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return Request{}, apperrors.NewValidationError("limit must be a non-negative integer", map[string]any{"limit": raw})
			}
			req.Limit = n
		default:
			f, err := parseFilter(key, raw)
			if err != nil {
				return Request{}, err
			}
			req.Filters = append(req.Filters, f)
		}
	}
	return req, nil
}

func parseFilter(column, raw string) (Filter, error) {
	op, value, ok := strings.Cut(raw, ".")
	if !ok {
		return Filter{}, apperrors.NewValidationError("filter must look like eq.value", map[string]any{column: raw})
	}
	switch op {
	case "eq":
		return Filter{Column: column, Value: value}, nil
	case "is":
		switch value {
		case "null":
			return Filter{Column: column, Value: nil}, nil
		case "true":
			return Filter{Column: column, Value: true}, nil
		case "false":
			return Filter{Column: column, Value: false}, nil
		}
	}
	return Filter{}, apperrors.NewValidationError("unsupported filter", map[string]any{column: raw})
}

// Apply adds the request's clauses to q.
func (r Request) Apply(q *Query) *Query {
	q = q.Select(r.Select...)
	for _, f := range r.Filters {
		q = q.Eq(f.Column, f.Value)
	}
	if r.Order != "" {
		q = q.Order(r.Order, r.Ascending)
	}
	if r.Limit > 0 {
		q = q.Limit(r.Limit)
	}
	return q
}
