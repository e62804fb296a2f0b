// Package datastore is the generic table access used by screens that only need
// plain select/insert/update/delete against a known table.
package datastore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

// Row is one record keyed by column name.
type Row = map[string]any

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema lists the exposed tables and their columns.
type Schema map[string][]string

// Has reports whether table exists and, when given, every column belongs to it.
func (s Schema) Has(table string, columns ...string) error {
	cols, ok := s[table]
	if !ok {
		return apperrors.NewValidationError("unknown table", map[string]any{"table": table})
	}
	for _, c := range columns {
		found := false
		for _, known := range cols {
			if known == c {
				found = true
				break
			}
		}
		if !found {
			return apperrors.NewValidationError("unknown column", map[string]any{"table": table, "column": c})
		}
	}
	return nil
}

// Store builds queries against db restricted to schema.
type Store struct {
	db     Querier
	schema Schema
}

// New returns a Store.
func New(db Querier, schema Schema) *Store {
	return &Store{db: db, schema: schema}
}

// Schema returns the exposed tables.
func (s *Store) Schema() Schema {
	return s.schema
}

// Table starts a query on name.
func (s *Store) Table(name string) *Query {
	q := &Query{store: s, table: name}
	if err := s.schema.Has(name); err != nil {
		q.err = err
	}
	return q
}

type filter struct {
	column string
	value  any
}

// Query is a chainable statement builder. Errors are deferred to execution.
type Query struct {
	store     *Store
	table     string
	columns   []string
	filters   []filter
	orderBy   string
	ascending bool
	limit     int
	err       error
}

// Select restricts the returned columns. No call, or "*", selects every column.
func (q *Query) Select(columns ...string) *Query {
	for _, c := range columns {
		c = strings.TrimSpace(c)
		if c == "" || c == "*" {
			continue
		}
		q.check(c)
		q.columns = append(q.columns, c)
	}
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.check(column)
	q.filters = append(q.filters, filter{column: column, value: value})
	return q
}

// Order sorts by column.
func (q *Query) Order(column string, ascending bool) *Query {
	q.check(column)
	q.orderBy = column
	q.ascending = ascending
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		q.fail(apperrors.NewValidationError("limit must not be negative", nil))
	}
	q.limit = n
	return q
}

// List returns every matching row.
func (q *Query) List(ctx context.Context) ([]Row, error) {
	sql, args, err := q.selectSQL()
	if err != nil {
		return nil, err
	}
	return q.collect(ctx, sql, args)
}

// Single returns exactly one row; zero rows is NOT_FOUND, more is a validation error.
func (q *Query) Single(ctx context.Context) (Row, error) {
	row, err := q.MaybeSingle(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperrors.NewNotFound(q.table, nil)
	}
	return row, nil
}

// MaybeSingle returns the only matching row or nil when there is none.
func (q *Query) MaybeSingle(ctx context.Context) (Row, error) {
	if q.limit == 0 || q.limit > 2 {
		q.limit = 2
	}
	rows, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, apperrors.NewValidationError("expected a single row", map[string]any{"table": q.table})
	}
}

// Count returns the number of matching rows.
func (q *Query) Count(ctx context.Context) (int64, error) {
	sql, args, err := q.countSQL()
	if err != nil {
		return 0, err
	}
	var n int64
	rows, err := q.store.db.Query(ctx, sql, append([]any{pgx.QueryExecModeSimpleProtocol}, args...)...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// Insert writes rows and returns them as stored.
func (q *Query) Insert(ctx context.Context, rows ...Row) ([]Row, error) {
	sql, args, err := q.insertSQL(rows)
	if err != nil {
		return nil, err
	}
	return q.collect(ctx, sql, args)
}

// Update sets fields on every row matching the filters and returns them.
func (q *Query) Update(ctx context.Context, fields Row) ([]Row, error) {
	sql, args, err := q.updateSQL(fields)
	if err != nil {
		return nil, err
	}
	return q.collect(ctx, sql, args)
}

// Delete removes every row matching the filters.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	sql, args, err := q.deleteSQL()
	if err != nil {
		return 0, err
	}
	tag, err := q.store.db.Exec(ctx, sql, append([]any{pgx.QueryExecModeSimpleProtocol}, args...)...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Query) collect(ctx context.Context, sql string, args []any) ([]Row, error) {
	// simple protocol lets Postgres coerce text filter values to the column type
	rows, err := q.store.db.Query(ctx, sql, append([]any{pgx.QueryExecModeSimpleProtocol}, args...)...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Row{}
	}
	return out, nil
}

func (q *Query) check(column string) {
	if q.err != nil {
		return
	}
	q.fail(q.store.schema.Has(q.table, column))
}

func (q *Query) fail(err error) {
	if q.err == nil && err != nil {
		q.err = err
	}
}

func (q *Query) selectSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	cols := "*"
	if len(q.columns) > 0 {
		cols = identList(q.columns)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, ident(q.table))
	args := q.where(&b, 0)
	if q.orderBy != "" {
		dir := "DESC"
		if q.ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", ident(q.orderBy), dir)
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.limit))
	}
	return b.String(), args, nil
}

func (q *Query) countSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT COUNT(*) FROM %s", ident(q.table))
	args := q.where(&b, 0)
	return b.String(), args, nil
}

func (q *Query) insertSQL(rows []Row) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if len(rows) == 0 {
		return "", nil, apperrors.NewValidationError("nothing to insert", nil)
	}
	columns := sortedKeys(rows[0])
	if len(columns) == 0 {
		return "", nil, apperrors.NewValidationError("nothing to insert", nil)
	}
	if err := q.store.schema.Has(q.table, columns...); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", ident(q.table), identList(columns))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, apperrors.NewValidationError("rows must share the same columns", nil)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, c := range columns {
			v, ok := row[c]
			if !ok {
				return "", nil, apperrors.NewValidationError("rows must share the same columns", nil)
			}
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			b.WriteString("$" + strconv.Itoa(len(args)))
		}
		b.WriteString(")")
	}
	b.WriteString(" RETURNING " + q.returning())
	return b.String(), args, nil
}

func (q *Query) updateSQL(fields Row) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if len(q.filters) == 0 {
		return "", nil, apperrors.NewValidationError("update requires a filter", nil)
	}
	columns := sortedKeys(fields)
	if len(columns) == 0 {
		return "", nil, apperrors.NewValidationError("nothing to update", nil)
	}
	if err := q.store.schema.Has(q.table, columns...); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET ", ident(q.table))
	args := make([]any, 0, len(columns)+len(q.filters))
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, fields[c])
		fmt.Fprintf(&b, "%s = $%d", ident(c), len(args))
	}
	args = append(args, q.where(&b, len(args))...)
	b.WriteString(" RETURNING " + q.returning())
	return b.String(), args, nil
}

func (q *Query) deleteSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if len(q.filters) == 0 {
		return "", nil, apperrors.NewValidationError("delete requires a filter", nil)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s", ident(q.table))
	args := q.where(&b, 0)
	return b.String(), args, nil
}

func (q *Query) where(b *strings.Builder, offset int) []any {
	args := make([]any, 0, len(q.filters))
	for i, f := range q.filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		if f.value == nil {
			fmt.Fprintf(b, "%s IS NULL", ident(f.column))
			continue
		}
		args = append(args, f.value)
		fmt.Fprintf(b, "%s = $%d", ident(f.column), offset+len(args))
	}
	return args
}

func (q *Query) returning() string {
	if len(q.columns) > 0 {
		return identList(q.columns)
	}
	return "*"
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = ident(n)
	}
	return strings.Join(quoted, ", ")
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
