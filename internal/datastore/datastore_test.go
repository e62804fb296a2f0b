package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

func testStore() *Store {
	return New(nil, Schema{
		"topics":  {"id", "subject_id", "title"},
		"lessons": {"id", "topic_id", "title", "image_url"},
	})
}

func TestSelectSQL(t *testing.T) {
	q := testStore().Table("topics").Select("id", "title").Eq("subject_id", "s1").Order("title", true).Limit(5)

	sql, args, err := q.selectSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "title" FROM "topics" WHERE "subject_id" = $1 ORDER BY "title" ASC LIMIT 5`, sql)
	assert.Equal(t, []any{"s1"}, args)
}

func TestSelectNullFilter(t *testing.T) {
	sql, args, err := testStore().Table("lessons").Eq("topic_id", nil).Eq("title", "x").selectSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "lessons" WHERE "topic_id" IS NULL AND "title" = $1`, sql)
	assert.Equal(t, []any{"x"}, args)
}

func TestInsertSQL(t *testing.T) {
	q := testStore().Table("lessons")
	sql, args, err := q.insertSQL([]Row{
		{"title": "Cells", "topic_id": "t1"},
		{"title": "Atoms", "topic_id": "t2"},
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "lessons" ("title", "topic_id") VALUES ($1, $2), ($3, $4) RETURNING *`, sql)
	assert.Equal(t, []any{"Cells", "t1", "Atoms", "t2"}, args)
}

func TestInsertRejectsMismatchedRows(t *testing.T) {
	_, _, err := testStore().Table("lessons").insertSQL([]Row{{"title": "a"}, {"topic_id": "t"}})
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))
}

func TestUpdateSQL(t *testing.T) {
	q := testStore().Table("lessons").Eq("id", "l1")
	sql, args, err := q.updateSQL(Row{"title": "New", "image_url": "u"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "lessons" SET "image_url" = $1, "title" = $2 WHERE "id" = $3 RETURNING *`, sql)
	assert.Equal(t, []any{"u", "New", "l1"}, args)
}

func TestDeleteSQL(t *testing.T) {
	sql, args, err := testStore().Table("topics").Eq("id", "t9").deleteSQL()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "topics" WHERE "id" = $1`, sql)
	assert.Equal(t, []any{"t9"}, args)
}

func TestValidationFailures(t *testing.T) {
	ctx := context.Background()
	s := testStore()

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "unknown table", run: func() error { _, err := s.Table("accounts").List(ctx); return err }},
		{name: "unknown column", run: func() error { _, err := s.Table("topics").Select("password").List(ctx); return err }},
		{name: "unknown filter column", run: func() error { _, err := s.Table("topics").Eq("nope", 1).List(ctx); return err }},
		{name: "negative limit", run: func() error { _, err := s.Table("topics").Limit(-1).List(ctx); return err }},
		{name: "unfiltered delete", run: func() error { _, err := s.Table("topics").Delete(ctx); return err }},
		{name: "unfiltered update", run: func() error { _, err := s.Table("topics").Update(ctx, Row{"title": "x"}); return err }},
		{name: "empty update", run: func() error { _, err := s.Table("topics").Eq("id", "1").Update(ctx, Row{}); return err }},
		{name: "empty insert", run: func() error { _, err := s.Table("topics").Insert(ctx); return err }},
		{name: "insert unknown column", run: func() error { _, err := s.Table("topics").Insert(ctx, Row{"x": 1}); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"), err.Error())
		})
	}
}

func TestCountSQL(t *testing.T) {
	sql, args, err := testStore().Table("topics").Eq("subject_id", "s").countSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "topics" WHERE "subject_id" = $1`, sql)
	assert.Equal(t, []any{"s"}, args)
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(map[string]string{
		"select":     "id, title",
		"topic_id":   "eq.7",
		"image_url":  "is.null",
		"order":      "created_at.desc",
		"limit":      "5",
		"is_premium": "is.true",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, req.Select)
	assert.Equal(t, []Filter{
		{Column: "image_url", Value: nil},
		{Column: "is_premium", Value: true},
		{Column: "topic_id", Value: "7"},
	}, req.Filters)
	assert.Equal(t, "created_at", req.Order)
	assert.False(t, req.Ascending)
	assert.Equal(t, 5, req.Limit)

	req, err = ParseRequest(map[string]string{"order": "title"})
	require.NoError(t, err)
	assert.True(t, req.Ascending)

	for _, bad := range []map[string]string{
		{"limit": "-1"},
		{"limit": "ten"},
		{"order": "title.sideways"},
		{"title": "like.abc"},
		{"title": "neq.abc"},
		{"duration_minutes": "gt.10"},
		{"id": "in.(1,2)"},
		{"title": "abc"},
		{"title": "is.maybe"},
	} {
		_, err := ParseRequest(bad)
		assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"), bad)
	}
}

func TestRequestApply(t *testing.T) {
	s := New(nil, DefaultSchema)
	req := Request{Select: []string{"id"}, Filters: []Filter{{Column: "topic_id", Value: "7"}}, Order: "title", Ascending: true, Limit: 3}

	sql, args, err := req.Apply(s.Table("lessons")).selectSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "lessons" WHERE "topic_id" = $1 ORDER BY "title" ASC LIMIT 3`, sql)
	assert.Equal(t, []any{"7"}, args)
}
