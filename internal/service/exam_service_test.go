package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

type examFixture struct {
	svc     *ExamService
	results *fakeResults
	events  *recordedEvents
	clock   *time.Time
}

func newExamFixture(t *testing.T) examFixture {
	_, client := newTestRedis(t)
	ten := 10
	questions := &fakeQuestions{
		exams: map[string]*domain.Exam{
			"timed":   {ID: "timed", Title: "Maths", DurationMinutes: &ten},
			"untimed": {ID: "untimed", Title: "English"},
		},
		byExam: map[string][]domain.Question{
			"timed": {
				{ID: "q1", Options: []string{"A", "B"}, CorrectOption: "A"},
				{ID: "q2", Options: []string{"A", "B"}, CorrectOption: "B"},
			},
		},
	}
	results := &fakeResults{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	rec := recordAll(dispatcher, events.EventExamSubmitted)

	svc := NewExamService(config.ExamConfig{DefaultDurationMinutes: 30}, ExamDependencies{
		QuestionRepo: questions,
		ResultRepo:   results,
		Sessions:     cache.NewExamSessionStore(client),
		Dispatcher:   dispatcher,
	})
	clock := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return clock }
	return examFixture{svc: svc, results: results, events: rec, clock: &clock}
}

func (f examFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestStartExam(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	timed, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)
	assert.Equal(t, "10:00", timed.Remaining)
	assert.Len(t, timed.Questions, 2)

	untimed, err := f.svc.StartExam(ctx, "s1", "untimed")
	require.NoError(t, err)
	assert.Equal(t, "30:00", untimed.Remaining)

	f.advance(90 * time.Second)
	resumed, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)
	assert.Equal(t, timed.Session.ID, resumed.Session.ID)
	assert.Equal(t, "8:30", resumed.Remaining)

	_, err = f.svc.StartExam(ctx, "s1", "missing")
	assert.True(t, apperrors.IsDomainCode(err, "NOT_FOUND"))
}

func TestAnswerAndSubmit(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)
	id := view.Session.ID

	_, err = f.svc.Answer(ctx, "s1", id, "q1", "A")
	require.NoError(t, err)
	_, err = f.svc.Answer(ctx, "s1", id, "q9", "A")
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))
	_, err = f.svc.Answer(ctx, "s1", id, "q2", "Z")
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))
	_, err = f.svc.Answer(ctx, "intruder", id, "q2", "B")
	assert.True(t, apperrors.IsDomainCode(err, "NOT_FOUND"))

	result, err := f.svc.Submit(ctx, "s1", id)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)

	_, err = f.svc.Submit(ctx, "s1", id)
	assert.True(t, apperrors.IsDomainCode(err, "CONFLICT"))
	_, err = f.svc.Answer(ctx, "s1", id, "q2", "B")
	assert.True(t, apperrors.IsDomainCode(err, "CONFLICT"))

	got, err := f.svc.GetSession(ctx, "s1", id)
	require.NoError(t, err)
	assert.True(t, got.Session.Submitted)
	require.NotNil(t, got.Session.Score)
	assert.Equal(t, 50, *got.Session.Score)
	assert.Len(t, f.results.exams, 1)
}

func TestAnswerAfterDeadlineRejected(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	_, err = f.svc.Answer(ctx, "s1", view.Session.ID, "q1", "A")
	assert.True(t, apperrors.IsDomainCode(err, "CONFLICT"))
}

func TestSweepSubmitsExpiredExams(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	view, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)
	_, err = f.svc.Answer(ctx, "s1", view.Session.ID, "q2", "B")
	require.NoError(t, err)
	_, err = f.svc.StartExam(ctx, "s2", "untimed")
	require.NoError(t, err)

	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.advance(11 * time.Minute)
	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.results.exams, 1)
	assert.Equal(t, 50, f.results.exams[0].Score)

	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.Submit(ctx, "s1", view.Session.ID)
	assert.True(t, apperrors.IsDomainCode(err, "CONFLICT"))
	assert.Len(t, f.events.types(), 1)
}

func TestSubmitRetriesAfterStorageFailure(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()
	f.results.examErrs = []error{errors.New("db down")}

	view, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)
	id := view.Session.ID
	_, err = f.svc.Answer(ctx, "s1", id, "q1", "A")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "s1", id)
	require.EqualError(t, err, "db down")
	assert.Empty(t, f.results.exams)

	resumed, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)
	assert.Equal(t, id, resumed.Session.ID)
	assert.Equal(t, "A", resumed.Session.Answers["q1"])

	result, err := f.svc.Submit(ctx, "s1", id)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.Len(t, f.results.exams, 1)
}

func TestSweepRetriesAfterStorageFailure(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()
	f.results.examErrs = []error{errors.New("db down")}

	_, err := f.svc.StartExam(ctx, "s1", "timed")
	require.NoError(t, err)

	f.advance(11 * time.Minute)
	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.results.exams)

	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.results.exams, 1)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0:00", FormatRemaining(-time.Second))
	assert.Equal(t, "0:59", FormatRemaining(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "30:00", FormatRemaining(30*time.Minute))
}
