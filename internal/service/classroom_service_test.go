package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

func TestRandomClassCode(t *testing.T) {
	shape := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 200; i++ {
		assert.Regexp(t, shape, randomClassCode())
	}
}

func TestCreateClassroomRetriesOnCollision(t *testing.T) {
	repo := newFakeClassrooms()
	svc := NewClassroomService(repo, nil, nil)
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	svc.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}
	ctx := context.Background()

	first, err := svc.CreateClassroom(ctx, "t1", "JSS 1 Maths")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)

	second, err := svc.CreateClassroom(ctx, "t1", "JSS 2 Maths")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.Code)

	_, err = svc.CreateClassroom(ctx, "t1", "  ")
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))

	svc.newCode = func() string { return "AAAAAA" }
	_, err = svc.CreateClassroom(ctx, "t1", "Doomed")
	assert.True(t, apperrors.IsDomainCode(err, "CONFLICT"))

	mine, err := svc.ListClassrooms(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestJoinClassroom(t *testing.T) {
	repo := newFakeClassrooms()
	dispatcher := events.NewInMemoryDispatcher(nil)
	rec := recordAll(dispatcher, events.EventClassroomJoined)
	svc := NewClassroomService(repo, dispatcher, nil)
	svc.newCode = func() string { return "XY12AB" }
	ctx := context.Background()

	class, err := svc.CreateClassroom(ctx, "t1", "SSS 1 Physics")
	require.NoError(t, err)

	joined, err := svc.JoinClassroom(ctx, "s1", " xy12ab ")
	require.NoError(t, err)
	assert.Equal(t, class.ID, joined.ID)

	_, err = svc.JoinClassroom(ctx, "s1", "XY12AB")
	require.Error(t, err)
	assert.True(t, apperrors.IsDomainCode(err, "CONFLICT"))
	assert.Equal(t, "you are already in this class", apperrors.ToDomainError(err).Message)

	_, err = svc.JoinClassroom(ctx, "s1", "ABC")
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))

	_, err = svc.JoinClassroom(ctx, "s1", "ZZZZZZ")
	assert.True(t, apperrors.IsDomainCode(err, "NOT_FOUND"))
	assert.Equal(t, "invalid class code", apperrors.ToDomainError(err).Message)

	assert.Len(t, rec.types(), 1)
}

func TestLinkChildAndFeed(t *testing.T) {
	_, client := newTestRedis(t)
	profiles := newFakeProfiles(
		&domain.Profile{ID: "kid", Role: domain.RoleStudent, Email: "kid@example.com"},
		&domain.Profile{ID: "teach", Role: domain.RoleTeacher, Email: "teach@example.com"},
	)
	parents := newFakeParents()
	dispatcher := events.NewInMemoryDispatcher(nil)
	notifications := NewNotificationService(parents, cache.NewParentFeed(client), nil)
	notifications.RegisterHandlers(dispatcher)
	svc := NewParentService(parents, profiles, dispatcher, nil)
	ctx := context.Background()

	child, err := svc.LinkChild(ctx, "p1", "KID@example.com")
	require.NoError(t, err)
	assert.Equal(t, "kid", child.ID)

	_, err = svc.LinkChild(ctx, "p1", "kid@example.com")
	assert.True(t, apperrors.IsDomainCode(err, "CONFLICT"))
	assert.Equal(t, "you already linked this student", apperrors.ToDomainError(err).Message)

	_, err = svc.LinkChild(ctx, "p1", "nobody@example.com")
	assert.True(t, apperrors.IsDomainCode(err, "NOT_FOUND"))
	_, err = svc.LinkChild(ctx, "p1", "teach@example.com")
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))
	_, err = svc.LinkChild(ctx, "p1", "")
	assert.True(t, apperrors.IsDomainCode(err, "VALIDATION_FAILED"))

	children, err := svc.Children(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, children, 1)

	none, err := svc.Children(ctx, "p2")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	questions := &fakeQuestions{topics: map[string][]domain.Question{"t1": topicQuestions()}}
	quiz := NewQuizService(questions, &fakeResults{}, dispatcher, nil)
	_, err = quiz.SubmitQuiz(ctx, "kid", "t1", map[string]string{"q1": "4", "q2": "6", "q3": "8"})
	require.NoError(t, err)

	feed, err := notifications.Feed(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, FeedQuiz, feed[0].Kind)
	assert.Equal(t, "kid", feed[0].StudentID)
	assert.Equal(t, 100, *feed[0].Score)
	assert.WithinDuration(t, time.Now(), feed[0].At, time.Minute)
}
