package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/cache"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/repository"
)

// Feed item kinds.
const (
	FeedQuiz = "quiz"
	FeedExam = "exam"
)

// NotificationService fans student results out to their parents' feeds.
type NotificationService struct {
	parents repository.ParentRepository
	feed    *cache.ParentFeed
	logger  *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(parents repository.ParentRepository, feed *cache.ParentFeed, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		parents: parents,
		feed:    feed,
		logger:  orNop(logger),
	}
}

// RegisterHandlers subscribes to result and link events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventQuizSubmitted, n.handleQuizSubmitted)
	dispatcher.Subscribe(events.EventExamSubmitted, n.handleExamSubmitted)
	dispatcher.Subscribe(events.EventChildLinked, n.handleChildLinked)
}

// Feed returns the parent's latest items.
func (n *NotificationService) Feed(ctx context.Context, parentID string, limit int) ([]cache.FeedItem, error) {
	return n.feed.List(ctx, parentID, limit)
}

func (n *NotificationService) handleQuizSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QuizSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	score := payload.Score
	return n.fanOut(ctx, event.UserID, cache.FeedItem{
		Kind:      FeedQuiz,
		StudentID: event.UserID,
		SubjectID: payload.TopicID,
		Score:     &score,
		At:        event.Timestamp,
	})
}

func (n *NotificationService) handleExamSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ExamSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	score := payload.Score
	return n.fanOut(ctx, event.UserID, cache.FeedItem{
		Kind:      FeedExam,
		StudentID: event.UserID,
		SubjectID: payload.ExamID,
		Score:     &score,
		At:        event.Timestamp,
	})
}

func (n *NotificationService) handleChildLinked(_ context.Context, event events.Event) error {
	n.logger.Info("ChildLinked", zap.String("parent_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) fanOut(ctx context.Context, studentID string, item cache.FeedItem) error {
	parents, err := n.parents.ParentsOf(ctx, studentID)
	if err != nil {
		return err
	}
	for _, parentID := range parents {
		if err := n.feed.Push(ctx, parentID, item); err != nil {
			return err
		}
	}
	n.logger.Debug("result delivered", zap.String("kind", item.Kind), zap.Int("parents", len(parents)))
	return nil
}
