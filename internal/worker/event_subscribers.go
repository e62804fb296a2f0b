package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/events"
)

// EventSubscriber reacts to domain events published by services.
type EventSubscriber interface {
	RegisterHandlers(dispatcher events.Dispatcher)
}

// StartEventSubscribers attaches every subscriber to dispatcher. Handlers run
// on the publishing goroutine, so they must not block for long.
func StartEventSubscribers(dispatcher events.Dispatcher, logger *zap.Logger, subscribers ...EventSubscriber) {
	for _, s := range subscribers {
		if s == nil {
			continue
		}
		s.RegisterHandlers(dispatcher)
	}
	if logger != nil {
		logger.Info("event subscribers registered", zap.Int("count", len(subscribers)))
	}
}
