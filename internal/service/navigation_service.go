package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/domain"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/navigation"
	"github.com/spec-kit/classroom-service/internal/observability"
	apperrors "github.com/spec-kit/classroom-service/pkg/util"
)

const guardPruneInterval = time.Minute

type sessionGuard struct {
	guard     *navigation.Guard
	expiresAt time.Time
}

// NavigationService runs the route guard on behalf of clients. Each session
// gets its own guard so repeated redirects stay idempotent per client.
type NavigationService struct {
	profiles navigation.ProfileSource
	options  []navigation.Option
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	guards    map[string]*sessionGuard
	lastPrune time.Time
}

// NewNavigationService builds the service.
func NewNavigationService(cfg config.NavigationConfig, profiles navigation.ProfileSource, metrics *observability.Metrics, logger *zap.Logger) *NavigationService {
	logger = orNop(logger)
	return &NavigationService{
		profiles: profiles,
		options: []navigation.Option{
			navigation.WithTrustRoleZones(cfg.TrustRoleZones),
			navigation.WithLogger(logger),
		},
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		guards:  make(map[string]*sessionGuard),
	}
}

// RegisterHandlers drops a session's guard when the session ends.
func (s *NavigationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventSessionEnded, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.SessionPayload)
		if !ok {
			return errors.New("session ended without token id")
		}
		s.Forget(payload.TokenID)
		return nil
	})
}

// Resolve evaluates path for the caller. session is nil for signed-out callers.
func (s *NavigationService) Resolve(ctx context.Context, session *domain.Session, path string, loading bool) (navigation.Decision, error) {
	guard := s.guardFor(session)
	// every request reports where the client is now, so an earlier redirect
	// it asked about has either been applied or was lost
	guard.Reset()
	decision, err := guard.Evaluate(ctx, navigation.State{Loading: loading, Session: session, Path: path})
	switch {
	case errors.Is(err, navigation.ErrSuperseded):
		// a newer request from the same client owns the answer
		return navigation.Decision{Action: navigation.ActionNone}, nil
	case errors.Is(err, navigation.ErrUnhandledRole):
		return decision, apperrors.NewDomainError("UNHANDLED_ROLE", "no home screen for this role", http.StatusUnprocessableEntity, nil)
	case err != nil:
		return decision, err
	}
	if decision.Action == navigation.ActionReplace {
		s.metrics.RecordRedirect(decision.Location)
	}
	return decision, nil
}

// Forget drops the guard of tokenID.
func (s *NavigationService) Forget(tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guards, tokenID)
}

// ActiveGuards reports how many sessions currently hold a guard.
func (s *NavigationService) ActiveGuards() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guards)
}

func (s *NavigationService) guardFor(session *domain.Session) *navigation.Guard {
	if session == nil {
		return navigation.NewGuard(s.profiles, s.options...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastPrune) >= guardPruneInterval {
		for id, sg := range s.guards {
			if !now.Before(sg.expiresAt) {
				delete(s.guards, id)
			}
		}
		s.lastPrune = now
	}

	sg, ok := s.guards[session.TokenID]
	if !ok {
		sg = &sessionGuard{guard: navigation.NewGuard(s.profiles, s.options...), expiresAt: session.ExpiresAt}
		s.guards[session.TokenID] = sg
	}
	return sg.guard
}
