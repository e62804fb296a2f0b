package navigation

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/domain"
)

// SessionState is the auth state shared with the router.
type SessionState struct {
	Session *domain.Session
	Loading bool
}

// SessionContext holds the current session and notifies subscribers on change.
type SessionContext struct {
	mu    sync.RWMutex
	state SessionState
	subs  map[int]func(SessionState)
	next  int
}

// NewSessionContext starts in the loading state until the first Set.
func NewSessionContext() *SessionContext {
	return &SessionContext{
		state: SessionState{Loading: true},
		subs:  make(map[int]func(SessionState)),
	}
}

// State returns a snapshot of the current state.
func (c *SessionContext) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Set records a session (nil when signed out) and ends loading.
func (c *SessionContext) Set(session *domain.Session) {
	c.update(func(SessionState) SessionState {
		return SessionState{Session: session, Loading: false}
	})
}

// SetLoading toggles the loading flag, keeping the current session.
func (c *SessionContext) SetLoading(loading bool) {
	c.update(func(st SessionState) SessionState {
		st.Loading = loading
		return st
	})
}

// Subscribe registers fn for state changes. The returned func unsubscribes.
func (c *SessionContext) Subscribe(fn func(SessionState)) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *SessionContext) update(change func(SessionState) SessionState) {
	c.mu.Lock()
	st := change(c.state)
	c.state = st
	subs := make([]func(SessionState), 0, len(c.subs))
	for i := 0; i < c.next; i++ {
		if fn, ok := c.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Navigator performs screen changes. Replace must not push a back-stack entry.
type Navigator interface {
	Replace(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Replace calls f.
func (f NavigatorFunc) Replace(path string) { f(path) }

// Router re-runs the guard whenever the session or the current path changes.
type Router struct {
	guard    *Guard
	sessions *SessionContext
	nav      Navigator
	logger   *zap.Logger

	mu          sync.Mutex
	path        string
	unsubscribe func()
}

// NewRouter binds guard, session context and navigator. Session changes
// trigger an evaluation of the current path.
func NewRouter(guard *Guard, sessions *SessionContext, nav Navigator, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{guard: guard, sessions: sessions, nav: nav, logger: logger}
	r.unsubscribe = sessions.Subscribe(func(SessionState) {
		if _, err := r.evaluate(context.Background()); err != nil {
			r.logger.Debug("session change evaluation", zap.Error(err))
		}
	})
	return r
}

// Navigate records path as the current screen and evaluates it.
func (r *Router) Navigate(ctx context.Context, path string) (Decision, error) {
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
	return r.evaluate(ctx)
}

// Path returns the current screen.
func (r *Router) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Close stops listening to session changes.
func (r *Router) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func (r *Router) evaluate(ctx context.Context) (Decision, error) {
	st := r.sessions.State()
	path := r.Path()

	decision, err := r.guard.Evaluate(ctx, State{Loading: st.Loading, Session: st.Session, Path: path})
	if errors.Is(err, ErrSuperseded) {
		return decision, nil
	}
	if err != nil {
		r.logger.Warn("navigation guard", zap.String("path", path), zap.Error(err))
		return decision, err
	}
	if decision.Action == ActionReplace {
		r.mu.Lock()
		if r.path == path {
			r.path = decision.Location
		}
		r.mu.Unlock()
		r.nav.Replace(decision.Location)
		r.guard.Reset()
	}
	return decision, nil
}
