// Package navigation decides which screen a caller may stay on given their
// session and profile, and where to send them otherwise.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/domain"
)

var (
	// ErrSuperseded is returned when a newer evaluation started while this one
	// was waiting on the profile lookup. The result must be discarded.
	ErrSuperseded = errors.New("navigation: evaluation superseded")
	// ErrUnhandledRole is returned for roles that have no routing rule.
	ErrUnhandledRole = errors.New("navigation: no routing rule for role")
)

// Action tells the caller what to do with the current screen.
type Action string

const (
	ActionNone    Action = "none"
	ActionLoading Action = "loading"
	ActionReplace Action = "replace"
)

// Decision is the outcome of one guard evaluation.
type Decision struct {
	Action   Action `json:"action"`
	Location string `json:"location,omitempty"`
}

// State is the input of one evaluation.
type State struct {
	Loading bool
	Session *domain.Session
	Path    string
}

// ProfileSource loads the profile of a signed-in user. A nil profile with a nil
// error means the user has no profile yet.
type ProfileSource interface {
	FetchProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// ProfileSourceFunc adapts a function to ProfileSource.
type ProfileSourceFunc func(ctx context.Context, userID string) (*domain.Profile, error)

// FetchProfile calls f.
func (f ProfileSourceFunc) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return f(ctx, userID)
}

// Option configures a Guard.
type Option func(*Guard)

// WithTrustRoleZones skips the profile lookup while the caller already sits in
// one of the role zones.
func WithTrustRoleZones(trust bool) Option {
	return func(g *Guard) { g.trustRoleZones = trust }
}

// WithLogger sets the guard logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

type redirectKey struct {
	session string
	path    string
	target  string
}

// Guard evaluates navigation events for one client. It is safe for concurrent use.
type Guard struct {
	profiles       ProfileSource
	logger         *zap.Logger
	trustRoleZones bool

	seq      atomic.Uint64
	checking atomic.Int32

	mu   sync.Mutex
	last *redirectKey
}

// NewGuard builds a guard backed by the given profile source.
func NewGuard(profiles ProfileSource, opts ...Option) *Guard {
	g := &Guard{profiles: profiles, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Checking reports whether a profile lookup is in flight.
func (g *Guard) Checking() bool {
	return g.checking.Load() > 0
}

// Evaluate decides whether the screen in st may stay, must be replaced, or
// should show a loading indicator.
func (g *Guard) Evaluate(ctx context.Context, st State) (Decision, error) {
	stamp := g.seq.Add(1)

	if st.Loading {
		return Decision{Action: ActionLoading}, nil
	}

	loc := ParseLocation(st.Path)

	if st.Session == nil {
		if loc.Zone == ZoneAuth {
			return g.settle(), nil
		}
		return g.replace(redirectKey{path: loc.Path, target: WelcomePath}), nil
	}

	// never interrupt the profile form while the user is typing
	if loc.Path == SetupProfilePath {
		return g.settle(), nil
	}
	if g.trustRoleZones && loc.Zone.IsRoleZone() {
		return g.settle(), nil
	}

	profile := g.fetchProfile(ctx, st.Session.UserID)
	if g.seq.Load() != stamp {
		return Decision{Action: ActionNone}, ErrSuperseded
	}

	target, err := Route(profile, loc)
	if err != nil {
		g.settle()
		return Decision{Action: ActionNone}, err
	}
	if target == "" {
		return g.settle(), nil
	}
	return g.replace(redirectKey{session: sessionKey(st.Session), path: loc.Path, target: target}), nil
}

// Route returns the screen a signed-in user with profile must be sent to from
// loc, or "" when loc is permitted.
func Route(profile *domain.Profile, loc Location) (string, error) {
	if !profile.HasName() {
		return SetupProfilePath, nil
	}

	switch profile.Role {
	case domain.RoleParent:
		return redirectUnless(loc, ZoneParent, ParentHomePath), nil
	case domain.RoleTeacher:
		return redirectUnless(loc, ZoneTeacher, TeacherHomePath), nil
	case domain.RoleStudent:
		if !profile.HasClass() {
			return SetupProfilePath, nil
		}
		return redirectUnless(loc, ZoneStudent, StudentHomePath), nil
	case domain.RoleSuperAdmin:
		return redirectUnless(loc, ZoneStudent, StudentHomePath), nil
	case domain.RoleAdmin:
		return "", fmt.Errorf("%w: %s", ErrUnhandledRole, profile.Role)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnhandledRole, string(profile.Role))
	}
}

func redirectUnless(loc Location, zone Zone, target string) string {
	if loc.Zone == zone {
		return ""
	}
	return target
}

func (g *Guard) fetchProfile(ctx context.Context, userID string) *domain.Profile {
	if g.profiles == nil {
		return nil
	}
	g.checking.Add(1)
	defer g.checking.Add(-1)

	profile, err := g.profiles.FetchProfile(ctx, userID)
	if err != nil {
		// a failed lookup routes exactly like a missing profile
		g.logger.Warn("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return profile
}

// Reset forgets the pending redirect. Call it once the navigator has applied
// the redirect, so returning to the forbidden screen redirects again.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.last = nil
	g.mu.Unlock()
}

func (g *Guard) settle() Decision {
	g.mu.Lock()
	g.last = nil
	g.mu.Unlock()
	return Decision{Action: ActionNone}
}

func (g *Guard) replace(key redirectKey) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last != nil && *g.last == key {
		return Decision{Action: ActionNone}
	}
	g.last = &key
	return Decision{Action: ActionReplace, Location: key.target}
}

func sessionKey(s *domain.Session) string {
	if s.TokenID != "" {
		return s.UserID + "/" + s.TokenID
	}
	return s.UserID
}
