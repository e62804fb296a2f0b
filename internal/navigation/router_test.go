package navigation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/classroom-service/internal/domain"
)

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) replaced() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func TestSessionContextSubscribe(t *testing.T) {
	sessions := NewSessionContext()
	assert.True(t, sessions.State().Loading)

	var seen []SessionState
	unsubscribe := sessions.Subscribe(func(st SessionState) { seen = append(seen, st) })

	sessions.Set(signedIn)
	sessions.SetLoading(true)
	unsubscribe()
	sessions.Set(nil)

	require.Len(t, seen, 2)
	assert.Equal(t, SessionState{Session: signedIn}, seen[0])
	assert.Equal(t, SessionState{Session: signedIn, Loading: true}, seen[1])
	assert.Equal(t, SessionState{}, sessions.State())
}

func TestRouterFollowsSessionChanges(t *testing.T) {
	sessions := NewSessionContext()
	nav := &recordingNavigator{}
	profiles := &stubProfiles{profile: &domain.Profile{ID: "u1", Role: domain.RoleParent, FullName: strPtr("P")}}
	router := NewRouter(NewGuard(profiles), sessions, nav, nil)
	defer router.Close()

	d, err := router.Navigate(context.Background(), "/parent/dashboard")
	require.NoError(t, err)
	assert.Equal(t, ActionLoading, d.Action)

	// sign-out while sitting in the parent zone
	sessions.Set(nil)
	assert.Equal(t, []string{WelcomePath}, nav.replaced())
	assert.Equal(t, WelcomePath, router.Path())

	// sign-in from the welcome screen
	sessions.Set(signedIn)
	assert.Equal(t, []string{WelcomePath, ParentHomePath}, nav.replaced())

	d, err = router.Navigate(context.Background(), ParentHomePath)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, d.Action)
	assert.Len(t, nav.replaced(), 2)
}

func TestRouterReportsUnhandledRole(t *testing.T) {
	sessions := NewSessionContext()
	sessions.Set(signedIn)
	nav := &recordingNavigator{}
	profiles := &stubProfiles{profile: &domain.Profile{ID: "u1", Role: domain.RoleAdmin, FullName: strPtr("A")}}
	router := NewRouter(NewGuard(profiles), sessions, nav, nil)
	defer router.Close()

	_, err := router.Navigate(context.Background(), "/auth/login")
	assert.ErrorIs(t, err, ErrUnhandledRole)
	assert.Empty(t, nav.replaced())
}

func TestRouterRedirectsEveryReturnToForbiddenZone(t *testing.T) {
	sessions := NewSessionContext()
	sessions.Set(signedIn)
	nav := &recordingNavigator{}
	profiles := &stubProfiles{profile: &domain.Profile{ID: "u1", Role: domain.RoleTeacher, FullName: strPtr("Mr. A")}}
	router := NewRouter(NewGuard(profiles), sessions, nav, nil)
	defer router.Close()

	for i := 0; i < 3; i++ {
		d, err := router.Navigate(context.Background(), "/student/home")
		require.NoError(t, err)
		assert.Equal(t, Decision{Action: ActionReplace, Location: TeacherHomePath}, d, "attempt %d", i)
		assert.Equal(t, TeacherHomePath, router.Path())
	}
	assert.Equal(t, []string{TeacherHomePath, TeacherHomePath, TeacherHomePath}, nav.replaced())
}

func TestSessionContextSetLoadingKeepsConcurrentSession(t *testing.T) {
	sessions := NewSessionContext()
	sessions.Set(nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			sessions.SetLoading(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		sessions.Set(signedIn)
	}()
	wg.Wait()

	// the sign-in must survive every toggle that raced with it
	sessions.SetLoading(false)
	assert.Equal(t, SessionState{Session: signedIn}, sessions.State())
}
