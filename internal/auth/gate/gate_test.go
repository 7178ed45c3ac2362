package gate

import (
	"context"
	"testing"

	"github.com/billfold/billfold/internal/auth/domain"
	"github.com/stretchr/testify/assert"
)

type stubAuth struct {
	domain.Service
	user domain.User
	err  error
}

func (s stubAuth) Authenticate(context.Context, string) (domain.User, error) {
	return s.user, s.err
}

func TestResolve(t *testing.T) {
	assert.Equal(t, StateSignedOut, Resolve(nil))
	assert.Equal(t, StateOnboarding, Resolve(&domain.User{}))
	assert.Equal(t, StateReady, Resolve(&domain.User{DisplayName: "Dana"}))
}

func TestRestore(t *testing.T) {
	t.Run("no stored token", func(t *testing.T) {
		g := New()
		assert.Equal(t, StateUnknown, g.State())
		assert.Equal(t, StateSignedOut, g.Restore(context.Background(), stubAuth{}, ""))
	})

	t.Run("expired session lands signed out", func(t *testing.T) {
		g := New()
		state := g.Restore(context.Background(), stubAuth{err: domain.ErrSessionExpired}, "tok")
		assert.Equal(t, StateSignedOut, state)
	})

	t.Run("valid session routes by onboarding", func(t *testing.T) {
		g := New()
		state := g.Restore(context.Background(), stubAuth{user: domain.User{DisplayName: "Dana"}}, "tok")
		assert.Equal(t, StateReady, state)
	})
}

func TestOnChangeFiresPerTransition(t *testing.T) {
	g := New()

	var seen []State
	g.OnChange(func(s State) { seen = append(seen, s) })

	g.SignOut()
	g.SignOut() // same state, no second notification
	g.Apply(&domain.User{})
	g.Apply(&domain.User{DisplayName: "Dana"})

	assert.Equal(t, []State{StateSignedOut, StateOnboarding, StateReady}, seen)
}
