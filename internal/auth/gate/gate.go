// Package gate decides which surface an account sees: the sign-in
// flow, the one-time onboarding step, or the main app.
package gate

import (
	"context"
	"sync"

	"github.com/billfold/billfold/internal/auth/domain"
)

// State is the routing decision.
type State string

const (
	// StateUnknown holds until the first session restore settles.
	StateUnknown State = "unknown"
	StateSignedOut State = "signed_out"
	// StateOnboarding means signed in with setup unfinished.
	StateOnboarding State = "onboarding"
	StateReady      State = "ready"
)

// Resolve maps an account (or its absence) to a routing state.
func Resolve(user *domain.User) State {
	switch {
	case user == nil:
		return StateSignedOut
	case !user.Onboarded():
		return StateOnboarding
	default:
		return StateReady
	}
}

// Gate tracks the current routing state and notifies listeners when it
// changes. Safe for concurrent use.
type Gate struct {
	mu        sync.Mutex
	state     State
	listeners []func(State)
}

func New() *Gate {
	return &Gate{state: StateUnknown}
}

// State returns the current routing state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// OnChange registers a listener invoked on every state transition.
func (g *Gate) OnChange(fn func(State)) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

// Apply feeds the latest account into the gate. A no-op when the
// resolved state matches the current one.
func (g *Gate) Apply(user *domain.User) State {
	return g.set(Resolve(user))
}

// SignOut forces the signed-out state, regardless of prior state.
func (g *Gate) SignOut() {
	g.set(StateSignedOut)
}

// Restore settles the initial state from a stored session token. Any
// authentication failure, expired session included, lands on
// signed-out rather than an error surface.
func (g *Gate) Restore(ctx context.Context, auth domain.Service, token string) State {
	if token == "" {
		return g.set(StateSignedOut)
	}
	user, err := auth.Authenticate(ctx, token)
	if err != nil {
		return g.set(StateSignedOut)
	}
	return g.Apply(&user)
}

func (g *Gate) set(next State) State {
	g.mu.Lock()
	if g.state == next {
		g.mu.Unlock()
		return next
	}
	g.state = next
	listeners := append(([]func(State))(nil), g.listeners...)
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}
