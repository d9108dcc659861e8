// Package guard prevents duplicate submission of user-triggered mutations and fences superseded fetches.
//
// A [Guard] has two states, idle and in flight. Entering while in flight is rejected, never queued, and
// there is no timeout: a hung mutation keeps its guard closed until the call returns. A [Sequence] issues
// monotonically increasing tokens so that only the newest request of a kind may apply its response.
package guard

import (
	"sync/atomic"

	"github.com/desertthunder/nowplaying/internal/shared"
)

// Guard is a single-flight latch for one class of mutation.
//
// The zero value is ready to use. Guards are per feature instance (one per view, one per workflow),
// never global.
type Guard struct {
	name     string
	inFlight atomic.Bool
}

// New creates a named Guard. The name only appears in errors and logs.
func New(name string) *Guard {
	return &Guard{name: name}
}

// Name returns the guard's name.
func (g *Guard) Name() string { return g.name }

// TryEnter moves the guard from idle to in flight and reports whether it did.
func (g *Guard) TryEnter() bool {
	return g.inFlight.CompareAndSwap(false, true)
}

// Leave returns the guard to idle. Leaving an idle guard is a no-op.
func (g *Guard) Leave() {
	g.inFlight.Store(false)
}

// InFlight reports whether a mutation currently holds the guard.
func (g *Guard) InFlight() bool {
	return g.inFlight.Load()
}

// Do runs fn when the guard can be entered and leaves it once fn returns, on success and on failure.
//
// When the guard is already in flight fn is not called, ran is false and err wraps [shared.ErrInFlight].
func (g *Guard) Do(fn func() error) (ran bool, err error) {
	if !g.TryEnter() {
		if g.name == "" {
			return false, shared.ErrInFlight
		}
		return false, &inFlightError{name: g.name}
	}
	defer g.Leave()
	return true, fn()
}

type inFlightError struct{ name string }

func (e *inFlightError) Error() string { return e.name + ": " + shared.ErrInFlight.Error() }
func (e *inFlightError) Unwrap() error { return shared.ErrInFlight }

// Token identifies one issued request.
type Token uint64

// Sequence fences concurrent fetches of the same kind so that the newest call wins.
//
// The zero value is ready to use.
type Sequence struct {
	latest atomic.Uint64
}

// Next issues a token that supersedes every token issued before it.
func (s *Sequence) Next() Token {
	return Token(s.latest.Add(1))
}

// Current reports whether t is still the newest issued token.
func (s *Sequence) Current(t Token) bool {
	return s.latest.Load() == uint64(t)
}
