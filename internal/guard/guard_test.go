package guard

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/nowplaying/internal/shared"
)

func TestGuard(t *testing.T) {
	t.Run("TryEnter rejects re-entry", func(t *testing.T) {
		g := New("create playlist")
		if !g.TryEnter() {
			t.Fatal("expected first entry to succeed")
		}
		if g.TryEnter() {
			t.Fatal("expected second entry to be rejected")
		}
		if !g.InFlight() {
			t.Error("expected guard to be in flight")
		}

		g.Leave()
		if g.InFlight() {
			t.Error("expected guard to be idle after Leave")
		}
		if !g.TryEnter() {
			t.Error("expected entry to succeed after Leave")
		}
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var g Guard
		ran, err := g.Do(func() error { return nil })
		if !ran || err != nil {
			t.Errorf("expected run without error, got ran=%v err=%v", ran, err)
		}
	})

	t.Run("Do leaves on failure", func(t *testing.T) {
		g := New("delete playlist")
		boom := errors.New("boom")

		ran, err := g.Do(func() error { return boom })
		if !ran {
			t.Fatal("expected fn to run")
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected fn's error, got %v", err)
		}
		if g.InFlight() {
			t.Error("guard should be idle after a failed mutation")
		}
	})

	t.Run("Do leaves on panic", func(t *testing.T) {
		g := New("panicky")
		func() {
			defer func() { _ = recover() }()
			g.Do(func() error { panic("boom") })
		}()
		if g.InFlight() {
			t.Error("guard should be idle after fn panics")
		}
	})

	t.Run("Do rejects while in flight", func(t *testing.T) {
		g := New("save playlist")
		calls := 0

		ran, err := g.Do(func() error {
			calls++
			ran, err := g.Do(func() error {
				calls++
				return nil
			})
			if ran {
				t.Error("nested Do should not run")
			}
			if !errors.Is(err, shared.ErrInFlight) {
				t.Errorf("expected ErrInFlight, got %v", err)
			}
			return nil
		})

		if !ran || err != nil {
			t.Errorf("outer Do: ran=%v err=%v", ran, err)
		}
		if calls != 1 {
			t.Errorf("expected exactly one call, got %d", calls)
		}
	})

	t.Run("concurrent triggers run once", func(t *testing.T) {
		g := New("follow")
		release := make(chan struct{})
		entered := make(chan struct{})
		var calls atomic.Int32

		go g.Do(func() error {
			calls.Add(1)
			close(entered)
			<-release
			return nil
		})
		<-entered

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				g.Do(func() error {
					calls.Add(1)
					return nil
				})
			}()
		}
		wg.Wait()
		close(release)

		if got := calls.Load(); got != 1 {
			t.Errorf("expected 1 call while in flight, got %d", got)
		}
	})
}

func TestSequence(t *testing.T) {
	t.Run("newest token wins", func(t *testing.T) {
		var s Sequence
		first := s.Next()
		if !s.Current(first) {
			t.Fatal("expected first token to be current")
		}

		second := s.Next()
		if s.Current(first) {
			t.Error("expected first token to be superseded")
		}
		if !s.Current(second) {
			t.Error("expected second token to be current")
		}
	})

	t.Run("unissued token is never current", func(t *testing.T) {
		var s Sequence
		s.Next()
		if s.Current(Token(99)) {
			t.Error("expected unknown token to be stale")
		}
	})
}
