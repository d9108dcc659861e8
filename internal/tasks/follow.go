package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/nowplaying/internal/guard"
	"github.com/desertthunder/nowplaying/internal/notify"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// FollowToggle is the follow button of one profile view. Each view owns its own toggle and guard.
type FollowToggle struct {
	backend  services.Backend
	notifier *notify.Notifier
	logger   *log.Logger
	guard    *guard.Guard
	userID   string

	mu        sync.Mutex
	following bool
}

// NewFollowToggle creates a toggle for userID starting at following.
func NewFollowToggle(lib *Library, userID string, following bool) *FollowToggle {
	return &FollowToggle{
		backend:   lib.backend,
		notifier:  lib.notifier,
		logger:    lib.logger,
		guard:     guard.New("follow " + userID),
		userID:    userID,
		following: following,
	}
}

// Following reports the displayed state, which is optimistic while a toggle is in flight.
func (f *FollowToggle) Following() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.following
}

// Toggle flips the follow state now and confirms it with the backend, restoring the previous state when
// the backend call fails. It returns the resulting state.
func (f *FollowToggle) Toggle(ctx context.Context) (bool, error) {
	if f.userID == "" {
		return f.Following(), fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	_, err := f.guard.Do(func() error {
		f.mu.Lock()
		f.following = !f.following
		follow := f.following
		f.mu.Unlock()

		var err error
		if follow {
			err = f.backend.FollowUser(ctx, f.userID)
		} else {
			err = f.backend.UnfollowUser(ctx, f.userID)
		}

		if err != nil {
			f.mu.Lock()
			f.following = !follow
			f.mu.Unlock()

			f.logger.Error("follow toggle failed", "user", f.userID, "follow", follow, "error", err)
			f.notifier.Notify("Could not update follow status", notify.Error)
			return err
		}

		if follow {
			f.notifier.Notify("Following", notify.Success)
		} else {
			f.notifier.Notify("Unfollowed", notify.Success)
		}
		return nil
	})
	return f.Following(), err
}
