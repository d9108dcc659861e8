package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/nowplaying/internal/guard"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/notify"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// TrackCacher persists tracks seen in backend responses.
type TrackCacher interface {
	CacheTrack(track models.Track) error
}

// Home is the content of the home screen.
type Home struct {
	Songs      []models.Track
	History    []models.HistoryEntry
	HistoryErr error // set when history could not be loaded; Songs is still valid
}

// PlaylistDraft is a playlist being created (empty ID) or edited.
type PlaylistDraft struct {
	ID      string
	Name    string
	OwnerID string
	Tracks  []models.Track
}

// Library runs fetch and mutation workflows against the backend.
type Library struct {
	backend  services.Backend
	notifier *notify.Notifier
	logger   *log.Logger
	cache    TrackCacher

	songs   guard.Sequence
	history guard.Sequence

	save   *guard.Guard
	remove *guard.Guard
}

// LibraryOption configures a [Library].
type LibraryOption func(*Library)

// WithTrackCache caches every fetched track through c.
func WithTrackCache(c TrackCacher) LibraryOption {
	return func(l *Library) { l.cache = c }
}

// NewLibrary creates a Library. notifier and logger may be nil.
func NewLibrary(backend services.Backend, notifier *notify.Notifier, logger *log.Logger, opts ...LibraryOption) *Library {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if notifier == nil {
		notifier = notify.New(0, logger)
	}

	l := &Library{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		save:     guard.New("save playlist"),
		remove:   guard.New("delete playlist"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Notifier returns the notifier toasts are sent to.
func (l *Library) Notifier() *notify.Notifier { return l.notifier }

// LoadSongs fetches one page of songs. When another LoadSongs call started after this one, the result
// is discarded and [shared.ErrStaleResponse] is returned.
func (l *Library) LoadSongs(ctx context.Context, limit, offset int) ([]models.Track, error) {
	token := l.songs.Next()
	tracks, err := l.backend.FetchSongs(ctx, limit, offset)
	if !l.songs.Current(token) {
		l.logger.Debug("dropping superseded songs response", "limit", limit, "offset", offset)
		return nil, shared.ErrStaleResponse
	}
	if err != nil {
		l.fail("Could not load songs", err)
		return nil, err
	}

	l.cacheTracks(tracks)
	return tracks, nil
}

// LoadHistory fetches userID's listening history, fenced like [Library.LoadSongs].
func (l *Library) LoadHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	token := l.history.Next()
	entries, err := l.backend.FetchUserHistory(ctx, userID, limit, offset)
	if !l.history.Current(token) {
		l.logger.Debug("dropping superseded history response", "user", userID)
		return nil, shared.ErrStaleResponse
	}
	if err != nil {
		l.fail("Could not load history", err)
		return nil, err
	}

	l.cacheTracks(models.HistoryTracks(entries))
	return entries, nil
}

// LoadHome fetches songs and, when userID is set, history concurrently. Only a songs failure is fatal.
func (l *Library) LoadHome(ctx context.Context, userID string, limit int) (*Home, error) {
	home := &Home{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		songs, err := l.LoadSongs(gctx, limit, 0)
		if err != nil {
			return err
		}
		home.Songs = songs
		return nil
	})

	if userID != "" {
		g.Go(func() error {
			token := l.history.Next()
			entries, err := l.backend.FetchUserHistory(gctx, userID, limit, 0)
			switch {
			case !l.history.Current(token):
				home.HistoryErr = shared.ErrStaleResponse
			case err != nil:
				l.logger.Warn("history unavailable", "user", userID, "error", err)
				home.HistoryErr = err
			default:
				home.History = entries
				l.cacheTracks(models.HistoryTracks(entries))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return home, nil
}

// LoadPlaylist fetches a playlist with its tracks.
func (l *Library) LoadPlaylist(ctx context.Context, id string) (*models.PlaylistWithTracks, error) {
	pl, err := l.backend.FetchPlaylistWithSongs(ctx, id)
	if err != nil {
		l.fail("Could not load playlist", err)
		return nil, err
	}
	l.cacheTracks(pl.Tracks)
	return pl, nil
}

// LoadUserPlaylists lists userID's playlists.
func (l *Library) LoadUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	pls, err := l.backend.FetchUserPlaylists(ctx, userID)
	if err != nil {
		l.fail("Could not load playlists", err)
		return nil, err
	}
	return pls, nil
}

// SavePlaylist creates draft when it has no ID and updates it otherwise.
//
// Only one save runs at a time. A save triggered while another is in flight returns
// [shared.ErrInFlight] without a backend call or a toast.
func (l *Library) SavePlaylist(ctx context.Context, draft PlaylistDraft) (*models.Playlist, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	var saved *models.Playlist
	_, err := l.save.Do(func() error {
		ids := services.TrackIDs(draft.Tracks)
		creating := draft.ID == ""

		var err error
		if creating {
			l.notifier.Notify("Creating playlist...", notify.Loading)
			saved, err = l.backend.CreatePlaylist(ctx, name, ids, draft.OwnerID)
		} else {
			l.notifier.Notify("Saving playlist...", notify.Loading)
			saved, err = l.backend.UpdatePlaylist(ctx, draft.ID, name, ids)
		}
		if err != nil {
			l.fail("Could not save playlist", err)
			return err
		}

		verb := "updated"
		if creating {
			verb = "created"
		}
		l.notifier.Notify(fmt.Sprintf("Playlist %q %s", saved.Name, verb), notify.Success)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// DeletePlaylist removes id from set immediately and deletes it on the backend. When the backend refuses,
// the playlist is put back at its original position.
func (l *Library) DeletePlaylist(ctx context.Context, set *PlaylistSet, id string) error {
	_, err := l.remove.Do(func() error {
		index, removed, ok := set.Remove(id)
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}

		l.notifier.Notify(fmt.Sprintf("Deleting %q...", removed.Name), notify.Loading)
		if err := l.backend.DeletePlaylist(ctx, id); err != nil {
			set.Insert(index, removed)
			l.fail("Could not delete playlist", err)
			return err
		}

		l.notifier.Notify(fmt.Sprintf("Deleted %q", removed.Name), notify.Success)
		return nil
	})
	return err
}

// RecordPlayback reports a played library track. It matches [playback.PlaybackRecorder].
func (l *Library) RecordPlayback(ctx context.Context, track models.Track) error {
	if !track.Persisted() {
		return nil
	}
	return l.backend.RecordPlayback(ctx, track.LocalID)
}

// Silent reports whether err should not be shown to the user.
func Silent(err error) bool {
	return errors.Is(err, shared.ErrInFlight) || errors.Is(err, shared.ErrStaleResponse)
}

func (l *Library) fail(message string, err error) {
	l.logger.Error(message, "error", err)
	l.notifier.Notify(message, notify.Error)
}

func (l *Library) cacheTracks(tracks []models.Track) {
	if l.cache == nil {
		return
	}
	for _, t := range tracks {
		if t.ExternalMediaID == "" {
			continue
		}
		if err := l.cache.CacheTrack(t); err != nil {
			l.logger.Warn("failed to cache track", "track", t.String(), "error", err)
		}
	}
}
