package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// TrackCacheAdapter implements tasks.TrackCacher using TrackRepository.
//
// Tracks are keyed by external media id. A known track is refreshed only when its metadata changed.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack inserts track or refreshes the cached copy.
// Concurrent inserts of the same track are ignored (UNIQUE constraint violations).
func (a *TrackCacheAdapter) CacheTrack(track models.Track) error {
	existing, err := a.repo.GetByExternalID(track.ExternalMediaID)
	switch {
	case err == nil:
		if existing.Track() == merge(existing.Track(), track) {
			return nil
		}
		existing.SetTrack(merge(existing.Track(), track))
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached track: %w", err)
		}
		return nil
	case !errors.Is(err, shared.ErrTrackNotFound):
		return fmt.Errorf("failed to look up cached track: %w", err)
	}

	err = a.repo.Create(models.NewCachedTrack(0, track))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// Lookup returns the cached copy of the track with externalMediaID.
func (a *TrackCacheAdapter) Lookup(externalMediaID string) (models.Track, bool) {
	cached, err := a.repo.GetByExternalID(externalMediaID)
	if err != nil {
		return models.Track{}, false
	}
	return cached.Track(), true
}

// merge overlays the non-empty fields of fresh onto cached.
func merge(cached, fresh models.Track) models.Track {
	out := cached
	if fresh.LocalID != "" {
		out.LocalID = fresh.LocalID
	}
	if fresh.Title != "" {
		out.Title = fresh.Title
	}
	if fresh.Artist != "" {
		out.Artist = fresh.Artist
	}
	if fresh.Genre != "" {
		out.Genre = fresh.Genre
	}
	if fresh.DurationSeconds > 0 {
		out.DurationSeconds = fresh.DurationSeconds
	}
	if fresh.AudioURL != "" {
		out.AudioURL = fresh.AudioURL
	}
	return out
}
