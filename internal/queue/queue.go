// Package queue holds the ordered list of tracks eligible for playback and the active index into it.
//
// All index arithmetic goes through [NormalizeIndex], so next/prev wrap around and an empty queue always
// reports index 0 with no active track. A Queue is not safe for concurrent use; the playback session
// serializes access to it.
package queue

import (
	"slices"

	"github.com/desertthunder/nowplaying/internal/models"
)

// NormalizeIndex maps i into [0, length) with wrap-around. It returns 0 when length <= 0.
func NormalizeIndex(i, length int) int {
	if length <= 0 {
		return 0
	}
	i %= length
	if i < 0 {
		i += length
	}
	return i
}

// Queue is the playback queue: an ordered track list plus the active index.
type Queue struct {
	tracks []models.Track
	index  int
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Load replaces the queue with tracks.
//
// When start is non-nil and matches a track (by local id, else external media id), that track becomes
// active; otherwise index 0 does.
func (q *Queue) Load(tracks []models.Track, start *models.Identity) {
	q.tracks = slices.Clone(tracks)
	q.index = 0
	if start == nil {
		return
	}
	if i := models.IndexOf(q.tracks, *start); i >= 0 {
		q.index = i
	}
}

// SetActiveByIdentity makes track the active one, the "play this" entry point.
//
// A non-empty context becomes the new queue. With no context the current queue is reused, and an empty
// current queue makes this a no-op. A track with neither id matches an entry only when every field is
// equal. When track is missing from the queue it is inserted at the front so the requested track is
// always the one that plays. Reports whether the queue has an active track.
func (q *Queue) SetActiveByIdentity(track models.Track, context []models.Track) bool {
	if len(context) > 0 {
		q.tracks = slices.Clone(context)
	} else if len(q.tracks) == 0 {
		return false
	}

	i := models.IndexOf(q.tracks, track.Identity())
	if i < 0 && !track.Persisted() && track.ExternalMediaID == "" {
		i = slices.Index(q.tracks, track)
	}
	if i < 0 {
		q.tracks = slices.Insert(q.tracks, 0, track)
		i = 0
	}
	q.index = i
	return true
}

// Advance moves the active index by direction (+1 next, -1 previous) with wrap-around and returns the new
// active track. An empty queue returns false and stays at index 0.
func (q *Queue) Advance(direction int) (models.Track, bool) {
	if len(q.tracks) == 0 {
		q.index = 0
		return models.Track{}, false
	}
	q.index = NormalizeIndex(q.index+direction, len(q.tracks))
	return q.tracks[q.index], true
}

// SetActiveIndex sets the active index directly. Out-of-range input keeps the previous index.
// The player uses it to start a list at a position when identity alone is ambiguous.
func (q *Queue) SetActiveIndex(i int) {
	if i < 0 || i >= len(q.tracks) {
		return
	}
	q.index = i
}

// Active returns the active track, or false when the queue is empty.
func (q *Queue) Active() (models.Track, bool) {
	if len(q.tracks) == 0 {
		return models.Track{}, false
	}
	return q.tracks[q.index], true
}

// Index returns the active index (0 for an empty queue).
func (q *Queue) Index() int { return q.index }

// Len returns the number of queued tracks.
func (q *Queue) Len() int { return len(q.tracks) }

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []models.Track { return slices.Clone(q.tracks) }

// Neighbors returns the tracks before and after the active one, wrapping around.
// For a single-track queue both neighbors are the active track.
func (q *Queue) Neighbors() (prev, next models.Track, ok bool) {
	n := len(q.tracks)
	if n == 0 {
		return models.Track{}, models.Track{}, false
	}
	return q.tracks[NormalizeIndex(q.index-1, n)], q.tracks[NormalizeIndex(q.index+1, n)], true
}
