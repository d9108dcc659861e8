package models

import (
	"fmt"
	"strings"
	"time"
)

// Track identifies a playable song and carries its display metadata.
type Track struct {
	LocalID         string  // backend id; empty for ephemeral search/discovery results
	ExternalMediaID string  // opaque media-host id, the only field required to attempt playback
	Title           string  // display title
	Artist          string  // display artist
	DurationSeconds float64 // 0 when unknown
	Genre           string
	AudioURL        string // playable source; empty means the track cannot be played
}

// Identity is the subset of a [Track] used for "is this the same track" checks.
type Identity struct {
	LocalID         string
	ExternalMediaID string
}

// Identity returns the track's identity.
func (t Track) Identity() Identity {
	return Identity{LocalID: t.LocalID, ExternalMediaID: t.ExternalMediaID}
}

// Persisted reports whether the track exists in the backend library.
func (t Track) Persisted() bool { return t.LocalID != "" }

// Playable reports whether the track has a resolvable audio source.
func (t Track) Playable() bool { return t.AudioURL != "" }

// Duration returns DurationSeconds as a [time.Duration].
func (t Track) Duration() time.Duration {
	if t.DurationSeconds <= 0 {
		return 0
	}
	return time.Duration(t.DurationSeconds * float64(time.Second))
}

// ThumbnailURL applies template (a fmt verb taking the external media id) to build the cover image URL.
func (t Track) ThumbnailURL(template string) string {
	if t.ExternalMediaID == "" || template == "" {
		return ""
	}
	if !strings.Contains(template, "%s") {
		return template
	}
	return fmt.Sprintf(template, t.ExternalMediaID)
}

func (t Track) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// SameTrack reports whether a and b refer to the same track.
//
// LocalID decides when both sides have one. Otherwise ExternalMediaID decides.
// Identities with neither id are never equal.
func SameTrack(a, b Identity) bool {
	if a.LocalID != "" && b.LocalID != "" {
		return a.LocalID == b.LocalID
	}
	if a.ExternalMediaID != "" && b.ExternalMediaID != "" {
		return a.ExternalMediaID == b.ExternalMediaID
	}
	return false
}

// IndexOf returns the position of the first track in tracks matching id, or -1.
func IndexOf(tracks []Track, id Identity) int {
	for i, t := range tracks {
		if SameTrack(t.Identity(), id) {
			return i
		}
	}
	return -1
}

// CountOf returns how many tracks match id.
func CountOf(tracks []Track, id Identity) int {
	n := 0
	for _, t := range tracks {
		if SameTrack(t.Identity(), id) {
			n++
		}
	}
	return n
}

// Playlist is a backend playlist without its tracks.
type Playlist struct {
	ID         string
	Name       string
	OwnerID    string
	TrackCount int
}

// PlaylistWithTracks is a playlist and its ordered tracks.
type PlaylistWithTracks struct {
	Playlist
	Tracks []Track
}

// HistoryEntry is one row of a user's listening history.
type HistoryEntry struct {
	Track    Track
	PlayedAt time.Time
}

// HistoryTracks flattens entries into their tracks, preserving order.
func HistoryTracks(entries []HistoryEntry) []Track {
	tracks := make([]Track, len(entries))
	for i, e := range entries {
		tracks[i] = e.Track
	}
	return tracks
}
