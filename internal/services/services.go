package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
)

// Backend is the remote store of record.
type Backend interface {
	// FetchSongs returns one page of the song library.
	FetchSongs(ctx context.Context, limit, offset int) ([]models.Track, error)

	// FetchPlaylistWithSongs returns a playlist and its ordered tracks.
	FetchPlaylistWithSongs(ctx context.Context, id string) (*models.PlaylistWithTracks, error)

	// FetchUserPlaylists lists the playlists owned by userID.
	FetchUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error)

	CreatePlaylist(ctx context.Context, name string, trackIDs []string, ownerID string) (*models.Playlist, error)

	// UpdatePlaylist replaces the playlist's name and track list.
	UpdatePlaylist(ctx context.Context, id, name string, trackIDs []string) (*models.Playlist, error)

	DeletePlaylist(ctx context.Context, id string) error

	// FetchUserHistory returns userID's listening history, most recent first.
	FetchUserHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryEntry, error)

	// RecordPlayback appends trackID to the signed-in user's history.
	RecordPlayback(ctx context.Context, trackID string) error

	FollowUser(ctx context.Context, userID string) error
	UnfollowUser(ctx context.Context, userID string) error
}

// apiSong is a song document as served by the backend.
type apiSong struct {
	ID            string  `json:"_id"`
	VideoID       string  `json:"videoId"`
	Title         string  `json:"title"`
	Artist        string  `json:"artist"`
	Genre         string  `json:"genre,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	CloudinaryURL string  `json:"cloudinaryUrl,omitempty"`
}

func (s apiSong) track() models.Track {
	return models.Track{
		LocalID:         s.ID,
		ExternalMediaID: s.VideoID,
		Title:           s.Title,
		Artist:          s.Artist,
		Genre:           s.Genre,
		DurationSeconds: s.Duration,
		AudioURL:        s.CloudinaryURL,
	}
}

func tracksFrom(songs []apiSong) []models.Track {
	tracks := make([]models.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, s.track())
	}
	return tracks
}

// ownerRef is a playlist owner, sent either as a bare id or as a populated user document.
type ownerRef string

func (o *ownerRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*o = ownerRef(id)
		return nil
	}
	var user struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	*o = ownerRef(user.ID)
	return nil
}

type apiPlaylist struct {
	ID    string    `json:"_id"`
	Name  string    `json:"name"`
	Owner ownerRef  `json:"owner"`
	Songs []apiSong `json:"songs"`
	Count *int      `json:"songCount,omitempty"`
}

func (p apiPlaylist) playlist() models.Playlist {
	count := len(p.Songs)
	if p.Count != nil {
		count = *p.Count
	}
	return models.Playlist{ID: p.ID, Name: p.Name, OwnerID: string(p.Owner), TrackCount: count}
}

type playlistRequest struct {
	Name  string   `json:"name"`
	Songs []string `json:"songs"`
	Owner string   `json:"owner,omitempty"`
}

// historyEntry accepts both history item shapes: {"song": {...}} and the song fields inline.
type historyEntry struct {
	apiSong
	Song      *apiSong  `json:"song"`
	PlayedAt  time.Time `json:"playedAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h historyEntry) entry() models.HistoryEntry {
	song := h.apiSong
	if h.Song != nil {
		song = *h.Song
	}
	played := h.PlayedAt
	if played.IsZero() {
		played = h.CreatedAt
	}
	return models.HistoryEntry{Track: song.track(), PlayedAt: played}
}

// listOf decodes either a bare JSON array or an object holding the array under key.
func listOf[T any](data []byte, key string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var items []T
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	raw, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("failed to decode %s: key not present", key)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return items, nil
}
