package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/nowplaying/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string { return fmt.Sprintf("%d tracks", i.playlist.TrackCount) }

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track    models.Track
	playedAt time.Time
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if d := i.track.Duration(); d > 0 {
		desc = fmt.Sprintf("%s • %s", desc, clock(d))
	}
	if !i.playedAt.IsZero() {
		desc = fmt.Sprintf("%s • played %s", desc, i.playedAt.Local().Format("Jan 2 15:04"))
	}
	if !i.track.Playable() {
		desc += " • unavailable"
	}
	return desc
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func historyItems(entries []models.HistoryEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = trackItem{track: e.Track, playedAt: e.PlayedAt}
	}
	return items
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}

// tracksOf returns the tracks behind items, in order.
func tracksOf(items []list.Item) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, it := range items {
		if t, ok := it.(trackItem); ok {
			tracks = append(tracks, t.track)
		}
	}
	return tracks
}

// clock formats d as m:ss.
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
