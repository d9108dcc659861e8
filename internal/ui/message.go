package ui

import (
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/playback"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

type homeLoadedMsg struct {
	home *tasks.Home
	err  error
}

type playlistsLoadedMsg struct {
	playlists []models.Playlist
	err       error
}

type playlistOpenedMsg struct {
	playlist *models.PlaylistWithTracks
	err      error
}

type playlistSavedMsg struct {
	playlist *models.Playlist
	err      error
}

type playlistDeletedMsg struct {
	id  string
	set *tasks.PlaylistSet // set the delete ran against
	err error
}

// playerEventMsg carries one orchestrator event; closed reports the subscription ended.
type playerEventMsg struct {
	event  playback.Event
	closed bool
}

type statusMsg playback.Status

type tickMsg struct{}

// toastChangedMsg signals that the notifier's current toast changed.
type toastChangedMsg struct{}
