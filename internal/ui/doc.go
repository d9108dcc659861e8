// Package ui implements the interactive player using bubbletea's Elm architecture.
//
// The player has three tabs and one drill-down view:
//  1. [SongsView] : the library's songs
//  2. [HistoryView] : the signed-in user's listening history
//  3. [PlaylistsView] : the user's playlists, with delete
//  4. [PlaylistTracksView] : tracks of the opened playlist
//
// Pressing enter on a track plays it with the visible list as its queue. A now-playing bar and the
// current toast are pinned below the list.
//
// The (view) [Model] never calls into the player from Update. Player operations run as commands, and
// their effects come back as orchestrator events read from a subscription channel, the same way the
// notifier's toasts arrive. A ticker refreshes the playback position.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, enter, esc, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
