// Package models defines domain entities and persistence interfaces for the nowplaying client.
//
// The package contains two categories of types:
//
// 1. Values handed around by the player and the backend client:
//   - [Track] : a playable song reference with display metadata
//   - [Identity] : the pair of ids used to decide whether two tracks are the same
//   - [Playlist] / [PlaylistWithTracks] : backend playlists
//   - [HistoryEntry] : one listening-history row
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [CachedTrack] : local metadata cache row for a [Track]
//
// Tracks are immutable once queued: replace, don't edit.
// Persistent entities implement the [Model] interface and are accessed through [Repository].
package models
