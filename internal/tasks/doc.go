// Package tasks implements the library workflows behind every UI surface.
//
// # Fetching
//
// [Library] loads songs, history and playlists from a [services.Backend]. Fetches of the same kind are
// fenced with a [guard.Sequence]: when a newer call has started, an older response is dropped and the call
// returns [shared.ErrStaleResponse] instead of overwriting fresher data. [Library.LoadHome] fetches songs
// and history concurrently; a history failure only leaves that section empty.
//
// # Mutations
//
// Playlist save (create or edit), playlist delete and follow toggles each hold a [guard.Guard] for the
// lifetime of their network call. A second trigger while one is in flight returns [shared.ErrInFlight]
// without contacting the backend and without a toast. Delete and follow update local state first and
// roll it back when the backend refuses.
//
// # Notifications
//
// Mutations show a loading toast, then a success or error toast. Network failures stop here: they become
// an error toast plus a returned error, and never reach the player.
//
// # Track Caching
//
// The optional [TrackCacher] persists every fetched track. Cache failures are logged and otherwise ignored.
package tasks
