// Package services defines the [Backend] interface for the music library API and implements it over HTTP.
//
// # Backend Interface
//
// Everything the player needs from the store of record: songs, playlists (read, create, update, delete),
// listening history, playback telemetry and follow edges. UI workflows depend on the interface so tests
// can substitute a double.
//
// # API Implementation
//
// [APIService] talks JSON to the backend. Requests go through an optional [rate.Limiter] and an
// [http.Client] that is expected to carry credentials, typically an [oauth2] client built from the token
// saved by `auth login`.
//
// # Wire Mapping
//
// Backend documents use `_id`, `videoId` and `cloudinaryUrl`. They are mapped to [models.Track] at this
// boundary and nowhere else. History items arrive either nested (`{"song": {...}, "playedAt": ...}`) or
// flat (the song fields at the top level); [historyEntry] accepts both.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : non-2xx response; the backend's message is included when present
//   - [shared.ErrPlaylistNotFound] : playlist id not found
//   - [shared.ErrNotAuthenticated] : 401 from the backend
package services
