// Package repositories implements SQLite persistence for the local track cache.
//
// [TrackRepository] handles CRUD for [models.CachedTrack] rows with atomic sequence generation for stable
// ordering. Rows are soft-deleted via deleted_at and excluded from queries by default.
//
// [TrackCacheAdapter] plugs the repository into library workflows as a tasks.TrackCacher: every track seen
// in a backend response is inserted once per external media id and refreshed when its metadata changes.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
