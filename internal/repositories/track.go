package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const trackColumns = `id, sequence, local_id, external_media_id, title, artist, genre, duration_seconds, audio_url, created_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.CachedTrack] for the local track cache.
type TrackRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CachedTrack] = (*TrackRepository)(nil)

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.SetSequence(sequence)

	t := track.Track()
	query := `
		INSERT INTO tracks (id, sequence, local_id, external_media_id, title, artist, genre, duration_seconds, audio_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		t.LocalID,
		t.ExternalMediaID,
		t.Title,
		t.Artist,
		t.Genre,
		t.DurationSeconds,
		t.AudioURL,
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`
	return scanTrack(r.db.QueryRow(query, id))
}

// GetByExternalID retrieves a track by its media-host id
func (r *TrackRepository) GetByExternalID(externalMediaID string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE external_media_id = ? AND deleted_at IS NULL`
	return scanTrack(r.db.QueryRow(query, externalMediaID))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)
	t := track.Track()

	query := `
		UPDATE tracks
		SET local_id = ?, title = ?, artist = ?, genre = ?, duration_seconds = ?, audio_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		t.LocalID,
		t.Title,
		t.Artist,
		t.Genre,
		t.DurationSeconds,
		t.AudioURL,
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return requireRow(result, track.ID())
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `UPDATE tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	return requireRow(result, id)
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks.
//
// Supported criteria: "artist" (exact match), "local_id" (exact match), "limit" (int).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if localID, ok := criteria["local_id"].(string); ok && localID != "" {
		query += " AND local_id = ?"
		args = append(args, localID)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTrack scans a single row from [sql.Row] or [sql.Rows] into a [models.CachedTrack]
func scanTrack(row scanner) (*models.CachedTrack, error) {
	var (
		id        string
		sequence  int
		t         models.Track
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &t.LocalID, &t.ExternalMediaID, &t.Title, &t.Artist, &t.Genre,
		&t.DurationSeconds, &t.AudioURL, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track := models.NewCachedTrack(sequence, t)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s not found or already deleted", shared.ErrTrackNotFound, id)
	}
	return nil
}
