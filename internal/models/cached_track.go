package models

import (
	"fmt"
	"time"
)

// CachedTrack is the local cache row for a [Track] seen in a backend response.
//
// Rows are unique per external media id and soft-deleted.
type CachedTrack struct {
	id        string
	sequence  int
	track     Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

var _ Model = (*CachedTrack)(nil)

// NewCachedTrack wraps track for caching. The id is assigned by the repository.
func NewCachedTrack(sequence int, track Track) *CachedTrack {
	now := time.Now()
	return &CachedTrack{
		sequence:  sequence,
		track:     track,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CachedTrack) ID() string            { return c.id }
func (c *CachedTrack) Sequence() int         { return c.sequence }
func (c *CachedTrack) Track() Track          { return c.track }
func (c *CachedTrack) CreatedAt() time.Time  { return c.createdAt }
func (c *CachedTrack) UpdatedAt() time.Time  { return c.updatedAt }
func (c *CachedTrack) DeletedAt() *time.Time { return c.deletedAt }

func (c *CachedTrack) SetID(id string)           { c.id = id }
func (c *CachedTrack) SetSequence(seq int)       { c.sequence = seq }
func (c *CachedTrack) SetTrack(t Track)          { c.track = t }
func (c *CachedTrack) SetCreatedAt(t time.Time)  { c.createdAt = t }
func (c *CachedTrack) SetUpdatedAt(t time.Time)  { c.updatedAt = t }
func (c *CachedTrack) SetDeletedAt(t *time.Time) { c.deletedAt = t }

// Validate requires an external media id, the only field needed to play the track later.
func (c *CachedTrack) Validate() error {
	if c.track.ExternalMediaID == "" {
		return fmt.Errorf("external media id is required")
	}
	if c.track.DurationSeconds < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	return nil
}
