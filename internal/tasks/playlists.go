package tasks

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/desertthunder/nowplaying/internal/models"
)

// PlaylistSet is a view's local list of playlists, edited optimistically.
type PlaylistSet struct {
	mu    sync.Mutex
	items []models.Playlist
}

// NewPlaylistSet copies pls into a new set.
func NewPlaylistSet(pls []models.Playlist) *PlaylistSet {
	return &PlaylistSet{items: slices.Clone(pls)}
}

// Items returns a copy of the playlists in order.
func (s *PlaylistSet) Items() []models.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *PlaylistSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns the playlist with id.
func (s *PlaylistSet) Get(id string) (models.Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Find(s.items, func(p models.Playlist) bool { return p.ID == id })
}

// Remove deletes the playlist with id and reports where it was.
func (s *PlaylistSet) Remove(id string) (int, models.Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, i, ok := lo.FindIndexOf(s.items, func(p models.Playlist) bool { return p.ID == id })
	if !ok {
		return -1, models.Playlist{}, false
	}
	removed := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	return i, removed, true
}

// Insert puts p at index i, clamped to the current bounds.
func (s *PlaylistSet) Insert(i int, p models.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i = max(0, min(i, len(s.items)))
	s.items = slices.Insert(s.items, i, p)
}

// Upsert replaces the playlist with p's id or appends p.
func (s *PlaylistSet) Upsert(p models.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, i, ok := lo.FindIndexOf(s.items, func(x models.Playlist) bool { return x.ID == p.ID }); ok {
		s.items[i] = p
		return
	}
	s.items = append(s.items, p)
}
