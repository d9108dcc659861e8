// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
)

// MockBackend is a test double for [services.Backend].
//
// Each method calls its Fn field when set and otherwise returns the matching canned value. Calls are
// counted per method name.
type MockBackend struct {
	mu    sync.Mutex
	calls map[string]int

	Songs     []models.Track
	Playlists []models.Playlist
	Playlist  *models.PlaylistWithTracks
	History   []models.HistoryEntry
	Err       error

	FetchSongsFn     func(ctx context.Context, limit, offset int) ([]models.Track, error)
	FetchHistoryFn   func(ctx context.Context, userID string, limit, offset int) ([]models.HistoryEntry, error)
	CreatePlaylistFn func(ctx context.Context, name string, trackIDs []string, ownerID string) (*models.Playlist, error)
	UpdatePlaylistFn func(ctx context.Context, id, name string, trackIDs []string) (*models.Playlist, error)
	DeletePlaylistFn func(ctx context.Context, id string) error
	FollowFn         func(ctx context.Context, userID string, follow bool) error
	RecordFn         func(ctx context.Context, trackID string) error
}

func (m *MockBackend) count(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method ran.
func (m *MockBackend) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockBackend) FetchSongs(ctx context.Context, limit, offset int) ([]models.Track, error) {
	m.count("FetchSongs")
	if m.FetchSongsFn != nil {
		return m.FetchSongsFn(ctx, limit, offset)
	}
	return m.Songs, m.Err
}

func (m *MockBackend) FetchPlaylistWithSongs(ctx context.Context, id string) (*models.PlaylistWithTracks, error) {
	m.count("FetchPlaylistWithSongs")
	return m.Playlist, m.Err
}

func (m *MockBackend) FetchUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	m.count("FetchUserPlaylists")
	return m.Playlists, m.Err
}

func (m *MockBackend) CreatePlaylist(ctx context.Context, name string, trackIDs []string, ownerID string) (*models.Playlist, error) {
	m.count("CreatePlaylist")
	if m.CreatePlaylistFn != nil {
		return m.CreatePlaylistFn(ctx, name, trackIDs, ownerID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Playlist{ID: "new", Name: name, OwnerID: ownerID, TrackCount: len(trackIDs)}, nil
}

func (m *MockBackend) UpdatePlaylist(ctx context.Context, id, name string, trackIDs []string) (*models.Playlist, error) {
	m.count("UpdatePlaylist")
	if m.UpdatePlaylistFn != nil {
		return m.UpdatePlaylistFn(ctx, id, name, trackIDs)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Playlist{ID: id, Name: name, TrackCount: len(trackIDs)}, nil
}

func (m *MockBackend) DeletePlaylist(ctx context.Context, id string) error {
	m.count("DeletePlaylist")
	if m.DeletePlaylistFn != nil {
		return m.DeletePlaylistFn(ctx, id)
	}
	return m.Err
}

func (m *MockBackend) FetchUserHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryEntry, error) {
	m.count("FetchUserHistory")
	if m.FetchHistoryFn != nil {
		return m.FetchHistoryFn(ctx, userID, limit, offset)
	}
	return m.History, m.Err
}

func (m *MockBackend) RecordPlayback(ctx context.Context, trackID string) error {
	m.count("RecordPlayback")
	if m.RecordFn != nil {
		return m.RecordFn(ctx, trackID)
	}
	return m.Err
}

func (m *MockBackend) FollowUser(ctx context.Context, userID string) error {
	m.count("FollowUser")
	if m.FollowFn != nil {
		return m.FollowFn(ctx, userID, true)
	}
	return m.Err
}

func (m *MockBackend) UnfollowUser(ctx context.Context, userID string) error {
	m.count("UnfollowUser")
	if m.FollowFn != nil {
		return m.FollowFn(ctx, userID, false)
	}
	return m.Err
}

// FakeOutput is an in-memory [playback.Output] that records every call.
type FakeOutput struct {
	mu       sync.Mutex
	loads    []string
	plays    int
	seeks    []time.Duration
	playing  bool
	position time.Duration
	duration time.Duration
	ended    func()
	closed   bool

	LoadErr error
	PlayErr error
}

func NewFakeOutput(duration time.Duration) *FakeOutput {
	return &FakeOutput{duration: duration}
}

func (f *FakeOutput) Load(ctx context.Context, src string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, src)
	f.playing = false
	f.position = 0
	return f.LoadErr
}

func (f *FakeOutput) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	if f.PlayErr != nil {
		return f.PlayErr
	}
	f.playing = true
	return nil
}

func (f *FakeOutput) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
}

func (f *FakeOutput) Seek(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, d)
	f.position = d
	return nil
}

func (f *FakeOutput) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *FakeOutput) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *FakeOutput) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *FakeOutput) SetEndedHandler(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = fn
}

func (f *FakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.playing = false
	return nil
}

// End simulates the loaded source finishing.
func (f *FakeOutput) End() {
	f.mu.Lock()
	fn := f.ended
	f.playing = false
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Loads returns every source passed to Load, in order.
func (f *FakeOutput) Loads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loads...)
}

func (f *FakeOutput) Plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *FakeOutput) Seeks() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.seeks...)
}

func (f *FakeOutput) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

var _ io.Writer = (*FWriter)(nil)

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
