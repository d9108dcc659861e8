// API service for the music library backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const defaultBaseURL = "http://localhost:5000"

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s: status %d", shared.ErrAPIRequest, e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return shared.ErrNotAuthenticated
	}
	return shared.ErrAPIRequest
}

// APIService implements [Backend] over the backend's JSON API.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Backend = (*APIService)(nil)

// APIOption configures an [APIService].
type APIOption func(*APIService)

// WithRateLimit caps outgoing requests at rps per second. Zero or negative disables limiting.
func WithRateLimit(rps float64) APIOption {
	return func(a *APIService) {
		if rps <= 0 {
			a.limiter = nil
			return
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTokenSource authenticates every request with a bearer token from ts.
func WithTokenSource(ctx context.Context, ts oauth2.TokenSource) APIOption {
	return func(a *APIService) {
		if ts == nil {
			return
		}
		a.httpClient = oauth2.NewClient(ctx, ts)
	}
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client, opts ...APIOption) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the backend root the service talks to.
func (a *APIService) BaseURL() string { return a.baseURL }

// doRequest sends body (when non-nil) as JSON and returns the raw response body of a 2xx reply.
func (a *APIService) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}
	return data, nil
}

// errorMessage extracts the backend's {"message": ...} or {"error": ...} text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return lo.Ternary(payload.Message != "", payload.Message, payload.Error)
}

func pageQuery(limit, offset int) string {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func playlistNotFound(err error, id string) error {
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return err
}

// FetchSongs returns one page of the song library.
func (a *APIService) FetchSongs(ctx context.Context, limit, offset int) ([]models.Track, error) {
	data, err := a.doRequest(ctx, http.MethodGet, "/api/songs"+pageQuery(limit, offset), nil)
	if err != nil {
		return nil, err
	}
	songs, err := listOf[apiSong](data, "songs")
	if err != nil {
		return nil, err
	}
	return tracksFrom(songs), nil
}

// FetchPlaylistWithSongs returns a playlist with its songs populated.
func (a *APIService) FetchPlaylistWithSongs(ctx context.Context, id string) (*models.PlaylistWithTracks, error) {
	data, err := a.doRequest(ctx, http.MethodGet, "/api/playlists/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, playlistNotFound(err, id)
	}

	var pl apiPlaylist
	if err := json.Unmarshal(data, &pl); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}
	return &models.PlaylistWithTracks{Playlist: pl.playlist(), Tracks: tracksFrom(pl.Songs)}, nil
}

// FetchUserPlaylists lists the playlists owned by userID.
func (a *APIService) FetchUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	data, err := a.doRequest(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/playlists", nil)
	if err != nil {
		return nil, err
	}
	pls, err := listOf[apiPlaylist](data, "playlists")
	if err != nil {
		return nil, err
	}
	return lo.Map(pls, func(p apiPlaylist, _ int) models.Playlist { return p.playlist() }), nil
}

// CreatePlaylist creates a playlist owned by ownerID.
func (a *APIService) CreatePlaylist(ctx context.Context, name string, trackIDs []string, ownerID string) (*models.Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	body := playlistRequest{Name: name, Songs: nonNil(trackIDs), Owner: ownerID}
	data, err := a.doRequest(ctx, http.MethodPost, "/api/playlists", body)
	if err != nil {
		return nil, err
	}

	var pl apiPlaylist
	if err := json.Unmarshal(data, &pl); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}
	created := pl.playlist()
	if pl.Songs == nil && pl.Count == nil {
		created.TrackCount = len(trackIDs)
	}
	return &created, nil
}

// UpdatePlaylist replaces the playlist's name and tracks.
func (a *APIService) UpdatePlaylist(ctx context.Context, id, name string, trackIDs []string) (*models.Playlist, error) {
	body := playlistRequest{Name: name, Songs: nonNil(trackIDs)}
	data, err := a.doRequest(ctx, http.MethodPut, "/api/playlists/"+url.PathEscape(id), body)
	if err != nil {
		return nil, playlistNotFound(err, id)
	}

	var pl apiPlaylist
	if err := json.Unmarshal(data, &pl); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}
	updated := pl.playlist()
	if updated.ID == "" {
		updated.ID = id
	}
	if pl.Songs == nil && pl.Count == nil {
		updated.TrackCount = len(trackIDs)
	}
	return &updated, nil
}

// DeletePlaylist deletes the playlist.
func (a *APIService) DeletePlaylist(ctx context.Context, id string) error {
	_, err := a.doRequest(ctx, http.MethodDelete, "/api/playlists/"+url.PathEscape(id), nil)
	return playlistNotFound(err, id)
}

// FetchUserHistory returns userID's listening history.
func (a *APIService) FetchUserHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryEntry, error) {
	path := "/api/users/" + url.PathEscape(userID) + "/history" + pageQuery(limit, offset)
	data, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	items, err := listOf[historyEntry](data, "history")
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(h historyEntry, _ int) models.HistoryEntry { return h.entry() }), nil
}

// RecordPlayback appends trackID to the signed-in user's history.
func (a *APIService) RecordPlayback(ctx context.Context, trackID string) error {
	_, err := a.doRequest(ctx, http.MethodPost, "/api/history", map[string]string{"songId": trackID})
	return err
}

// FollowUser follows userID as the signed-in user.
func (a *APIService) FollowUser(ctx context.Context, userID string) error {
	_, err := a.doRequest(ctx, http.MethodPost, "/api/users/"+url.PathEscape(userID)+"/follow", nil)
	return err
}

// UnfollowUser removes the follow edge to userID.
func (a *APIService) UnfollowUser(ctx context.Context, userID string) error {
	_, err := a.doRequest(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(userID)+"/follow", nil)
	return err
}

// TrackIDs returns the local ids of tracks, skipping ephemeral ones.
func TrackIDs(tracks []models.Track) []string {
	return lo.FilterMap(tracks, func(t models.Track, _ int) (string, bool) {
		return t.LocalID, t.Persisted()
	})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
