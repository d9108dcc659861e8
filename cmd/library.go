package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// trackJSON is the CLI's JSON view of a track.
type trackJSON struct {
	ID       string  `json:"id,omitempty"`
	MediaID  string  `json:"media_id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Genre    string  `json:"genre,omitempty"`
	Duration float64 `json:"duration_seconds,omitempty"`
	AudioURL string  `json:"audio_url,omitempty"`
	PlayedAt string  `json:"played_at,omitempty"`
}

func toTrackJSON(t models.Track) trackJSON {
	return trackJSON{
		ID:       t.LocalID,
		MediaID:  t.ExternalMediaID,
		Title:    t.Title,
		Artist:   t.Artist,
		Genre:    t.Genre,
		Duration: t.DurationSeconds,
		AudioURL: t.AudioURL,
	}
}

type playlistJSON struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	OwnerID    string      `json:"owner_id,omitempty"`
	TrackCount int         `json:"track_count"`
	Tracks     []trackJSON `json:"tracks,omitempty"`
}

func toPlaylistJSON(p models.Playlist) playlistJSON {
	return playlistJSON{ID: p.ID, Name: p.Name, OwnerID: p.OwnerID, TrackCount: p.TrackCount}
}

func (r *Runner) writeTracks(tracks []models.Track) {
	for i, t := range tracks {
		duration := ""
		if d := t.Duration(); d > 0 {
			duration = " [" + formatter.FormatDuration(d) + "]"
		}
		r.writePlain("%3d. %s%s  %s\n", i+1, t.String(), duration, t.LocalID)
	}
}

// Songs lists one page of the library.
func (r *Runner) Songs(ctx context.Context, cmd *cli.Command) error {
	lib, closeCache, err := r.cachedLibrary()
	if err != nil {
		return err
	}
	defer closeCache()

	limit, offset := r.pageSize(cmd), cmd.Int("offset")
	r.logger.Debug("listing songs", "limit", limit, "offset", offset)

	tracks, err := lib.LoadSongs(ctx, limit, offset)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		out := make([]trackJSON, len(tracks))
		for i, t := range tracks {
			out[i] = toTrackJSON(t)
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Songs (%d)", len(tracks)))
	r.writeTracks(tracks)
	return nil
}

// History shows a user's listening history.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.userID(cmd)
	if err != nil {
		return err
	}

	lib, closeCache, err := r.cachedLibrary()
	if err != nil {
		return err
	}
	defer closeCache()

	entries, err := lib.LoadHistory(ctx, userID, r.pageSize(cmd), cmd.Int("offset"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		out := make([]trackJSON, len(entries))
		for i, e := range entries {
			out[i] = toTrackJSON(e.Track)
			if !e.PlayedAt.IsZero() {
				out[i].PlayedAt = e.PlayedAt.UTC().Format("2006-01-02T15:04:05Z")
			}
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("History (%d)", len(entries)))
	return r.writePlain("%s", formatter.ExportHistory(entries))
}

// PlaylistList lists a user's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.userID(cmd)
	if err != nil {
		return err
	}

	lib, err := r.library()
	if err != nil {
		return err
	}

	playlists, err := lib.LoadUserPlaylists(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		out := make([]playlistJSON, len(playlists))
		for i, p := range playlists {
			out[i] = toPlaylistJSON(p)
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, p := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", p.ID, p.Name, p.TrackCount)
	}
	return nil
}

// PlaylistShow prints a playlist and its tracks.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	lib, closeCache, err := r.cachedLibrary()
	if err != nil {
		return err
	}
	defer closeCache()

	playlist, err := lib.LoadPlaylist(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := toPlaylistJSON(playlist.Playlist)
		for _, t := range playlist.Tracks {
			out.Tracks = append(out.Tracks, toTrackJSON(t))
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Name)
	r.writePlain("Tracks: %d • %s\n\n", len(playlist.Tracks), formatter.FormatDuration(formatter.TotalDuration(playlist.Tracks)))
	r.writeTracks(playlist.Tracks)
	return nil
}

// draftTracks turns --track ids into tracks for a draft.
func draftTracks(ids []string) []models.Track {
	tracks := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tracks = append(tracks, models.Track{LocalID: part})
			}
		}
	}
	return tracks
}

// PlaylistCreate creates a playlist owned by the user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.userID(cmd)
	if err != nil {
		return err
	}

	lib, err := r.library()
	if err != nil {
		return err
	}

	saved, err := lib.SavePlaylist(ctx, tasks.PlaylistDraft{
		Name:    cmd.String("name"),
		OwnerID: userID,
		Tracks:  draftTracks(cmd.StringSlice("track")),
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Created %q (%s, %d tracks)\n", saved.Name, saved.ID, saved.TrackCount)
}

// PlaylistUpdate renames a playlist and/or replaces its tracks. Omitted values keep the current ones.
func (r *Runner) PlaylistUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	name := cmd.String("name")
	tracks := draftTracks(cmd.StringSlice("track"))
	if name == "" && len(tracks) == 0 {
		return fmt.Errorf("%w: pass --name or --track", shared.ErrMissingArgument)
	}

	lib, err := r.library()
	if err != nil {
		return err
	}

	current, err := lib.LoadPlaylist(ctx, id)
	if err != nil {
		return err
	}
	if name == "" {
		name = current.Name
	}
	if len(tracks) == 0 {
		tracks = current.Tracks
	}

	saved, err := lib.SavePlaylist(ctx, tasks.PlaylistDraft{ID: id, Name: name, OwnerID: current.OwnerID, Tracks: tracks})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Updated %q (%d tracks)\n", saved.Name, saved.TrackCount)
}

// PlaylistDelete deletes a playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	lib, err := r.library()
	if err != nil {
		return err
	}

	// Without a loaded list the set only holds the target.
	set := tasks.NewPlaylistSet([]models.Playlist{{ID: id, Name: id}})
	if userID, err := r.userID(cmd); err == nil {
		if playlists, err := lib.LoadUserPlaylists(ctx, userID); err == nil {
			set = tasks.NewPlaylistSet(playlists)
			if _, ok := set.Get(id); !ok {
				return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
			}
		}
	}

	if err := lib.DeletePlaylist(ctx, set, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// PlaylistExport writes a playlist to a file.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	lib, closeCache, err := r.cachedLibrary()
	if err != nil {
		return err
	}
	defer closeCache()

	playlist, err := lib.LoadPlaylist(ctx, id)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(format, playlist, r.config.API.ThumbnailTemplate, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported playlist", "id", id, "format", format, "path", path)
	return r.writePlain("✓ Exported %q to %s\n", playlist.Name, path)
}

// Follow follows a user.
func (r *Runner) Follow(ctx context.Context, cmd *cli.Command) error {
	return r.setFollowing(ctx, cmd.StringArg("user-id"), true)
}

// Unfollow unfollows a user.
func (r *Runner) Unfollow(ctx context.Context, cmd *cli.Command) error {
	return r.setFollowing(ctx, cmd.StringArg("user-id"), false)
}

func (r *Runner) setFollowing(ctx context.Context, userID string, follow bool) error {
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	lib, err := r.library()
	if err != nil {
		return err
	}

	toggle := tasks.NewFollowToggle(lib, userID, !follow)
	following, err := toggle.Toggle(ctx)
	if err != nil {
		return err
	}

	if following {
		return r.writePlain("✓ Following %s\n", userID)
	}
	return r.writePlain("✓ Unfollowed %s\n", userID)
}
