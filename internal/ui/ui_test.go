package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/notify"
	"github.com/desertthunder/nowplaying/internal/playback"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
	tu "github.com/desertthunder/nowplaying/internal/testing"
)

func songs() []models.Track {
	return []models.Track{
		{LocalID: "s1", ExternalMediaID: "m1", Title: "First", Artist: "A", DurationSeconds: 120, AudioURL: "https://cdn/1.mp3"},
		{LocalID: "s2", ExternalMediaID: "m2", Title: "Second", Artist: "B", DurationSeconds: 95, AudioURL: "https://cdn/2.mp3"},
		{LocalID: "s3", ExternalMediaID: "m3", Title: "Third", Artist: "C", AudioURL: "https://cdn/3.mp3"},
	}
}

type fixture struct {
	model   *Model
	backend *tu.MockBackend
	out     *tu.FakeOutput
	player  *playback.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	backend := &tu.MockBackend{
		Songs:     songs(),
		History:   []models.HistoryEntry{{Track: songs()[1], PlayedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}},
		Playlists: []models.Playlist{{ID: "p1", Name: "Mix", TrackCount: 2}, {ID: "p2", Name: "Chill", TrackCount: 1}},
		Playlist:  &models.PlaylistWithTracks{Playlist: models.Playlist{ID: "p1", Name: "Mix"}, Tracks: songs()[:2]},
	}
	lib := tasks.NewLibrary(backend, notify.New(time.Minute, logger), logger)
	out := tu.NewFakeOutput(100 * time.Second)
	player := playback.New(out, playback.WithLogger(logger))

	m := NewModel(context.Background(), Deps{Library: lib, Player: player, UserID: "u1"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	t.Cleanup(func() {
		m.Close()
		player.Close()
	})
	return &fixture{model: m, backend: backend, out: out, player: player}
}

// run executes cmd and feeds the resulting message back into the model.
func (f *fixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd(); msg != nil {
		f.model.Update(msg)
	}
}

// drainEvents applies every queued player event.
func (f *fixture) drainEvents() {
	for {
		select {
		case ev, ok := <-f.model.events:
			if !ok {
				return
			}
			f.model.Update(playerEventMsg{event: ev})
		default:
			return
		}
	}
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func (f *fixture) loadHome(t *testing.T) {
	t.Helper()
	f.run(t, f.model.loadHome())
	f.run(t, f.model.loadPlaylists())
}

func TestModel(t *testing.T) {
	t.Run("home populates songs and history", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)

		if got := len(f.model.lists[SongsView].Items()); got != 3 {
			t.Errorf("expected 3 songs, got %d", got)
		}
		if got := len(f.model.lists[HistoryView].Items()); got != 1 {
			t.Errorf("expected 1 history entry, got %d", got)
		}
		if got := len(f.model.lists[PlaylistsView].Items()); got != 2 {
			t.Errorf("expected 2 playlists, got %d", got)
		}
		if !strings.Contains(f.model.View(), "First") {
			t.Error("expected songs in view")
		}
	})

	t.Run("home failure is shown", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Err = errors.New("offline")
		f.run(t, f.model.loadHome())

		if f.model.err == nil || !strings.Contains(f.model.View(), "offline") {
			t.Errorf("expected error in view, got %v", f.model.err)
		}
	})

	t.Run("enter plays the selection with the list as queue", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)

		f.model.Update(press("j"))
		_, cmd := f.model.Update(press("enter"))
		f.run(t, cmd)
		f.drainEvents()

		status := f.player.Status()
		if status.Active == nil || status.Active.LocalID != "s2" {
			t.Fatalf("expected s2 active, got %+v", status.Active)
		}
		if status.Length != 3 || status.ContextLabel != "Songs" {
			t.Errorf("unexpected queue length %d label %q", status.Length, status.ContextLabel)
		}
		if loads := f.out.Loads(); len(loads) != 1 || loads[0] != "https://cdn/2.mp3" {
			t.Errorf("unexpected loads %v", loads)
		}

		view := f.model.View()
		if !strings.Contains(view, "B - Second") || !strings.Contains(view, "▶") {
			t.Errorf("expected now-playing bar, got:\n%s", view)
		}
	})

	t.Run("enter on a repeated track plays that position", func(t *testing.T) {
		f := newFixture(t)
		tracks := songs()
		repeated := &models.PlaylistWithTracks{
			Playlist: models.Playlist{ID: "p1", Name: "Mix"},
			Tracks:   []models.Track{tracks[0], tracks[1], tracks[0]},
		}
		f.model.Update(playlistOpenedMsg{playlist: repeated})

		f.model.Update(press("j"))
		f.model.Update(press("j"))
		_, cmd := f.model.Update(press("enter"))
		f.run(t, cmd)

		status := f.player.Status()
		if status.Index != 2 || status.Length != 3 {
			t.Errorf("expected index 2 of 3, got %d of %d", status.Index, status.Length)
		}
		if status.ContextLabel != "Playlist: Mix" {
			t.Errorf("unexpected label %q", status.ContextLabel)
		}
	})

	t.Run("transport keys drive the player", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)

		_, cmd := f.model.Update(press("enter"))
		f.run(t, cmd)
		f.drainEvents()

		_, cmd = f.model.Update(press("n"))
		f.run(t, cmd)
		f.drainEvents()
		if f.model.status.Active.LocalID != "s2" {
			t.Errorf("expected next track, got %s", f.model.status.Active.LocalID)
		}

		_, cmd = f.model.Update(press("p"))
		f.run(t, cmd)
		_, cmd = f.model.Update(press("p"))
		f.run(t, cmd)
		f.drainEvents()
		if f.model.status.Active.LocalID != "s3" {
			t.Errorf("expected previous to wrap to s3, got %s", f.model.status.Active.LocalID)
		}

		_, cmd = f.model.Update(press(" "))
		f.run(t, cmd)
		f.drainEvents()
		if f.model.status.Playing {
			t.Error("expected space to pause")
		}
		if !strings.Contains(f.model.View(), "⏸") {
			t.Error("expected paused icon")
		}

		_, cmd = f.model.Update(press("l"))
		f.run(t, cmd)
		if seeks := f.out.Seeks(); len(seeks) != 1 || seeks[0] != 5*time.Second {
			t.Errorf("expected seek to 5s, got %v", seeks)
		}
		if f.model.status.Position != 5*time.Second {
			t.Errorf("expected status position 5s, got %v", f.model.status.Position)
		}

		_, cmd = f.model.Update(press("h"))
		f.run(t, cmd)
		if seeks := f.out.Seeks(); seeks[len(seeks)-1] != 0 {
			t.Errorf("expected seek back to 0, got %v", seeks)
		}
	})

	t.Run("seek without a loaded track is ignored", func(t *testing.T) {
		f := newFixture(t)
		if _, cmd := f.model.Update(press("l")); cmd != nil {
			t.Error("expected no command")
		}
	})

	t.Run("tabs cycle and playlists open", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)

		f.model.Update(press("tab"))
		if f.model.view != HistoryView {
			t.Fatalf("expected history tab, got %s", f.model.view)
		}
		f.model.Update(press("shift+tab"))
		f.model.Update(press("shift+tab"))
		if f.model.view != PlaylistsView {
			t.Fatalf("expected playlists tab, got %s", f.model.view)
		}

		_, cmd := f.model.Update(press("enter"))
		f.run(t, cmd)
		if f.model.view != PlaylistTracksView || len(f.model.lists[PlaylistTracksView].Items()) != 2 {
			t.Fatalf("expected opened playlist, view %s", f.model.view)
		}

		_, cmd = f.model.Update(press("enter"))
		f.run(t, cmd)
		if got := f.player.Status().ContextLabel; got != "Playlist: Mix" {
			t.Errorf("unexpected label %q", got)
		}

		f.model.Update(press("esc"))
		if f.model.view != PlaylistsView {
			t.Errorf("expected esc to return to playlists, got %s", f.model.view)
		}
		f.model.Update(press("tab"))
		if f.model.view != SongsView {
			t.Errorf("expected tab to wrap to songs, got %s", f.model.view)
		}
	})

	t.Run("save queue as playlist", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)

		f.model.Update(press("s"))
		if f.model.naming {
			t.Fatal("saving an empty queue should not prompt")
		}
		f.run(t, f.model.waitForToast())
		if f.model.toast == nil || f.model.toast.Kind != notify.Error {
			t.Errorf("expected error toast, got %+v", f.model.toast)
		}

		_, cmd := f.model.Update(press("enter"))
		f.run(t, cmd)
		f.drainEvents()

		var ids []string
		f.backend.CreatePlaylistFn = func(ctx context.Context, name string, trackIDs []string, ownerID string) (*models.Playlist, error) {
			ids = trackIDs
			return &models.Playlist{ID: "p9", Name: name, OwnerID: ownerID, TrackCount: len(trackIDs)}, nil
		}

		f.model.Update(press("s"))
		if !f.model.naming || f.model.nameInput.Value() != "Songs" {
			t.Fatalf("expected name prompt prefilled with label, got %q", f.model.nameInput.Value())
		}
		f.model.nameInput.SetValue("Road trip")
		_, cmd = f.model.Update(press("enter"))
		f.run(t, cmd)

		if f.model.naming {
			t.Error("expected prompt to close")
		}
		if strings.Join(ids, ",") != "s1,s2,s3" {
			t.Errorf("unexpected track ids %v", ids)
		}
		if _, ok := f.model.playlists.Get("p9"); !ok || len(f.model.lists[PlaylistsView].Items()) != 3 {
			t.Error("expected saved playlist in playlists tab")
		}
	})

	t.Run("name prompt cancels on esc", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)
		_, cmd := f.model.Update(press("enter"))
		f.run(t, cmd)
		f.drainEvents()

		f.model.Update(press("s"))
		f.model.Update(press("esc"))
		if f.model.naming || f.backend.Calls("CreatePlaylist") != 0 {
			t.Error("expected cancel without a save")
		}
	})

	t.Run("delete is optimistic and rolls back", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)
		f.model.view = PlaylistsView

		f.backend.DeletePlaylistFn = func(ctx context.Context, id string) error { return errors.New("forbidden") }

		_, cmd := f.model.Update(press("d"))
		if got := len(f.model.lists[PlaylistsView].Items()); got != 1 {
			t.Fatalf("expected item removed immediately, got %d", got)
		}

		f.run(t, cmd)
		items := f.model.lists[PlaylistsView].Items()
		if len(items) != 2 || items[0].(playlistItem).playlist.ID != "p1" {
			t.Errorf("expected rollback to original order, got %v", items)
		}

		f.backend.DeletePlaylistFn = nil
		_, cmd = f.model.Update(press("d"))
		f.run(t, cmd)
		if got := len(f.model.lists[PlaylistsView].Items()); got != 1 {
			t.Errorf("expected deletion to stick, got %d", got)
		}
	})

	t.Run("delete outlived by a reload leaves the new list alone", func(t *testing.T) {
		f := newFixture(t)
		f.loadHome(t)
		f.model.view = PlaylistsView
		f.backend.DeletePlaylistFn = func(ctx context.Context, id string) error { return errors.New("forbidden") }

		_, deleteCmd := f.model.Update(press("d"))
		stale := f.model.playlists

		f.backend.Playlists = []models.Playlist{{ID: "p3", Name: "Fresh"}}
		f.run(t, f.model.loadPlaylists())
		if f.model.playlists == stale {
			t.Fatal("expected reload to replace the playlist set")
		}

		f.run(t, deleteCmd)
		if _, ok := stale.Get("p1"); !ok {
			t.Error("expected rollback on the set the delete ran against")
		}
		items := f.model.lists[PlaylistsView].Items()
		if len(items) != 1 || items[0].(playlistItem).playlist.ID != "p3" {
			t.Errorf("expected reloaded list untouched, got %v", items)
		}
	})

	t.Run("toasts render", func(t *testing.T) {
		f := newFixture(t)
		f.model.lib.Notifier().Notify("Playlist saved", notify.Success)
		f.run(t, f.model.waitForToast())
		if !strings.Contains(f.model.View(), "Playlist saved") {
			t.Error("expected toast in view")
		}

		f.model.lib.Notifier().Dismiss()
		f.run(t, f.model.waitForToast())
		if f.model.toast != nil {
			t.Error("expected toast cleared")
		}
	})

	t.Run("tick polls only while playing", func(t *testing.T) {
		f := newFixture(t)
		_, cmd := f.model.Update(tickMsg{})
		if cmd == nil {
			t.Fatal("expected next tick")
		}
		f.model.status.Playing = true
		if _, cmd := f.model.Update(tickMsg{}); cmd == nil {
			t.Fatal("expected status poll and next tick")
		}
	})

	t.Run("closed subscription stops listening", func(t *testing.T) {
		f := newFixture(t)
		f.model.Close()
		msg := f.model.waitForEvent()()
		if ev, ok := msg.(playerEventMsg); !ok || !ev.closed {
			t.Fatalf("expected closed event, got %#v", msg)
		}
		if _, cmd := f.model.Update(msg); cmd != nil {
			t.Error("expected no further wait")
		}
	})

	t.Run("quit", func(t *testing.T) {
		f := newFixture(t)
		_, cmd := f.model.Update(press("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestRendering(t *testing.T) {
	t.Run("progressBar", func(t *testing.T) {
		tt := []struct {
			fraction float64
			width    int
			want     string
		}{
			{0, 5, "●────"},
			{1, 5, "━━━━●"},
			{0.5, 5, "━━●──"},
			{2, 3, "━━●"},
			{-1, 3, "●──"},
			{0.5, 0, ""},
		}
		for _, tc := range tt {
			if got := progressBar(tc.fraction, tc.width); got != tc.want {
				t.Errorf("progressBar(%v, %d) = %q, want %q", tc.fraction, tc.width, got, tc.want)
			}
		}
	})

	t.Run("clock", func(t *testing.T) {
		tt := []struct {
			d    time.Duration
			want string
		}{
			{0, "0:00"},
			{59*time.Second + 600*time.Millisecond, "1:00"},
			{125 * time.Second, "2:05"},
			{61 * time.Minute, "61:00"},
		}
		for _, tc := range tt {
			if got := clock(tc.d); got != tc.want {
				t.Errorf("clock(%v) = %q, want %q", tc.d, got, tc.want)
			}
		}
	})

	t.Run("trackItem description", func(t *testing.T) {
		item := trackItem{track: models.Track{Title: "T", Artist: "A", DurationSeconds: 65}}
		if got := item.Description(); got != "A • 1:05 • unavailable" {
			t.Errorf("unexpected description %q", got)
		}
	})
}
