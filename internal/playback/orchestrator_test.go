package playback

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	tu "github.com/desertthunder/nowplaying/internal/testing"
)

func song(id string) models.Track {
	return models.Track{
		LocalID:         id,
		ExternalMediaID: "media-" + id,
		Title:           "Song " + id,
		AudioURL:        "https://cdn.example.com/" + id + ".mp3",
		DurationSeconds: 180,
	}
}

func newTestOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *tu.FakeOutput) {
	t.Helper()
	out := tu.NewFakeOutput(3 * time.Minute)
	var buf bytes.Buffer
	opts = append([]Option{WithLogger(shared.NewLogger(&buf))}, opts...)
	o := New(out, opts...)
	t.Cleanup(func() { o.Close() })
	return o, out
}

func activeID(t *testing.T, o *Orchestrator) string {
	t.Helper()
	st := o.Status()
	if st.Active == nil {
		t.Fatal("expected an active track")
	}
	return st.Active.LocalID
}

func TestOrchestrator(t *testing.T) {
	ctx := context.Background()

	t.Run("PlayTrack loads and plays", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a, b := song("a"), song("b")

		o.PlayTrack(ctx, b, []models.Track{a, b})

		st := o.Status()
		if st.Loaded == nil || st.Loaded.LocalID != "b" {
			t.Fatalf("expected b loaded, got %+v", st.Loaded)
		}
		if !st.Playing || !st.PlayIntent {
			t.Error("expected output to be playing")
		}
		if loads := out.Loads(); len(loads) != 1 || loads[0] != b.AudioURL {
			t.Errorf("unexpected loads %v", loads)
		}
	})

	t.Run("same source is loaded once", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a, b, c := song("a"), song("b"), song("c")
		list := []models.Track{a, b, c}

		o.PlayTrack(ctx, b, list)
		o.PlayTrack(ctx, b, list)
		o.PrepareTrack(ctx, b, nil)

		id := b.Identity()
		o.LoadQueue(ctx, []models.Track{c, b, a}, &id)

		if got := len(out.Loads()); got != 1 {
			t.Fatalf("expected 1 load for one source, got %d", got)
		}
		if o.Status().Index != 1 {
			t.Errorf("expected active index to follow b to 1, got %d", o.Status().Index)
		}
		if !o.Status().Playing {
			t.Error("queue edit should not interrupt playback")
		}

		o.Next(ctx)
		if got := len(out.Loads()); got != 2 {
			t.Errorf("expected a second load after next, got %d", got)
		}
	})

	t.Run("ended advances and plays next", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a, b, c := song("a"), song("b"), song("c")

		o.PrepareTrack(ctx, b, []models.Track{a, b, c})
		if o.Status().Playing {
			t.Fatal("prepare should not start playback")
		}

		out.End()

		if activeID(t, o) != "c" {
			t.Fatalf("expected c active after ended")
		}
		loads := out.Loads()
		if loads[len(loads)-1] != c.AudioURL {
			t.Errorf("expected c to be loaded, got %v", loads)
		}
		if !o.Status().Playing {
			t.Error("expected c to be playing after auto-advance")
		}
	})

	t.Run("ended on single track restarts it", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a := song("a")
		o.PlayTrack(ctx, a, []models.Track{a})
		out.End()

		if got := len(out.Loads()); got != 2 {
			t.Errorf("expected the single track to be reloaded, got %d loads", got)
		}
		if !o.Status().Playing {
			t.Error("expected replay")
		}
	})

	t.Run("ended with nothing loaded is ignored", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		out.End()
		if len(out.Loads()) != 0 {
			t.Error("expected no loads")
		}
		if o.Status().Loaded != nil {
			t.Error("expected nothing loaded")
		}
	})

	t.Run("playlist edit round trip", func(t *testing.T) {
		o, _ := newTestOrchestrator(t)
		x, y := song("x"), song("y")

		o.PlayTrack(ctx, x, []models.Track{x, y})
		if activeID(t, o) != "x" || len(o.Queue()) != 2 {
			t.Fatalf("expected x active in [x y]")
		}

		o.Next(ctx)
		if activeID(t, o) != "y" {
			t.Errorf("expected y after next")
		}

		o.Next(ctx)
		if activeID(t, o) != "x" {
			t.Errorf("expected wrap to x")
		}

		o.Previous(ctx)
		if activeID(t, o) != "y" {
			t.Errorf("expected wrap back to y")
		}
	})

	t.Run("missing media reference", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		broken := models.Track{LocalID: "z", ExternalMediaID: "media-z", Title: "No Source"}

		o.PlayTrack(ctx, broken, []models.Track{broken})

		st := o.Status()
		if st.Loaded != nil {
			t.Errorf("expected nothing loaded, got %+v", st.Loaded)
		}
		if st.Playing {
			t.Error("expected output to be paused")
		}
		if len(out.Loads()) != 0 {
			t.Error("output should not be re-pointed")
		}
	})

	t.Run("moving off a playing track to a broken one unloads", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a := song("a")
		broken := models.Track{LocalID: "z", Title: "No Source"}

		o.PlayTrack(ctx, a, []models.Track{a, broken})
		o.Next(ctx)

		st := o.Status()
		if st.Loaded != nil || st.Playing || out.Playing() {
			t.Error("expected output paused and unloaded")
		}
	})

	t.Run("play failure leaves output paused", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		out.PlayErr = errors.New("autoplay blocked")
		a := song("a")

		o.PlayTrack(ctx, a, []models.Track{a})

		st := o.Status()
		if st.Loaded == nil {
			t.Fatal("track should stay loaded")
		}
		if st.Playing || st.PlayIntent {
			t.Error("expected paused with intent cleared")
		}
		if out.Plays() != 1 {
			t.Errorf("expected no retry, got %d play calls", out.Plays())
		}
	})

	t.Run("load failure is reported as an event", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		out.LoadErr = errors.New("404")
		events, cancel := o.Subscribe()
		defer cancel()

		a := song("a")
		o.PlayTrack(ctx, a, []models.Track{a})

		ev := <-events
		if ev.Kind != Failed || !errors.Is(ev.Err, shared.ErrMediaUnresolvable) {
			t.Errorf("expected failed event, got %s %v", ev.Kind, ev.Err)
		}
		if ev.Status.Loaded != nil {
			t.Error("expected nothing loaded")
		}
	})

	t.Run("PlayTrack on empty queue without context is a no-op", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		o.PlayTrack(ctx, song("a"), nil)
		if o.Status().Active != nil || len(out.Loads()) != 0 {
			t.Error("expected nothing to happen")
		}
	})

	t.Run("PrepareTrack keeps last explicit intent", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a, b := song("a"), song("b")

		o.PlayTrack(ctx, a, []models.Track{a, b})
		o.PrepareTrack(ctx, b, nil)
		if !out.Playing() {
			t.Error("expected playing intent to carry over")
		}

		o.TogglePlayPause(ctx)
		o.PrepareTrack(ctx, a, nil)
		if out.Playing() {
			t.Error("expected paused intent to carry over")
		}
	})

	t.Run("TogglePlayPause", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a := song("a")

		o.TogglePlayPause(ctx)
		if len(out.Loads()) != 0 {
			t.Error("toggle on empty queue should not load")
		}

		o.PrepareTrack(ctx, a, []models.Track{a})
		o.TogglePlayPause(ctx)
		if !out.Playing() {
			t.Error("expected playing after toggle")
		}
		o.TogglePlayPause(ctx)
		if out.Playing() {
			t.Error("expected paused after second toggle")
		}
		if len(out.Loads()) != 1 {
			t.Errorf("toggle should not reload, got %d loads", len(out.Loads()))
		}
	})

	t.Run("PlayAt", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a, b := song("a"), song("b")

		o.PlayAt(ctx, nil, 0)
		if o.Status().Active != nil || len(out.Loads()) != 0 {
			t.Fatal("expected no-op on an empty queue")
		}

		o.PlayAt(ctx, []models.Track{a, b, a}, 2)
		st := o.Status()
		if st.Index != 2 || st.Length != 3 || !st.Playing {
			t.Errorf("expected index 2 playing, got %+v", st)
		}

		o.PlayAt(ctx, nil, 1)
		if activeID(t, o) != "b" {
			t.Error("expected b from the current queue")
		}

		o.PlayAt(ctx, nil, 3)
		o.PlayAt(ctx, []models.Track{a}, 1)
		if st := o.Status(); st.Index != 1 || st.Length != 3 {
			t.Errorf("out-of-range index should change nothing, got index %d len %d", st.Index, st.Length)
		}
		if got := len(out.Loads()); got != 2 {
			t.Errorf("expected 2 loads, got %d", got)
		}
	})

	t.Run("TogglePlayPause with nothing playable keeps intent off", func(t *testing.T) {
		for name, setup := range map[string]func(o *Orchestrator){
			"empty queue": func(o *Orchestrator) {},
			"unplayable active track": func(o *Orchestrator) {
				broken := models.Track{LocalID: "z", Title: "No Source"}
				o.PrepareTrack(ctx, broken, []models.Track{broken})
			},
		} {
			t.Run(name, func(t *testing.T) {
				o, out := newTestOrchestrator(t)
				setup(o)

				o.TogglePlayPause(ctx)
				if o.Status().PlayIntent {
					t.Fatal("intent should not stick without a loaded track")
				}

				a := song("a")
				o.PrepareTrack(ctx, a, []models.Track{a})
				if out.Playing() {
					t.Error("prepare should not start playback")
				}
			})
		}
	})

	t.Run("failed source is not reloaded", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		out.LoadErr = errors.New("404")
		a, b := song("a"), song("b")

		o.PlayTrack(ctx, a, []models.Track{a})
		o.PrepareTrack(ctx, a, nil)
		o.PrepareTrack(ctx, a, nil)
		o.PlayTrack(ctx, a, nil)
		o.LoadQueue(ctx, []models.Track{a}, nil)

		if got := len(out.Loads()); got != 1 {
			t.Fatalf("expected 1 load for an unchanged failing source, got %d", got)
		}
		st := o.Status()
		if st.Loaded != nil || st.PlayIntent {
			t.Errorf("expected nothing loaded and no intent, got %+v", st)
		}

		out.LoadErr = nil
		o.PlayTrack(ctx, b, []models.Track{a, b})
		o.Previous(ctx)
		if got := len(out.Loads()); got != 3 {
			t.Errorf("expected the failed source to load again after another became active, got %d loads", got)
		}
		if loaded := o.Status().Loaded; loaded == nil || loaded.LocalID != "a" {
			t.Errorf("expected a loaded, got %+v", loaded)
		}
	})

	t.Run("TogglePlayPause loads an unloaded active track", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a := song("a")
		out.LoadErr = errors.New("offline")
		o.PlayTrack(ctx, a, []models.Track{a})

		out.LoadErr = nil
		o.TogglePlayPause(ctx)
		if !out.Playing() {
			t.Error("expected toggle to load and play")
		}
	})

	t.Run("SeekTo", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		a := song("a")

		o.SeekTo(0.5)
		if len(out.Seeks()) != 0 {
			t.Error("seek with nothing loaded should be a no-op")
		}

		o.PlayTrack(ctx, a, []models.Track{a})
		o.SeekTo(0.5)
		o.SeekTo(-1)
		o.SeekTo(7)

		want := []time.Duration{90 * time.Second, 0, 3 * time.Minute}
		got := out.Seeks()
		if len(got) != len(want) {
			t.Fatalf("expected %d seeks, got %v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("seek %d = %v, want %v", i, got[i], want[i])
			}
		}
		if len(out.Loads()) != 1 {
			t.Error("seeking should never reload")
		}
	})

	t.Run("SeekTo with unknown duration", func(t *testing.T) {
		out := tu.NewFakeOutput(0)
		o := New(out, WithLogger(shared.NewLogger(&bytes.Buffer{})))
		defer o.Close()

		a := song("a")
		a.DurationSeconds = 0
		o.PlayTrack(ctx, a, []models.Track{a})
		o.SeekTo(0.5)
		if len(out.Seeks()) != 0 {
			t.Error("expected no seek while duration is unknown")
		}
	})

	t.Run("SetPlaybackContextLabel", func(t *testing.T) {
		o, out := newTestOrchestrator(t)
		events, cancel := o.Subscribe()
		defer cancel()

		o.SetPlaybackContextLabel("history")
		o.SetPlaybackContextLabel("history")

		ev := <-events
		if ev.Kind != LabelChanged || ev.Status.ContextLabel != "history" {
			t.Errorf("unexpected event %+v", ev)
		}
		select {
		case ev := <-events:
			t.Errorf("unchanged label should not publish, got %s", ev.Kind)
		default:
		}

		o.SetPlaybackContextLabel("")
		if o.Status().ContextLabel != "" {
			t.Error("expected label cleared")
		}
		if len(out.Loads()) != 0 {
			t.Error("label should not affect playback")
		}
	})

	t.Run("Subscribe", func(t *testing.T) {
		t.Run("receives auto-advance", func(t *testing.T) {
			o, out := newTestOrchestrator(t)
			a, b := song("a"), song("b")
			o.PlayTrack(ctx, a, []models.Track{a, b})

			events, cancel := o.Subscribe()
			defer cancel()
			out.End()

			ev := <-events
			if ev.Kind != TrackLoaded || ev.Status.Loaded.LocalID != "b" {
				t.Errorf("expected track_loaded for b, got %s", ev.Kind)
			}
		})

		t.Run("slow subscriber never blocks", func(t *testing.T) {
			o, _ := newTestOrchestrator(t)
			_, cancel := o.Subscribe()
			defer cancel()

			done := make(chan struct{})
			go func() {
				for range subscriberBuffer * 3 {
					o.SeekTo(0)
				}
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("publishing blocked on a full subscriber")
			}
		})

		t.Run("cancel closes the channel", func(t *testing.T) {
			o, _ := newTestOrchestrator(t)
			events, cancel := o.Subscribe()
			cancel()
			cancel()
			if _, ok := <-events; ok {
				t.Error("expected closed channel")
			}
		})

		t.Run("Close ends subscriptions", func(t *testing.T) {
			out := tu.NewFakeOutput(time.Minute)
			o := New(out)
			events, _ := o.Subscribe()
			if err := o.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if _, ok := <-events; ok {
				t.Error("expected closed channel")
			}
			if !out.Closed() {
				t.Error("expected output to be closed")
			}

			late, _ := o.Subscribe()
			if _, ok := <-late; ok {
				t.Error("subscribing after Close should yield a closed channel")
			}
		})
	})

	t.Run("WithPlaybackRecorder", func(t *testing.T) {
		var mu sync.Mutex
		var recorded []string
		recorder := func(ctx context.Context, track models.Track) error {
			mu.Lock()
			defer mu.Unlock()
			recorded = append(recorded, track.LocalID)
			return errors.New("telemetry down")
		}

		o, out := newTestOrchestrator(t, WithPlaybackRecorder(recorder))
		a, b := song("a"), song("b")
		ephemeral := models.Track{ExternalMediaID: "yt-1", AudioURL: "https://cdn.example.com/yt-1.mp3"}

		o.PlayTrack(ctx, a, []models.Track{a, b, ephemeral})
		o.TogglePlayPause(ctx)
		o.Next(ctx)
		o.Next(ctx)
		out.End()
		o.Close()

		mu.Lock()
		defer mu.Unlock()
		slices.Sort(recorded)
		want := []string{"a", "a", "b"}
		if len(recorded) != len(want) {
			t.Fatalf("recorded %v, want %v", recorded, want)
		}
		for i := range want {
			if recorded[i] != want[i] {
				t.Errorf("recorded %v, want %v", recorded, want)
				break
			}
		}
	})
}

func TestStatus(t *testing.T) {
	t.Run("Progress", func(t *testing.T) {
		tt := []struct {
			st   Status
			want float64
		}{
			{Status{}, 0},
			{Status{Position: 30 * time.Second, Duration: time.Minute}, 0.5},
			{Status{Position: 2 * time.Minute, Duration: time.Minute}, 1},
		}
		for _, tc := range tt {
			if got := tc.st.Progress(); got != tc.want {
				t.Errorf("Progress() = %v, want %v", got, tc.want)
			}
		}
	})
}
