package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/queue"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// Status is a snapshot of the player.
type Status struct {
	Active       *models.Track // active queue entry, nil for an empty queue
	Loaded       *models.Track // track bound to the output, nil when nothing playable is loaded
	Index        int
	Length       int
	Playing      bool // mirrors the output, not the play intent
	PlayIntent   bool
	Position     time.Duration
	Duration     time.Duration
	ContextLabel string
}

// Progress returns Position as a fraction of Duration, or 0 while the duration is unknown.
func (s Status) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(float64(s.Position)/float64(s.Duration), 1)
}

// session binds the queue to one output and applies the play intent to whatever is loaded.
//
// All fields are guarded by mu, which is held across output calls so loads never interleave.
type session struct {
	mu     sync.Mutex
	out    Output
	queue  *queue.Queue
	logger *log.Logger

	loadedRef   string
	loadedTrack *models.Track
	failedRef   string // last source that failed to load; not retried until the active source changes
	playIntent  bool
	label       string
}

func newSession(out Output, logger *log.Logger) *session {
	return &session{out: out, queue: queue.New(), logger: logger}
}

// syncLocked re-points the output when the active track's audio source differs from the loaded one (or
// force is set), then applies the play intent. It reports the track that was freshly loaded, if any.
//
// A track without an audio source unloads the output without an error. Load failures are returned after
// leaving the session paused and unloaded, and the same source is not loaded again unless force is set or
// another source becomes active first. Play failures only clear the intent.
func (s *session) syncLocked(ctx context.Context, force bool) (*models.Track, error) {
	active, ok := s.queue.Active()
	if !ok {
		s.unloadLocked()
		return nil, nil
	}

	if !active.Playable() {
		s.logger.Warn("track has no playable source", "track", active.String(), "media_id", active.ExternalMediaID)
		s.unloadLocked()
		return nil, nil
	}

	if active.AudioURL != s.failedRef {
		s.failedRef = ""
	} else if !force {
		s.logger.Debug("skipping source that failed to load", "track", active.String())
		s.unloadLocked()
		s.playIntent = false
		return nil, nil
	}

	var fresh *models.Track
	if force || active.AudioURL != s.loadedRef {
		s.out.Pause()
		if err := s.out.Load(ctx, active.AudioURL); err != nil {
			s.logger.Warn("failed to load track", "track", active.String(), "error", err)
			s.unloadLocked()
			s.playIntent = false
			s.failedRef = active.AudioURL
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrMediaUnresolvable, active.String(), err)
		}
		s.loadedRef = active.AudioURL
		s.failedRef = ""
		fresh = &active
	}
	s.loadedTrack = &active

	s.applyIntentLocked()
	return fresh, nil
}

func (s *session) applyIntentLocked() {
	if s.loadedTrack == nil {
		return
	}
	if !s.playIntent {
		s.out.Pause()
		return
	}
	if err := s.out.Play(); err != nil {
		s.logger.Warn("playback did not start", "track", s.loadedTrack.String(), "error", err)
		s.playIntent = false
		s.out.Pause()
	}
}

func (s *session) unloadLocked() {
	s.out.Pause()
	s.loadedRef = ""
	s.loadedTrack = nil
}

// togglePlayPause pauses a playing output and otherwise plays, loading the active track first when
// nothing is loaded yet. An explicit toggle retries a source that failed to load. The intent only sticks
// when something playable ends up loaded.
func (s *session) togglePlayPause(ctx context.Context) (*models.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadedTrack != nil && s.out.Playing() {
		s.playIntent = false
		s.out.Pause()
		return nil, nil
	}

	s.playIntent = true
	if s.loadedTrack == nil {
		fresh, err := s.syncLocked(ctx, true)
		if s.loadedTrack == nil {
			s.playIntent = false
		}
		return fresh, err
	}
	s.applyIntentLocked()
	return nil, nil
}

// seekTo moves to fraction of the loaded track, clamped to [0, 1].
func (s *session) seekTo(fraction float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadedTrack == nil {
		return
	}
	d := s.out.Duration()
	if d <= 0 {
		d = s.loadedTrack.Duration()
	}
	if d <= 0 {
		return
	}

	fraction = max(0, min(fraction, 1))
	if err := s.out.Seek(time.Duration(fraction * float64(d))); err != nil {
		s.logger.Warn("seek failed", "track", s.loadedTrack.String(), "error", err)
	}
}

// ended advances past the finished track and force-loads the next one, so a single-track queue restarts.
func (s *session) ended(ctx context.Context) (*models.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadedTrack == nil {
		return nil, nil
	}
	if _, ok := s.queue.Advance(1); !ok {
		s.unloadLocked()
		return nil, nil
	}
	s.playIntent = true
	return s.syncLocked(ctx, true)
}

func (s *session) status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Index:        s.queue.Index(),
		Length:       s.queue.Len(),
		PlayIntent:   s.playIntent,
		ContextLabel: s.label,
	}
	if active, ok := s.queue.Active(); ok {
		st.Active = &active
	}
	if s.loadedTrack != nil {
		loaded := *s.loadedTrack
		st.Loaded = &loaded
		st.Playing = s.out.Playing()
		st.Position = s.out.Position()
		st.Duration = s.out.Duration()
		if st.Duration <= 0 {
			st.Duration = loaded.Duration()
		}
	}
	return st
}
