package playback

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	subscriberBuffer = 16
	recordTimeout    = 10 * time.Second
)

// EventKind describes what changed.
type EventKind int

const (
	// TrackLoaded fires when a new source is bound to the output, including after auto-advance.
	TrackLoaded EventKind = iota
	// StateChanged covers play/pause, seek, queue edits that kept the loaded track, and unloads.
	StateChanged
	// LabelChanged fires on [Orchestrator.SetPlaybackContextLabel].
	LabelChanged
	// Failed carries a load error in Event.Err.
	Failed
)

func (k EventKind) String() string {
	switch k {
	case TrackLoaded:
		return "track_loaded"
	case StateChanged:
		return "state_changed"
	case LabelChanged:
		return "label_changed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after every change.
type Event struct {
	Kind   EventKind
	Status Status
	Err    error
}

// PlaybackRecorder receives each loaded library track. Errors are logged and otherwise ignored.
type PlaybackRecorder func(ctx context.Context, track models.Track) error

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithLogger sets the logger used for playback warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithPlaybackRecorder reports every loaded track that has a local id to fn, on its own goroutine.
func WithPlaybackRecorder(fn PlaybackRecorder) Option {
	return func(o *Orchestrator) { o.recorder = fn }
}

// Orchestrator is the process-wide player. Every UI surface reads and writes now-playing state through it.
type Orchestrator struct {
	*session

	logger   *log.Logger
	recorder PlaybackRecorder

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool

	recording sync.WaitGroup
}

// New builds the Orchestrator around out and registers for its ended notifications.
func New(out Output, opts ...Option) *Orchestrator {
	o := &Orchestrator{subs: make(map[int]chan Event)}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = shared.NewLogger(nil)
	}
	o.session = newSession(out, o.logger)
	out.SetEndedHandler(o.handleEnded)
	return o
}

// PlayTrack makes track active, with contextList as the new queue when non-empty, and plays it.
func (o *Orchestrator) PlayTrack(ctx context.Context, track models.Track, contextList []models.Track) {
	o.mu.Lock()
	o.playIntent = true
	fresh, err := o.activateLocked(ctx, track, contextList)
	o.mu.Unlock()

	o.after(fresh, err)
}

// PrepareTrack is [Orchestrator.PlayTrack] without touching the play intent, so a paused player loads the
// track and stays paused.
func (o *Orchestrator) PrepareTrack(ctx context.Context, track models.Track, contextList []models.Track) {
	o.mu.Lock()
	fresh, err := o.activateLocked(ctx, track, contextList)
	o.mu.Unlock()

	o.after(fresh, err)
}

// PlayAt plays the track at index i of contextList, which becomes the queue. An empty contextList plays
// index i of the current queue. Out-of-range indexes do nothing.
//
// Unlike [Orchestrator.PlayTrack] this picks one position, so a list that holds the same track twice starts
// where the user asked.
func (o *Orchestrator) PlayAt(ctx context.Context, contextList []models.Track, i int) {
	o.mu.Lock()
	length := o.queue.Len()
	if len(contextList) > 0 {
		length = len(contextList)
	}
	if i < 0 || i >= length {
		o.mu.Unlock()
		o.logger.Debug("play index out of range", "index", i, "length", length)
		return
	}

	if len(contextList) > 0 {
		o.queue.Load(contextList, nil)
	}
	o.queue.SetActiveIndex(i)
	o.playIntent = true
	fresh, err := o.syncLocked(ctx, false)
	o.mu.Unlock()

	o.after(fresh, err)
}

func (o *Orchestrator) activateLocked(ctx context.Context, track models.Track, contextList []models.Track) (*models.Track, error) {
	if !o.queue.SetActiveByIdentity(track, contextList) {
		o.logger.Debug("nothing to play, queue is empty", "track", track.String())
		return nil, nil
	}
	return o.syncLocked(ctx, false)
}

// LoadQueue replaces the queue. When start matches a track it becomes active; playing continues
// uninterrupted if that track is the one already loaded.
func (o *Orchestrator) LoadQueue(ctx context.Context, tracks []models.Track, start *models.Identity) {
	o.mu.Lock()
	o.queue.Load(tracks, start)
	fresh, err := o.syncLocked(ctx, false)
	o.mu.Unlock()

	o.after(fresh, err)
}

// Next moves to the following track, wrapping at the end.
func (o *Orchestrator) Next(ctx context.Context) { o.step(ctx, 1) }

// Previous moves to the preceding track, wrapping at the start.
func (o *Orchestrator) Previous(ctx context.Context) { o.step(ctx, -1) }

func (o *Orchestrator) step(ctx context.Context, direction int) {
	o.mu.Lock()
	if _, ok := o.queue.Advance(direction); !ok {
		o.mu.Unlock()
		return
	}
	fresh, err := o.syncLocked(ctx, false)
	o.mu.Unlock()

	o.after(fresh, err)
}

// TogglePlayPause pauses when playing and plays otherwise. Failures are logged, never returned.
func (o *Orchestrator) TogglePlayPause(ctx context.Context) {
	fresh, err := o.togglePlayPause(ctx)
	o.after(fresh, err)
}

// SeekTo moves to fraction of the current track's duration, clamped to [0, 1].
// It does nothing while the duration is unknown.
func (o *Orchestrator) SeekTo(fraction float64) {
	o.seekTo(fraction)
	o.publish(StateChanged, nil)
}

// SetPlaybackContextLabel records which list the queue came from (a playlist id, "history"), for
// highlighting only. An empty label clears it.
func (o *Orchestrator) SetPlaybackContextLabel(label string) {
	o.mu.Lock()
	changed := o.label != label
	o.label = label
	o.mu.Unlock()

	if changed {
		o.publish(LabelChanged, nil)
	}
}

// Status returns a snapshot of the player.
func (o *Orchestrator) Status() Status { return o.status() }

// Queue returns a copy of the queued tracks.
func (o *Orchestrator) Queue() []models.Track {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Tracks()
}

// Subscribe returns a channel of events and a func that cancels the subscription.
//
// Delivery never blocks the player: a subscriber that falls behind its buffer misses events and should
// treat the next one it receives (or [Orchestrator.Status]) as current.
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	o.subMu.Lock()
	defer o.subMu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if o.closed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextID
	o.nextID++
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.subMu.Lock()
			defer o.subMu.Unlock()
			if sub, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(sub)
			}
		})
	}
}

// Close releases the output, waits for in-flight playback reports and closes every subscription.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.unloadLocked()
	err := o.out.Close()
	o.mu.Unlock()

	o.recording.Wait()

	o.subMu.Lock()
	defer o.subMu.Unlock()
	if o.closed {
		return err
	}
	o.closed = true
	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
	return err
}

func (o *Orchestrator) handleEnded() {
	fresh, err := o.ended(context.Background())
	o.after(fresh, err)
}

func (o *Orchestrator) after(fresh *models.Track, err error) {
	switch {
	case err != nil:
		o.publish(Failed, err)
	case fresh != nil:
		o.record(*fresh)
		o.publish(TrackLoaded, nil)
	default:
		o.publish(StateChanged, nil)
	}
}

func (o *Orchestrator) record(track models.Track) {
	if o.recorder == nil || !track.Persisted() {
		return
	}

	o.recording.Add(1)
	go func() {
		defer o.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := o.recorder(ctx, track); err != nil {
			o.logger.Debug("failed to record playback", "track", track.LocalID, "error", err)
		}
	}()
}

// publish sends without blocking. Subscribers that are full miss the event.
func (o *Orchestrator) publish(kind EventKind, err error) {
	ev := Event{Kind: kind, Status: o.status(), Err: err}

	o.subMu.Lock()
	defer o.subMu.Unlock()
	for _, ch := range o.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
