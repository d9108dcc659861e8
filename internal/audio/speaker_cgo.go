//go:build (linux && cgo) || windows || darwin

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

const sampleRate = beep.SampleRate(44100)

// Speaker is the system audio output.
type Speaker struct {
	mu     sync.Mutex
	client *http.Client
	logger *log.Logger

	initialized bool
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	generation  uint64
	finished    bool
	onEnded     func()
}

// NewSpeaker creates a Speaker that downloads sources with client (http.DefaultClient when nil).
func NewSpeaker(client *http.Client, logger *log.Logger) *Speaker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Speaker{client: client, logger: logger}
}

// Load downloads and decodes src, replacing whatever was loaded. The new source starts paused.
func (s *Speaker) Load(ctx context.Context, src string) error {
	fetched, err := fetchSource(ctx, s.client, src)
	if err != nil {
		return err
	}

	streamer, format, err := decode(fetched)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", fetched.codec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	if !s.initialized {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("failed to open speaker: %w", err)
		}
		s.initialized = true
	}

	s.generation++
	gen := s.generation
	s.streamer = streamer
	s.format = format
	s.finished = false
	s.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, sampleRate, streamer), Paused: true}

	// The callback runs on the mixer goroutine with the speaker locked, so it must not take s.mu itself.
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() { go s.finish(gen) })))

	if s.logger != nil {
		s.logger.Debug("loaded source", "codec", fetched.codec, "bytes", len(fetched.data), "duration", format.SampleRate.D(streamer.Len()))
	}
	return nil
}

func decode(src *source) (beep.StreamSeekCloser, beep.Format, error) {
	r := nopCloser{bytes.NewReader(src.data)}
	if src.codec == codecWAV {
		return wav.Decode(r)
	}
	return mp3.Decode(r)
}

// finish reports the end of the source loaded as gen, unless it has been replaced since.
func (s *Speaker) finish(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	fn := s.onEnded
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Play resumes the loaded source.
func (s *Speaker) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return errors.New("nothing loaded")
	}
	if s.finished {
		return errors.New("source has ended")
	}

	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause pauses playback.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Seek sets the playback position.
func (s *Speaker) Seek(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := max(0, min(s.format.SampleRate.N(d), s.streamer.Len()-1))
	return s.streamer.Seek(samples)
}

// Position returns the current playback position.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}

	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()

	return s.format.SampleRate.D(pos)
}

// Duration returns the total duration of the loaded source.
func (s *Speaker) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

// Playing reports whether audio is currently coming out.
func (s *Speaker) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil || s.finished {
		return false
	}

	speaker.Lock()
	paused := s.ctrl.Paused
	speaker.Unlock()
	return !paused
}

// SetEndedHandler registers fn to run when a loaded source plays to its end.
func (s *Speaker) SetEndedHandler(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = fn
}

// Close stops playback and releases the audio device.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if s.initialized {
		speaker.Close()
		s.initialized = false
	}
	return nil
}

// stopLocked stops playback (must be called with lock held).
func (s *Speaker) stopLocked() {
	s.generation++
	if s.initialized {
		speaker.Clear()
	}
	if s.streamer != nil {
		s.streamer.Close()
		s.streamer = nil
	}
	s.ctrl = nil
	s.finished = false
}
