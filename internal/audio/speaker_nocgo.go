//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/nowplaying/internal/shared"
)

// Available indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const Available = false

// Speaker is a silent output for builds without audio support.
// The player still works; tracks never load.
type Speaker struct {
	onEnded func()
}

// NewSpeaker creates a silent Speaker.
func NewSpeaker(client *http.Client, logger *log.Logger) *Speaker {
	if logger != nil {
		logger.Warn("audio output unavailable in this build")
	}
	return &Speaker{}
}

func (s *Speaker) Load(ctx context.Context, src string) error { return shared.ErrAudioUnavailable }
func (s *Speaker) Play() error                                 { return shared.ErrAudioUnavailable }
func (s *Speaker) Pause()                                      {}
func (s *Speaker) Seek(d time.Duration) error                  { return nil }
func (s *Speaker) Position() time.Duration                     { return 0 }
func (s *Speaker) Duration() time.Duration                     { return 0 }
func (s *Speaker) Playing() bool                               { return false }
func (s *Speaker) SetEndedHandler(fn func())                   { s.onEnded = fn }
func (s *Speaker) Close() error                                { return nil }
