package playback

import (
	"context"
	"time"
)

// Output is the media element the session drives.
//
// Implementations call the ended handler at most once per loaded source, from their own goroutine, and
// never for a source that has since been replaced.
type Output interface {
	// Load points the output at src and leaves it paused at the start.
	Load(ctx context.Context, src string) error
	// Play starts or resumes the loaded source.
	Play() error
	Pause()
	// Seek moves the play head to d from the start of the source.
	Seek(d time.Duration) error
	Position() time.Duration
	// Duration is 0 while unknown.
	Duration() time.Duration
	Playing() bool
	SetEndedHandler(fn func())
	Close() error
}
