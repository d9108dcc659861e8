// Package notify shows one transient status message at a time.
//
// Loading toasts stay until replaced or dismissed. Success and error toasts dismiss themselves after a fixed
// duration. A new toast always replaces the current one, and a timer armed for an older toast never
// dismisses a newer one.
package notify

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultDuration is used when a Notifier is created with a non-positive duration.
const DefaultDuration = 3 * time.Second

// Kind is the toast category.
type Kind int

const (
	Success Kind = iota
	Loading
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Loading:
		return "loading"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// AutoDismiss reports whether toasts of this kind dismiss themselves.
func (k Kind) AutoDismiss() bool { return k != Loading }

// Toast is a single visible notification.
type Toast struct {
	ID      uint64
	Message string
	Kind    Kind
	ShownAt time.Time
}

// Listener receives the current toast after every change, or nil once it is dismissed.
type Listener func(toast *Toast)

type stopper interface {
	Stop() bool
}

// Notifier owns the visible toast. It is safe for concurrent use.
type Notifier struct {
	mu        sync.Mutex
	duration  time.Duration
	logger    *log.Logger
	current   *Toast
	nextID    uint64
	timer     stopper
	listeners []Listener
	afterFunc func(time.Duration, func()) stopper
	now       func() time.Time
}

// New creates a Notifier whose success and error toasts last for duration. logger may be nil.
func New(duration time.Duration, logger *log.Logger) *Notifier {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Notifier{
		duration: duration,
		logger:   logger,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
}

// Duration returns how long auto-dismissing toasts stay visible.
func (n *Notifier) Duration() time.Duration { return n.duration }

// OnChange registers l to be called after every show and dismiss.
//
// Listeners run synchronously on the goroutine that caused the change, outside the notifier's lock.
func (n *Notifier) OnChange(l Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

// Notify replaces the visible toast with message.
func (n *Notifier) Notify(message string, kind Kind) Toast {
	n.mu.Lock()
	n.stopTimerLocked()
	n.nextID++
	toast := Toast{ID: n.nextID, Message: message, Kind: kind, ShownAt: n.now()}
	n.current = &toast

	if kind.AutoDismiss() {
		id := toast.ID
		n.timer = n.afterFunc(n.duration, func() { n.dismiss(id) })
	}
	listeners := n.snapshotLocked()
	n.mu.Unlock()

	n.log(toast)
	n.emit(listeners, &toast)
	return toast
}

// Dismiss hides the visible toast, if any.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	if n.current == nil {
		n.mu.Unlock()
		return
	}
	n.stopTimerLocked()
	n.current = nil
	listeners := n.snapshotLocked()
	n.mu.Unlock()

	n.emit(listeners, nil)
}

// Current returns the visible toast, or false when none is shown.
func (n *Notifier) Current() (Toast, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Toast{}, false
	}
	return *n.current, true
}

// dismiss clears the toast only while it is still the one identified by id.
func (n *Notifier) dismiss(id uint64) {
	n.mu.Lock()
	if n.current == nil || n.current.ID != id {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.timer = nil
	listeners := n.snapshotLocked()
	n.mu.Unlock()

	n.emit(listeners, nil)
}

func (n *Notifier) stopTimerLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) snapshotLocked() []Listener {
	if len(n.listeners) == 0 {
		return nil
	}
	return append([]Listener(nil), n.listeners...)
}

func (n *Notifier) emit(listeners []Listener, toast *Toast) {
	for _, l := range listeners {
		if toast == nil {
			l(nil)
			continue
		}
		t := *toast
		l(&t)
	}
}

func (n *Notifier) log(t Toast) {
	if n.logger == nil {
		return
	}
	switch t.Kind {
	case Error:
		n.logger.Error(t.Message, "toast", t.ID)
	case Loading:
		n.logger.Debug(t.Message, "toast", t.ID)
	default:
		n.logger.Info(t.Message, "toast", t.ID)
	}
}
