package scan

import (
	"sync"
	"time"
)

// Debouncer suppresses duplicate rapid-fire scan signals. Scanner hardware
// fires several detection events for one physical scan, so any signal arriving
// within the window after the previously accepted signal is dropped, regardless
// of the code it carries.
type Debouncer struct {
	mu             sync.Mutex
	window         time.Duration
	lastAcceptedAt time.Time
}

// NewDebouncer returns a Debouncer with the given suppression window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Accept reports whether a signal at the given instant should be forwarded.
// The first signal is always accepted; after that a signal is accepted only
// when at least the window has elapsed since the last accepted one.
func (d *Debouncer) Accept(at time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lastAcceptedAt.IsZero() && at.Sub(d.lastAcceptedAt) < d.window {
		return false
	}
	d.lastAcceptedAt = at
	return true
}

// SessionDebouncers hands out one Debouncer per client session. Debounce state
// is per session: two counters scanning at different tills must not suppress
// each other.
type SessionDebouncers struct {
	mu       sync.Mutex
	window   time.Duration
	sessions map[string]*Debouncer
}

// NewSessionDebouncers returns a registry creating per-session Debouncers with
// the given window.
func NewSessionDebouncers(window time.Duration) *SessionDebouncers {
	return &SessionDebouncers{
		window:   window,
		sessions: make(map[string]*Debouncer),
	}
}

// Get returns the Debouncer for a session key, creating it on first use.
func (s *SessionDebouncers) Get(key string) *Debouncer {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.sessions[key]
	if !ok {
		d = NewDebouncer(s.window)
		s.sessions[key] = d
	}
	return d
}
