package auth

import (
	"context"
	"sync"
	"time"
)

// SessionSource answers "who is signed in".
type SessionSource interface {
	CurrentSession(ctx context.Context) (Session, bool)
}

var _ SessionSource = (*Monitor)(nil)

type ctxKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by the middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Listener is told about every session change. ok is false on sign-out.
type Listener func(s Session, ok bool)

// Monitor tracks the latest authenticated session and notifies subscribers
// when the signed-in user changes. A session past its expiry counts as a
// sign-out.
type Monitor struct {
	mu        sync.Mutex
	current   Session
	signedIn  bool
	nextID    int
	listeners map[int]Listener
	now       func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{listeners: map[int]Listener{}, now: time.Now}
}

// CurrentSession returns the signed-in session, signing out first if it
// has expired.
func (m *Monitor) CurrentSession(context.Context) (Session, bool) {
	m.mu.Lock()
	if m.expiredLocked() {
		m.mu.Unlock()
		m.SignOut()
		return Session{}, false
	}
	defer m.mu.Unlock()
	return m.current, m.signedIn
}

func (m *Monitor) Authenticated() bool {
	_, ok := m.CurrentSession(context.Background())
	return ok
}

func (m *Monitor) expiredLocked() bool {
	return m.signedIn && !m.current.ExpiresAt.IsZero() && !m.now().Before(m.current.ExpiresAt)
}

// Subscribe registers l and returns a function that removes it.
func (m *Monitor) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Observe records a verified session. Listeners run only when the user
// differs from the current one.
func (m *Monitor) Observe(s Session) {
	m.mu.Lock()
	changed := !m.signedIn || m.current.UserID != s.UserID
	m.current, m.signedIn = s, true
	ls := m.snapshotLocked()
	m.mu.Unlock()
	if changed {
		for _, l := range ls {
			l(s, true)
		}
	}
}

// SignOut clears the session and notifies listeners if one was set.
func (m *Monitor) SignOut() {
	m.mu.Lock()
	was := m.signedIn
	m.current, m.signedIn = Session{}, false
	ls := m.snapshotLocked()
	m.mu.Unlock()
	if was {
		for _, l := range ls {
			l(Session{}, false)
		}
	}
}

func (m *Monitor) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}
