// Package viewsession keeps one mounted registration view per browser. The
// browser is identified by a cookie; a browser without a known cookie gets a
// fresh mount, which is how the touched set and outcome reset on remount.
package viewsession

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-register/pkg/signup"
)

// CookieName is the cookie holding the view session id.
const CookieName = "register_view"

// DefaultTTL is how long an idle view session is kept.
const DefaultTTL = 30 * time.Minute

// DefaultMaxSessions caps the live view sessions.
const DefaultMaxSessions = 10000

// Session is a view session and its mount.
type Session struct {
	ID    string
	Mount *signup.Mount

	lastSeen time.Time
}

// Registry holds the live view sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	newMount func() *signup.Mount
	now      func() time.Time
	secure   bool
}

// Option configures a Registry
type Option func(*Registry)

// WithTTL sets how long idle sessions are kept.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithMaxSessions caps the live sessions. When full, Create drops the
// session idle the longest. Zero or less removes the cap.
func WithMaxSessions(n int) Option {
	return func(r *Registry) {
		r.max = n
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(r *Registry) {
		r.secure = secure
	}
}

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates a registry that builds mounts with newMount.
func NewRegistry(newMount func() *signup.Mount, opts ...Option) *Registry {
	if newMount == nil {
		newMount = func() *signup.Mount { return signup.NewMount(nil, nil) }
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		max:      DefaultMaxSessions,
		newMount: newMount,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the live session with id and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if now.Sub(s.lastSeen) > r.ttl {
		r.removeLocked(id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Create mounts a new view session.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:    uuid.NewString(),
		Mount: r.newMount(),
	}

	r.mu.Lock()
	s.lastSeen = r.now()
	if r.max > 0 && len(r.sessions) >= r.max {
		r.evictLocked(s.lastSeen)
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	slog.Debug("View session mounted", "session_id", s.ID)
	return s
}

// Remove unmounts the session with id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	s.Mount.Unmount()
	slog.Debug("View session unmounted", "session_id", id)
}

// evictLocked makes room for one session: expired sessions go first, then
// the one idle the longest.
func (r *Registry) evictLocked(now time.Time) {
	var oldestID string
	var oldest time.Time
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			r.removeLocked(id)
			continue
		}
		if oldestID == "" || s.lastSeen.Before(oldest) {
			oldestID, oldest = id, s.lastSeen
		}
	}
	if len(r.sessions) >= r.max && oldestID != "" {
		slog.Warn("View session limit reached, dropping idle session", "max", r.max, "session_id", oldestID)
		r.removeLocked(oldestID)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup unmounts idle sessions and returns how many were removed.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			r.removeLocked(id)
			removed++
		}
	}
	return removed
}

// Run cleans up idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Cleanup(); n > 0 {
				slog.Info("Removed idle view sessions", "count", n)
			}
		}
	}
}

// FromRequest returns the request's session, mounting a new one and setting
// the cookie when the request has none or its session expired.
func (r *Registry) FromRequest(w http.ResponseWriter, req *http.Request) *Session {
	if c, err := req.Cookie(CookieName); err == nil {
		if s, ok := r.Get(c.Value); ok {
			return s
		}
	}
	s := r.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(r.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// SessionID returns the session id carried by the request cookie, if any.
func SessionID(req *http.Request) string {
	c, err := req.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
