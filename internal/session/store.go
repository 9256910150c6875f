package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "claimupload_session"

// DefaultIdleTimeout is how long an untouched session is kept.
const DefaultIdleTimeout = 8 * time.Hour

// Store keeps sessions in memory keyed by ID.
type Store struct {
	idle   time.Duration
	secure bool
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a store that expires sessions idle for longer than idle.
// secure marks the cookie Secure.
func NewStore(idle time.Duration, secure bool) *Store {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Store{
		idle:     idle,
		secure:   secure,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id, or nil if it is unknown or expired.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	now := s.now()
	if now.Sub(sess.LastSeen) > s.idle {
		delete(s.sessions, id)
		return nil
	}
	sess.LastSeen = now
	return sess
}

// New creates and registers a fresh session.
func (s *Store) New() *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		View:     ViewUpload,
		LastSeen: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Load returns the session named by the request cookie, creating one and
// setting the cookie when there is none.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if sess := s.Get(c.Value); sess != nil {
			return sess
		}
	}
	sess := s.New()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen) > s.idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

type ctxKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}

// Middleware loads the session for every request and stores it in the
// request context.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.Load(w, r)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
