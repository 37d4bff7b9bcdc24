// Package session implements the cookie-based session store (§4.6): a
// single RWMutex-guarded map, renewed on every request that carries a
// known session_id cookie, and swept for expired entries by a background
// goroutine on a timer.
package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webserv-project/webserv/internal/httpmsg"
)

// DefaultTTL is the session lifetime applied unless the store is
// constructed with a different value.
const DefaultTTL = time.Hour

// Session is one server-side record. It is logged in iff UserID is set
// and ExpiresAt is still in the future.
type Session struct {
	ID        string
	UserID    string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Visits    int
	Data      map[string]string
}

// LoggedIn reports whether s represents an authenticated, unexpired
// session as of now.
func (s *Session) LoggedIn(now time.Time) bool {
	return s.UserID != "" && now.Before(s.ExpiresAt)
}

// Store is the shared session map. All operations serialize on mu; no
// caller holds the lock across I/O.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	log      *log.Logger
}

// NewStore returns an empty store with the given expiry duration. A nil
// logger discards sweep diagnostics.
func NewStore(ttl time.Duration, logger *log.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.New(devNull{}, "", 0)
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      logger,
	}
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }

// Create starts a fresh, anonymous session.
func (st *Store) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(st.ttl),
		Visits:    1,
		Data:      make(map[string]string),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// CreateWithUser starts a session already bound to an authenticated
// user.
func (st *Store) CreateWithUser(userID, username string) *Session {
	s := st.Create()
	st.mu.Lock()
	s.UserID = userID
	s.Username = username
	st.mu.Unlock()
	return s
}

// Get returns a clone-out copy of the session for id, so callers never
// hold a pointer into the map without the lock.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	clone := *s
	clone.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		clone.Data[k] = v
	}
	return &clone, true
}

// Update writes s back into the store under its own ID.
func (st *Store) Update(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Destroy removes id from the store. It is a no-op if absent.
func (st *Store) Destroy(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// WithSession runs mutate against the live session for id while holding
// the write lock, returning false if id is not present.
func (st *Store) WithSession(id string, mutate func(*Session)) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return false
	}
	mutate(s)
	return true
}

// Cleanup removes every session whose ExpiresAt is at or before now and
// reports how many were removed.
func (st *Store) Cleanup(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Touch implements the per-request cookie integration rule (§4.6): renew
// and bump the visit counter of an existing session, or create a new
// one, and return the Set-Cookie header value to attach to the response.
func (st *Store) Touch(sessionID string, now time.Time) (*Session, string) {
	if sessionID != "" {
		var found *Session
		st.mu.Lock()
		if s, ok := st.sessions[sessionID]; ok {
			s.Visits++
			s.ExpiresAt = now.Add(st.ttl)
			found = s
		}
		st.mu.Unlock()
		if found != nil {
			return found, cookieFor(found.ID, st.ttl)
		}
	}
	s := st.Create()
	return s, cookieFor(s.ID, st.ttl)
}

func cookieFor(id string, ttl time.Duration) string {
	c := httpmsg.Cookie{
		Name:     "session_id",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(ttl.Seconds()),
	}
	return c.String()
}

// StartSweep launches the background expiry sweep on interval, stopping
// when stop is closed. It is the store's one concurrent writer besides
// the event loop thread.
func (st *Store) StartSweep(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if n := st.Cleanup(now); n > 0 {
					st.log.Printf("session: swept %d expired session(s)", n)
				}
			}
		}
	}()
}
