package outline

import (
	"fmt"
	"sync"
	"time"

	"github.com/hazyhaar/domoutline/idgen"
)

// Session owns one Tree and serializes every build and lookup on it, so a
// snapshot, render and act cycle never interleaves with another build.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	tree     *Tree
	lastUsed time.Time
}

// Do runs fn with exclusive access to the session's tree.
func (s *Session) Do(fn func(*Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return fn(s.tree)
}

// LastUsed returns when the session was last accessed.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Registry holds sessions by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newTree  func() *Tree
	newID    idgen.Generator
}

// NewRegistry returns an empty registry whose sessions get trees from
// newTree. Nil newTree means New().
func NewRegistry(newTree func() *Tree) *Registry {
	if newTree == nil {
		newTree = func() *Tree { return New() }
	}
	return &Registry{
		sessions: make(map[string]*Session),
		newTree:  newTree,
		newID:    idgen.Session,
	}
}

// Create opens a new session.
func (r *Registry) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:        r.newID(),
		CreatedAt: now,
		tree:      r.newTree(),
		lastUsed:  now,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// GetOrCreate returns the session id, or a new one when id is empty.
func (r *Registry) GetOrCreate(id string) (*Session, error) {
	if id == "" {
		return r.Create(), nil
	}
	return r.Get(id)
}

// Delete removes a session and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune closes sessions idle for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
