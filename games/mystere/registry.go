package mystere

import (
	"fmt"
	"sync"
)

// Registry owns every live session, keyed by the announcement message id.
// It is constructed in main and handed to the game glue; nothing else holds
// session references across calls.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session under id. Ids are unique: creating an id
// that is already live is an error.
func (r *Registry) Create(id string, stake int64, creatorID int64, playerLimit int) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}
	s := newSession(id, stake, creatorID, playerLimit)
	r.sessions[id] = s
	return s, nil
}

// Get returns the live session for id, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops a session. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// UserBusy reports whether the user is registered in any live session.
// A player may only sit at one table at a time.
func (r *Registry) UserBusy(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.HasPlayer(userID) {
			return true
		}
	}
	return false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
