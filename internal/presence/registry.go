package presence

import "sync"

// Conn is whatever the registry hands back as a delivery target. The ws
// package's Client satisfies it; tests use lightweight fakes.
type Conn interface {
	Send(event string, payload any)
}

// Registry tracks which connection currently speaks for each user.
// At most one entry per user: a re-register overwrites the old one
// (last writer wins, no multi-device fan-out).
type Registry struct {
	mu     sync.RWMutex
	online map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{online: make(map[string]Conn)}
}

// Register binds userID to conn, replacing any prior binding.
func (r *Registry) Register(userID string, conn Conn) {
	if userID == "" {
		return
	}
	r.mu.Lock()
	r.online[userID] = conn
	r.mu.Unlock()
}

// Lookup returns the active connection for userID, or nil.
func (r *Registry) Lookup(userID string) Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.online[userID]
}

// Remove drops the entry for userID only while it still points at conn.
// A slow disconnect of a stale connection must not evict a newer
// registration for the same user.
func (r *Registry) Remove(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.online[userID]; ok && cur == conn {
		delete(r.online, userID)
	}
}

// Count reports how many users are online.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.online)
}
