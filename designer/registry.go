package designer

import "sync"

// Registry tracks the open sessions by connection id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	// latest is the most recent connection per visitor.
	latest map[string]string
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session), latest: make(map[string]string)}
}

func (r *Registry) Add(connID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = s
	r.latest[s.VisitorID()] = connID
}

// Remove forgets a connection and returns its session, if any.
func (r *Registry) Remove(connID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)
	if r.latest[s.VisitorID()] == connID {
		delete(r.latest, s.VisitorID())
		for id, other := range r.sessions {
			if other.VisitorID() == s.VisitorID() {
				r.latest[s.VisitorID()] = id
				break
			}
		}
	}
	return s
}

func (r *Registry) Get(connID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[connID]
}

// ForVisitor returns the visitor's most recently opened session.
func (r *Registry) ForVisitor(visitorID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[r.latest[visitorID]]
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
