package server

import "sync"

// SessionRegistry maps an account id to its live connections. A user
// may hold any number of simultaneous connections (one per device);
// presence transitions are derived from set occupancy, never stored.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[int]map[*Client]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[int]map[*Client]struct{}),
	}
}

// Register adds the connection to its user's set. Idempotent. Returns
// true when this is the user's first live connection.
func (r *SessionRegistry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.sessions[c.user.Id]
	if !ok {
		conns = make(map[*Client]struct{})
		r.sessions[c.user.Id] = conns
	}

	first := len(conns) == 0
	conns[c] = struct{}{}
	return first
}

// Unregister removes the connection; unknown connections are a no-op
// so abrupt-disconnect cleanup can run more than once. Returns true
// when this was the user's last live connection.
func (r *SessionRegistry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.sessions[c.user.Id]
	if !ok {
		return false
	}
	if _, ok := conns[c]; !ok {
		return false
	}

	delete(conns, c)
	if len(conns) == 0 {
		delete(r.sessions, c.user.Id)
		return true
	}
	return false
}

func (r *SessionRegistry) IsOnline(userId int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions[userId]) > 0
}

// ConnectionsFor returns a point-in-time snapshot, safe to iterate
// while the registry keeps mutating.
func (r *SessionRegistry) ConnectionsFor(userId int) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Client, 0, len(r.sessions[userId]))
	for c := range r.sessions[userId] {
		conns = append(conns, c)
	}
	return conns
}

// AnyConnection picks one arbitrary live connection, used by the call
// signaling relay.
func (r *SessionRegistry) AnyConnection(userId int) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.sessions[userId] {
		return c, true
	}
	return nil, false
}
