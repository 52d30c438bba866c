package session

import (
	"sort"
	"sync"
	"time"
)

// Snapshot is a read-only copy of one session's registry entry. Admin
// screens render these; no reference to the live session is held.
type Snapshot struct {
	ID           string
	PeerAddr     string
	State        State
	UserID       int64
	Username     string
	IsGuest      bool
	ConnectedAt  time.Time
	LastActivity time.Time
}

// entry pairs a snapshot with its own lock so updates to one session
// never contend with reads of another. The registry map lock is only
// held for lookups and membership changes.
type entry struct {
	mu         sync.Mutex
	snap       Snapshot
	disconnect bool
}

// Registry is the process-wide table of live sessions. Workers register
// on entry, update once per navigator iteration and unregister on every
// exit path; admin screens enumerate and set force-disconnect flags.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds the session. Called once by the worker before the first
// navigator iteration.
func (r *Registry) Register(s *Session) {
	e := &entry{snap: snapshotOf(s)}
	r.mu.Lock()
	r.entries[s.ID] = e
	r.mu.Unlock()
}

// Unregister removes the session. Safe to call for ids never registered
// or already removed.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Update refreshes the stored snapshot from the live session.
func (r *Registry) Update(s *Session) {
	r.mu.RLock()
	e := r.entries[s.ID]
	r.mu.RUnlock()
	if e == nil {
		return
	}
	e.mu.Lock()
	disconnect := e.disconnect
	e.snap = snapshotOf(s)
	e.disconnect = disconnect
	e.mu.Unlock()
}

// ShouldDisconnect reports whether an admin has flagged the session.
// Polled once per worker iteration.
func (r *Registry) ShouldDisconnect(id string) bool {
	r.mu.RLock()
	e := r.entries[id]
	r.mu.RUnlock()
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disconnect
}

// ForceDisconnect flags the session for disconnect. Returns false when
// the id is unknown. The worker notices at its next iteration or read
// timeout, whichever comes first.
func (r *Registry) ForceDisconnect(id string) bool {
	r.mu.RLock()
	e := r.entries[id]
	r.mu.RUnlock()
	if e == nil {
		return false
	}
	e.mu.Lock()
	e.disconnect = true
	e.mu.Unlock()
	return true
}

// Enumerate returns per-entry-consistent copies of all live sessions,
// ordered by connect time. The list as a whole is not a global
// snapshot; sessions may register or vanish while it is built.
func (r *Registry) Enumerate() []Snapshot {
	r.mu.RLock()
	list := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e)
	}
	r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(list))
	for _, e := range list {
		e.mu.Lock()
		snaps = append(snaps, e.snap)
		e.mu.Unlock()
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].ConnectedAt.Before(snaps[j].ConnectedAt)
	})
	return snaps
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func snapshotOf(s *Session) Snapshot {
	return Snapshot{
		ID:           s.ID,
		PeerAddr:     s.PeerAddr,
		State:        s.State,
		UserID:       s.UserID(),
		Username:     s.Username(),
		IsGuest:      s.IsGuest,
		ConnectedAt:  s.ConnectedAt,
		LastActivity: s.LastActivity,
	}
}
