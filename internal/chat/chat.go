// Package chat implements the in-process chat rooms: named rooms with
// buffered-channel fan-out to members and a bounded history ring for
// late joiners. Nothing here touches the database; rooms live for the
// process lifetime.
package chat

import (
	"sync"
	"time"
)

const (
	// historyCap is how many messages a room keeps for replay on join.
	historyCap = 50
	// memberBufferCap sizes each member's delivery channel. A member
	// whose channel is full misses messages rather than stalling the
	// sender.
	memberBufferCap = 64
)

// Message is one chat line, either a user utterance or a join/leave
// notice.
type Message struct {
	Room     string
	Username string
	Text     string
	Notice   bool
	SentAt   time.Time
}

// Member is one session's handle on a room. Receive from C; call Leave
// exactly once when done.
type Member struct {
	C chan Message

	room     *room
	username string
	once     sync.Once
}

// Leave unsubscribes the member and announces the departure. Safe to
// call more than once.
func (m *Member) Leave() {
	m.once.Do(func() {
		m.room.leave(m)
	})
}

type room struct {
	mu      sync.Mutex
	name    string
	hist    []Message // circular buffer
	pos     int       // next write position
	members map[*Member]struct{}
}

// history returns the buffered messages oldest first. Caller holds mu.
func (r *room) history() []Message {
	n := len(r.hist)
	if n == 0 || r.pos == 0 {
		return r.hist
	}
	out := make([]Message, n)
	copy(out, r.hist[r.pos:])
	copy(out[n-r.pos:], r.hist[:r.pos])
	return out
}

// record appends to the circular buffer. Caller holds mu.
func (r *room) record(msg Message) {
	if len(r.hist) < cap(r.hist) {
		r.hist = append(r.hist, msg)
	} else {
		r.hist[r.pos] = msg
	}
	r.pos = (r.pos + 1) % cap(r.hist)
}

// broadcast records the message and fans it out. Non-blocking send so a
// slow member cannot stall the room. Caller holds mu.
func (r *room) broadcast(msg Message) {
	r.record(msg)
	for m := range r.members {
		select {
		case m.C <- msg:
		default:
		}
	}
}

func (r *room) leave(m *Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m]; !ok {
		return
	}
	delete(r.members, m)
	r.broadcast(Message{
		Room:     r.name,
		Username: m.username,
		Text:     "left the room",
		Notice:   true,
		SentAt:   time.Now(),
	})
}

// Manager owns the set of rooms. One instance per process, shared by
// all session workers.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*room
}

// NewManager creates an empty room table.
func NewManager() *Manager {
	return &Manager{rooms: make(map[string]*room)}
}

// getOrCreate returns the named room, creating it on first use. Caller
// must hold m.mu.
func (m *Manager) getOrCreate(name string) *room {
	r, ok := m.rooms[name]
	if !ok {
		r = &room{
			name:    name,
			hist:    make([]Message, 0, historyCap),
			members: make(map[*Member]struct{}),
		}
		m.rooms[name] = r
	}
	return r
}

// Join subscribes a user to the named room, creating the room on first
// use. The returned history is the replay for the joiner (already
// oldest-first); the join notice goes to the other members and into
// history after the snapshot, so joiners do not see their own arrival
// twice.
func (m *Manager) Join(roomName, username string) (*Member, []Message) {
	m.mu.Lock()
	r := m.getOrCreate(roomName)
	m.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	replay := append([]Message(nil), r.history()...)
	mem := &Member{
		C:        make(chan Message, memberBufferCap),
		room:     r,
		username: username,
	}
	r.broadcast(Message{
		Room:     roomName,
		Username: username,
		Text:     "joined the room",
		Notice:   true,
		SentAt:   time.Now(),
	})
	r.members[mem] = struct{}{}
	return mem, replay
}

// Say broadcasts a user message to the room, including the sender.
func (m *Manager) Say(roomName, username, text string) {
	m.mu.Lock()
	r, ok := m.rooms[roomName]
	m.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast(Message{
		Room:     roomName,
		Username: username,
		Text:     text,
		SentAt:   time.Now(),
	})
}

// Who lists the usernames currently in the room, unordered.
func (m *Manager) Who(roomName string) []string {
	m.mu.Lock()
	r, ok := m.rooms[roomName]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.members))
	for mem := range r.members {
		names = append(names, mem.username)
	}
	return names
}

// Rooms lists the known room names, unordered.
func (m *Manager) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.rooms))
	for name := range m.rooms {
		names = append(names, name)
	}
	return names
}
