package hub

import (
	"sync"

	"streamshare/internal/core/domain"
)

type entry struct {
	conn *Conn
	room domain.StreamID // empty while not in any room
}

// Registry maps live connections to identities and room membership. The
// primary map is keyed by connection id; the room and identity indices are
// secondary, so one identity can hold any number of simultaneous connections.
// The registry only mutates its own state; notifying room members is the
// caller's job.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*entry
	byRoom map[domain.StreamID]map[string]*entry
	byUser map[domain.UserID]map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*entry),
		byRoom: make(map[domain.StreamID]map[string]*entry),
		byUser: make(map[domain.UserID]map[string]*entry),
	}
}

// Register adds an authenticated connection with no room.
func (r *Registry) Register(conn *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.id]; exists {
		return domain.ErrAlreadyRegistered
	}

	e := &entry{conn: conn}
	r.conns[conn.id] = e

	if r.byUser[conn.userID] == nil {
		r.byUser[conn.userID] = make(map[string]*entry)
	}
	r.byUser[conn.userID][conn.id] = e
	return nil
}

// JoinRoom moves the connection into a room. It returns the room the
// connection vacated, if any, so the caller can send the leave notification,
// and whether membership changed at all. Re-joining the current room is a
// no-op with changed=false.
func (r *Registry) JoinRoom(connID string, room domain.StreamID) (prev domain.StreamID, changed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return "", false, domain.ErrNotAuthenticated
	}

	prev = e.room
	if prev == room {
		return "", false, nil
	}
	if prev != "" {
		r.removeFromRoom(connID, prev)
	}

	e.room = room
	if r.byRoom[room] == nil {
		r.byRoom[room] = make(map[string]*entry)
	}
	r.byRoom[room][connID] = e
	return prev, true, nil
}

// LeaveRoom clears the connection's room. Idempotent: a connection with no
// room is a no-op.
func (r *Registry) LeaveRoom(connID string) (domain.StreamID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok || e.room == "" {
		return "", false
	}

	room := e.room
	r.removeFromRoom(connID, room)
	e.room = ""
	return room, true
}

// Unregister removes the connection entirely. A connection still in a room is
// implicitly removed from it; the vacated room is returned so the caller can
// run the same side effects as an explicit leave.
func (r *Registry) Unregister(connID string) (*Conn, domain.StreamID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil, "", false
	}

	room := e.room
	if room != "" {
		r.removeFromRoom(connID, room)
	}

	delete(r.conns, connID)
	if userConns := r.byUser[e.conn.userID]; userConns != nil {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.byUser, e.conn.userID)
		}
	}
	return e.conn, room, true
}

// ConnectionsIn returns a snapshot of every connection currently in the room.
func (r *Registry) ConnectionsIn(room domain.StreamID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.byRoom[room]
	out := make([]*Conn, 0, len(members))
	for _, e := range members {
		out = append(out, e.conn)
	}
	return out
}

// ConnectionsFor returns a snapshot of every connection held by an identity,
// possibly empty.
func (r *Registry) ConnectionsFor(userID domain.UserID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns := r.byUser[userID]
	out := make([]*Conn, 0, len(userConns))
	for _, e := range userConns {
		out = append(out, e.conn)
	}
	return out
}

// Lookup returns the registered connection for an id.
func (r *Registry) Lookup(connID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// RoomOf reports the room a connection is in, if any.
func (r *Registry) RoomOf(connID string) (domain.StreamID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok || e.room == "" {
		return "", false
	}
	return e.room, true
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// caller holds r.mu
func (r *Registry) removeFromRoom(connID string, room domain.StreamID) {
	if members := r.byRoom[room]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.byRoom, room)
		}
	}
}
