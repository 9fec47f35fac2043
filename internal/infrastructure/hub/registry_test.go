package hub

import (
	"errors"
	"sync"
	"testing"

	"streamshare/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSender records every message it is asked to deliver.
type captureSender struct {
	mu   sync.Mutex
	sent []interface{}
	fail bool
}

func (c *captureSender) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection closed")
	}
	c.sent = append(c.sent, v)
	return nil
}

func (c *captureSender) messages() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.sent))
	copy(out, c.sent)
	return out
}

func newTestConn(id string, userID domain.UserID) (*Conn, *captureSender) {
	sender := &captureSender{}
	return NewConn(id, userID, "user-"+string(userID), sender), sender
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	conn, _ := newTestConn("c1", "u1")

	require.NoError(t, r.Register(conn))
	assert.Equal(t, 1, r.Len())

	got, ok := r.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, conn, got)

	_, ok = r.RoomOf("c1")
	assert.False(t, ok, "fresh connection has no room")
}

func TestRegistry_RegisterDuplicateConnID(t *testing.T) {
	r := NewRegistry()
	conn, _ := newTestConn("c1", "u1")
	require.NoError(t, r.Register(conn))

	again, _ := newTestConn("c1", "u2")
	assert.ErrorIs(t, r.Register(again), domain.ErrAlreadyRegistered)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SameUserMultipleConnections(t *testing.T) {
	r := NewRegistry()
	c1, _ := newTestConn("c1", "u1")
	c2, _ := newTestConn("c2", "u1")

	require.NoError(t, r.Register(c1))
	require.NoError(t, r.Register(c2))

	conns := r.ConnectionsFor("u1")
	assert.Len(t, conns, 2)

	// Dropping one connection leaves the other reachable.
	_, _, ok := r.Unregister("c1")
	require.True(t, ok)
	conns = r.ConnectionsFor("u1")
	require.Len(t, conns, 1)
	assert.Equal(t, "c2", conns[0].ID())
}

func TestRegistry_JoinRoom(t *testing.T) {
	r := NewRegistry()
	conn, _ := newTestConn("c1", "u1")
	require.NoError(t, r.Register(conn))

	prev, changed, err := r.JoinRoom("c1", "s1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, prev)

	room, ok := r.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, domain.StreamID("s1"), room)
	assert.Len(t, r.ConnectionsIn("s1"), 1)
}

func TestRegistry_JoinRoomUnregistered(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.JoinRoom("ghost", "s1")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestRegistry_JoinRoomSwitchReportsVacatedRoom(t *testing.T) {
	r := NewRegistry()
	conn, _ := newTestConn("c1", "u1")
	require.NoError(t, r.Register(conn))
	_, _, err := r.JoinRoom("c1", "s1")
	require.NoError(t, err)

	prev, changed, err := r.JoinRoom("c1", "s2")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.StreamID("s1"), prev)

	assert.Empty(t, r.ConnectionsIn("s1"))
	assert.Len(t, r.ConnectionsIn("s2"), 1)
}

func TestRegistry_JoinRoomSameRoomIsNoop(t *testing.T) {
	r := NewRegistry()
	conn, _ := newTestConn("c1", "u1")
	require.NoError(t, r.Register(conn))
	_, _, err := r.JoinRoom("c1", "s1")
	require.NoError(t, err)

	prev, changed, err := r.JoinRoom("c1", "s1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, prev)
	assert.Len(t, r.ConnectionsIn("s1"), 1)
}

func TestRegistry_LeaveRoom(t *testing.T) {
	r := NewRegistry()
	conn, _ := newTestConn("c1", "u1")
	require.NoError(t, r.Register(conn))
	_, _, err := r.JoinRoom("c1", "s1")
	require.NoError(t, err)

	room, left := r.LeaveRoom("c1")
	assert.True(t, left)
	assert.Equal(t, domain.StreamID("s1"), room)
	assert.Empty(t, r.ConnectionsIn("s1"))

	// Leaving again is a no-op.
	_, left = r.LeaveRoom("c1")
	assert.False(t, left)

	// Still registered and able to rejoin.
	_, ok := r.Lookup("c1")
	assert.True(t, ok)
}

func TestRegistry_UnregisterImplicitLeave(t *testing.T) {
	r := NewRegistry()
	conn, _ := newTestConn("c1", "u1")
	require.NoError(t, r.Register(conn))
	_, _, err := r.JoinRoom("c1", "s1")
	require.NoError(t, err)

	gone, room, ok := r.Unregister("c1")
	require.True(t, ok)
	assert.Equal(t, conn, gone)
	assert.Equal(t, domain.StreamID("s1"), room)

	assert.Empty(t, r.ConnectionsIn("s1"))
	assert.Empty(t, r.ConnectionsFor("u1"))
	assert.Equal(t, 0, r.Len())

	_, _, ok = r.Unregister("c1")
	assert.False(t, ok)
}
