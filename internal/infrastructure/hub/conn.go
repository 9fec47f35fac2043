package hub

import "streamshare/internal/core/domain"

// Sender is the writable side of a transport connection. Implementations must
// be safe for concurrent use; a failed send means the transport is gone.
type Sender interface {
	Send(v interface{}) error
}

// Conn ties one live transport connection to an authenticated identity. It is
// ephemeral: created when a connection authenticates, gone when it closes.
// Room membership lives in the registry, not here.
type Conn struct {
	id       string
	userID   domain.UserID
	username string
	sender   Sender
}

func NewConn(id string, userID domain.UserID, username string, sender Sender) *Conn {
	return &Conn{id: id, userID: userID, username: username, sender: sender}
}

func (c *Conn) ID() string            { return c.id }
func (c *Conn) UserID() domain.UserID { return c.userID }
func (c *Conn) Username() string      { return c.username }

func (c *Conn) Send(v interface{}) error {
	return c.sender.Send(v)
}
