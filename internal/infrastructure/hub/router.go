package hub

import (
	"streamshare/internal/core/domain"

	"go.uber.org/zap"
)

// Router fans messages out to live connections. Delivery is best-effort and
// at-most-once: a dead connection is skipped without affecting the rest, and
// a target with no live connection is a silent no-op.
type Router struct {
	registry *Registry
	logger   *zap.SugaredLogger
}

func NewRouter(registry *Registry, logger *zap.SugaredLogger) *Router {
	return &Router{registry: registry, logger: logger}
}

// BroadcastToRoom delivers msg to every connection in the room except
// exclude. exclude may be nil.
func (r *Router) BroadcastToRoom(room domain.StreamID, msg interface{}, exclude *Conn) {
	for _, conn := range r.registry.ConnectionsIn(room) {
		if exclude != nil && conn.ID() == exclude.ID() {
			continue
		}
		if err := conn.Send(msg); err != nil {
			r.logger.Debugw("dropping message for dead connection",
				"conn_id", conn.ID(),
				"user_id", conn.UserID(),
				"room", room,
				"error", err,
			)
		}
	}
}

// SendToUser delivers msg to every live connection of the identity.
func (r *Router) SendToUser(userID domain.UserID, msg interface{}) {
	for _, conn := range r.registry.ConnectionsFor(userID) {
		if err := conn.Send(msg); err != nil {
			r.logger.Debugw("dropping message for dead connection",
				"conn_id", conn.ID(),
				"user_id", userID,
				"error", err,
			)
		}
	}
}
