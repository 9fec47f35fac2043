package hub

import (
	"encoding/json"

	"streamshare/internal/core/domain"
)

// Relay forwards peer-handshake payloads between exactly two identities. The
// payload is opaque: it is never parsed, so the hub stays independent of
// whatever negotiation protocol the peers speak. An offline target drops the
// message silently, same as every other hub delivery.
type Relay struct {
	router *Router
}

func NewRelay(router *Router) *Relay {
	return &Relay{router: router}
}

// Forward sends the signal to every live connection of the target identity,
// stamped with the sender so the target knows who to answer.
func (r *Relay) Forward(from, to domain.UserID, signal json.RawMessage) {
	r.router.SendToUser(to, &SignalEvent{
		Type:       EventWebRTCSignal,
		Signal:     signal,
		FromUserID: from,
	})
}
