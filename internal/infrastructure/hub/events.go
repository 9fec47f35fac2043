package hub

import (
	"encoding/json"

	"streamshare/internal/core/domain"
)

// Inbound message types.
const (
	MessageAuthenticate = "authenticate"
	MessageJoinStream   = "join_stream"
	MessageLeaveStream  = "leave_stream"
	MessageChat         = "chat_message"
	MessageWebRTCSignal = "webrtc_signal"
)

// Outbound event types.
const (
	EventAuthenticated = "authenticated"
	EventAuthError     = "auth_error"
	EventError         = "error"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventNewChat       = "new_chat_message"
	EventWebRTCSignal  = "webrtc_signal"
)

// Envelope is the inbound wire message. Fields beyond Type are populated
// depending on the message type.
type Envelope struct {
	Type         string          `json:"type"`
	Token        string          `json:"token,omitempty"`
	StreamID     domain.StreamID `json:"streamId,omitempty"`
	Content      string          `json:"content,omitempty"`
	Signal       json.RawMessage `json:"signal,omitempty"`
	TargetUserID domain.UserID   `json:"targetUserId,omitempty"`
}

type AuthenticatedEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PresenceEvent struct {
	Type     string          `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
	UserID   domain.UserID   `json:"userId"`
}

type ChatEvent struct {
	Type    string              `json:"type"`
	Message *domain.ChatMessage `json:"message"`
}

type SignalEvent struct {
	Type       string          `json:"type"`
	Signal     json.RawMessage `json:"signal"`
	FromUserID domain.UserID   `json:"fromUserId"`
}
