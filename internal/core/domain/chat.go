package domain

import "time"

type ChatMessageID string

// ChatMessage is append-only per stream; never edited after creation.
type ChatMessage struct {
	ID        ChatMessageID `json:"id"`
	StreamID  StreamID      `json:"streamId"`
	UserID    UserID        `json:"userId"`
	Username  string        `json:"username,omitempty"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"createdAt"`
}
