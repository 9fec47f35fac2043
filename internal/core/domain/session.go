package domain

import "time"

type SessionID string

// JoinSession spans one identity's paid membership in one stream, from join to
// leave. LeftAt is nil while the session is open.
type JoinSession struct {
	ID         SessionID  `json:"id"`
	StreamID   StreamID   `json:"streamId"`
	UserID     UserID     `json:"userId"`
	CoinsSpent int        `json:"coinsSpent"`
	JoinedAt   time.Time  `json:"joinedAt"`
	LeftAt     *time.Time `json:"leftAt,omitempty"`
}

func (s *JoinSession) Open() bool {
	return s.LeftAt == nil
}
