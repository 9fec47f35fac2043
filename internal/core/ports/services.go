package ports

import (
	"context"

	"streamshare/internal/core/domain"
)

// SettlementService moves coins between a viewer and a creator atomically with
// the stream's viewer-count bookkeeping.
type SettlementService interface {
	// SettleJoin runs the paid-join workflow and returns the viewer's
	// post-debit balance. Precondition failures leave the ledger untouched.
	SettleJoin(ctx context.Context, viewerID domain.UserID, streamID domain.StreamID) (int, error)
	// SettleLeave closes the open join session, if any, and decrements the
	// stream's current viewer count. Idempotent; never refunds.
	SettleLeave(ctx context.Context, viewerID domain.UserID, streamID domain.StreamID) error
}

type StreamService interface {
	CreateStream(ctx context.Context, creatorID domain.UserID, title, description, genre string, cost int, thumbnailURL string) (*domain.Stream, error)
	GetStream(ctx context.Context, id domain.StreamID) (*domain.Stream, error)
	ListStreams(ctx context.Context, filter domain.StreamFilter) ([]*domain.Stream, error)
	UpdateStream(ctx context.Context, callerID domain.UserID, id domain.StreamID, update domain.StreamUpdate) (*domain.Stream, error)
}

// ChatService persists a message before anyone sees it, so room members
// observe chat in store order.
type ChatService interface {
	Post(ctx context.Context, streamID domain.StreamID, userID domain.UserID, content string) (*domain.ChatMessage, error)
	History(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.ChatMessage, error)
}

// PasswordHasher is the external credential collaborator. The hub never sees
// raw passwords outside registration and login.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
