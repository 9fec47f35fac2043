package ports

import (
	"context"

	"streamshare/internal/core/domain"
)

// Ledger is the store holding all business records. Read methods run under a
// shared lock; Update runs the callback under the store's exclusive write lock
// so a multi-record mutation appears atomic to every concurrent reader.
type Ledger interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	CreateStream(ctx context.Context, stream *domain.Stream) error
	GetStream(ctx context.Context, id domain.StreamID) (*domain.Stream, error)
	ListStreams(ctx context.Context, filter domain.StreamFilter) ([]*domain.Stream, error)
	ListStreamsByCreator(ctx context.Context, creatorID domain.UserID) ([]*domain.Stream, error)

	TransactionsFor(ctx context.Context, userID domain.UserID) ([]*domain.Transaction, error)
	OpenSessions(ctx context.Context, streamID domain.StreamID) ([]*domain.JoinSession, error)

	ListGenres(ctx context.Context) ([]*domain.Genre, error)
	CreateGenre(ctx context.Context, genre *domain.Genre) error

	Update(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the view handed to an Update callback. Every method operates on
// live records while the write lock is held; an error returned from the
// callback must be returned before the first mutating call to keep failed
// operations free of partial writes.
type LedgerTx interface {
	User(id domain.UserID) (*domain.User, error)
	Stream(id domain.StreamID) (*domain.Stream, error)

	AdjustCoins(id domain.UserID, delta int) (balance int, err error)
	AddWatched(id domain.UserID, streams int) error
	AddEarned(id domain.UserID, coins int) error

	AppendTransaction(tx *domain.Transaction)
	OpenSession(session *domain.JoinSession)
	// CloseSession closes the newest open session for the pair and reports
	// whether one existed.
	CloseSession(streamID domain.StreamID, userID domain.UserID) (*domain.JoinSession, bool)

	IncrementViewers(id domain.StreamID) error
	DecrementViewers(id domain.StreamID) error
	ApplyStreamUpdate(id domain.StreamID, update domain.StreamUpdate) (*domain.Stream, error)
}

// ChatRepository stores the per-stream chat history. Kept separate from the
// Ledger so the backing store can be swapped (memory or Redis) without
// touching coin bookkeeping.
type ChatRepository interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	History(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.ChatMessage, error)
}
