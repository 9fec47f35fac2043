package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"

	"github.com/google/uuid"
)

// Store is the in-memory ledger. A single RWMutex guards every table: readers
// take the read lock per call, writers are fully serialized, and Update holds
// the write lock for the whole callback so multi-record mutations are atomic
// to any concurrent reader.
type Store struct {
	mu sync.RWMutex

	users        map[domain.UserID]*domain.User
	streams      map[domain.StreamID]*domain.Stream
	transactions []*domain.Transaction
	chatMessages map[domain.StreamID][]*domain.ChatMessage
	sessions     []*domain.JoinSession
	genres       []*domain.Genre
}

func NewStore() *Store {
	return &Store{
		users:        make(map[domain.UserID]*domain.User),
		streams:      make(map[domain.StreamID]*domain.Stream),
		chatMessages: make(map[domain.StreamID][]*domain.ChatMessage),
	}
}

var _ ports.Ledger = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || (user.Email != "" && existing.Email == user.Email) {
			return domain.ErrUserExists
		}
	}

	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.users[id])
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user)
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user)
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) CreateStream(ctx context.Context, stream *domain.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := *stream
	s.streams[st.ID] = &st
	return nil
}

func (s *Store) GetStream(ctx context.Context, id domain.StreamID) (*domain.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyStream(s.streams[id])
}

func (s *Store) ListStreams(ctx context.Context, filter domain.StreamFilter) ([]*domain.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Stream
	for _, stream := range s.streams {
		if filter.Genre != "" && stream.Genre != filter.Genre {
			continue
		}
		if filter.IsLive != nil && stream.IsLive != *filter.IsLive {
			continue
		}
		c := *stream
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListStreamsByCreator(ctx context.Context, creatorID domain.UserID) ([]*domain.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Stream
	for _, stream := range s.streams {
		if stream.CreatorID == creatorID {
			c := *stream
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) TransactionsFor(ctx context.Context, userID domain.UserID) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			c := *tx
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) OpenSessions(ctx context.Context, streamID domain.StreamID) ([]*domain.JoinSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.JoinSession
	for _, session := range s.sessions {
		if session.StreamID == streamID && session.Open() {
			c := *session
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Genre, 0, len(s.genres))
	for _, genre := range s.genres {
		c := *genre
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := *genre
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	s.genres = append(s.genres, &g)
	return nil
}

// Update runs fn under the write lock. The ledgerTx touches live records, so
// the callback must finish all validation before its first mutating call.
func (s *Store) Update(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&ledgerTx{s: s})
}

type ledgerTx struct {
	s *Store
}

var _ ports.LedgerTx = (*ledgerTx)(nil)

func (t *ledgerTx) User(id domain.UserID) (*domain.User, error) {
	user, ok := t.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (t *ledgerTx) Stream(id domain.StreamID) (*domain.Stream, error) {
	stream, ok := t.s.streams[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	c := *stream
	return &c, nil
}

func (t *ledgerTx) AdjustCoins(id domain.UserID, delta int) (int, error) {
	user, ok := t.s.users[id]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	user.Coins += delta
	return user.Coins, nil
}

func (t *ledgerTx) AddWatched(id domain.UserID, streams int) error {
	user, ok := t.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.TotalWatched += streams
	return nil
}

func (t *ledgerTx) AddEarned(id domain.UserID, coins int) error {
	user, ok := t.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.TotalEarned += coins
	return nil
}

func (t *ledgerTx) AppendTransaction(tx *domain.Transaction) {
	c := *tx
	if c.ID == "" {
		c.ID = domain.TransactionID(uuid.New().String())
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	t.s.transactions = append(t.s.transactions, &c)
}

func (t *ledgerTx) OpenSession(session *domain.JoinSession) {
	c := *session
	if c.ID == "" {
		c.ID = domain.SessionID(uuid.New().String())
	}
	if c.JoinedAt.IsZero() {
		c.JoinedAt = time.Now()
	}
	t.s.sessions = append(t.s.sessions, &c)
}

func (t *ledgerTx) CloseSession(streamID domain.StreamID, userID domain.UserID) (*domain.JoinSession, bool) {
	// Newest first, so a rejoining viewer closes the latest session.
	for i := len(t.s.sessions) - 1; i >= 0; i-- {
		session := t.s.sessions[i]
		if session.StreamID == streamID && session.UserID == userID && session.Open() {
			now := time.Now()
			session.LeftAt = &now
			c := *session
			return &c, true
		}
	}
	return nil, false
}

func (t *ledgerTx) IncrementViewers(id domain.StreamID) error {
	stream, ok := t.s.streams[id]
	if !ok {
		return domain.ErrStreamNotFound
	}
	stream.CurrentViewers++
	stream.TotalViewers++
	return nil
}

func (t *ledgerTx) DecrementViewers(id domain.StreamID) error {
	stream, ok := t.s.streams[id]
	if !ok {
		return domain.ErrStreamNotFound
	}
	if stream.CurrentViewers > 0 {
		stream.CurrentViewers--
	}
	return nil
}

func (t *ledgerTx) ApplyStreamUpdate(id domain.StreamID, update domain.StreamUpdate) (*domain.Stream, error) {
	stream, ok := t.s.streams[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}
	if update.Title != nil {
		stream.Title = *update.Title
	}
	if update.Description != nil {
		stream.Description = *update.Description
	}
	if update.Genre != nil {
		stream.Genre = *update.Genre
	}
	if update.CostInCoins != nil {
		stream.CostInCoins = *update.CostInCoins
	}
	if update.IsLive != nil {
		stream.IsLive = *update.IsLive
	}
	if update.ThumbnailURL != nil {
		stream.ThumbnailURL = *update.ThumbnailURL
	}
	c := *stream
	return &c, nil
}

func copyUser(user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func copyStream(stream *domain.Stream) (*domain.Stream, error) {
	if stream == nil {
		return nil, domain.ErrStreamNotFound
	}
	c := *stream
	return &c, nil
}
