package memory

import (
	"context"
	"sync"
	"time"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"

	"github.com/google/uuid"
)

// MemoryChatRepository keeps the per-stream chat history in process memory.
type MemoryChatRepository struct {
	mu       sync.RWMutex
	messages map[domain.StreamID][]*domain.ChatMessage
}

func NewMemoryChatRepository() ports.ChatRepository {
	return &MemoryChatRepository{
		messages: make(map[domain.StreamID][]*domain.ChatMessage),
	}
}

func (r *MemoryChatRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *msg
	if c.ID == "" {
		c.ID = domain.ChatMessageID(uuid.New().String())
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.messages[c.StreamID] = append(r.messages[c.StreamID], &c)

	// Hand the generated fields back so the caller broadcasts the persisted
	// record, not its draft.
	*msg = c
	return nil
}

func (r *MemoryChatRepository) History(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.messages[streamID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]*domain.ChatMessage, 0, len(history))
	for _, msg := range history {
		c := *msg
		out = append(out, &c)
	}
	return out, nil
}
