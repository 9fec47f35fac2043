package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// maxHistoryPerStream bounds the Redis list so a busy chat cannot grow
// unbounded; older messages fall off the left end.
const maxHistoryPerStream = 500

// RedisChatRepository stores chat history as one Redis list per stream,
// appended on the right so LRANGE returns messages oldest first.
type RedisChatRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisChatRepository(client *redis.Client) ports.ChatRepository {
	return &RedisChatRepository{
		client: client,
		prefix: "streamshare:chat:",
	}
}

func (r *RedisChatRepository) historyKey(streamID domain.StreamID) string {
	return r.prefix + string(streamID)
}

func (r *RedisChatRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	c := *msg
	if c.ID == "" {
		c.ID = domain.ChatMessageID(uuid.New().String())
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	data, err := json.Marshal(&c)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	key := r.historyKey(c.StreamID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -maxHistoryPerStream, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat message to Redis: %w", err)
	}

	*msg = c
	return nil
}

func (r *RedisChatRepository) History(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.ChatMessage, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	entries, err := r.client.LRange(ctx, r.historyKey(streamID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history from Redis: %w", err)
	}

	out := make([]*domain.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}
		out = append(out, &msg)
	}
	return out, nil
}
