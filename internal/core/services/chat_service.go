package services

import (
	"context"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"
	"streamshare/pkg/validation"
)

type chatService struct {
	ledger ports.Ledger
	chat   ports.ChatRepository
}

func NewChatService(ledger ports.Ledger, chat ports.ChatRepository) ports.ChatService {
	return &chatService{ledger: ledger, chat: chat}
}

// Post persists the message and returns the stored record with the author's
// username resolved. Callers broadcast only after Post returns, which is what
// keeps room chat observed in store order.
func (s *chatService) Post(ctx context.Context, streamID domain.StreamID, userID domain.UserID, content string) (*domain.ChatMessage, error) {
	if err := validation.ValidateChatMessage(content); err != nil {
		return nil, err
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetStream(ctx, streamID); err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		StreamID: streamID,
		UserID:   userID,
		Username: user.Username,
		Message:  content,
	}
	if err := s.chat.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *chatService) History(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.ChatMessage, error) {
	messages, err := s.chat.History(ctx, streamID, limit)
	if err != nil {
		return nil, err
	}

	// Older records may predate username denormalization.
	for _, msg := range messages {
		if msg.Username == "" {
			if user, err := s.ledger.GetUser(ctx, msg.UserID); err == nil {
				msg.Username = user.Username
			} else {
				msg.Username = "Unknown"
			}
		}
	}
	return messages, nil
}
