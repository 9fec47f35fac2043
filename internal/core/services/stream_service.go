package services

import (
	"context"
	"time"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"

	"github.com/google/uuid"
)

type streamService struct {
	ledger ports.Ledger
}

func NewStreamService(ledger ports.Ledger) ports.StreamService {
	return &streamService{ledger: ledger}
}

func (s *streamService) CreateStream(ctx context.Context, creatorID domain.UserID, title, description, genre string, cost int, thumbnailURL string) (*domain.Stream, error) {
	if _, err := s.ledger.GetUser(ctx, creatorID); err != nil {
		return nil, err
	}

	stream := &domain.Stream{
		ID:           domain.StreamID(uuid.New().String()),
		Title:        title,
		Description:  description,
		CreatorID:    creatorID,
		Genre:        genre,
		CostInCoins:  cost,
		StreamKey:    uuid.New().String(),
		CreatedAt:    time.Now(),
		ThumbnailURL: thumbnailURL,
	}

	if err := s.ledger.CreateStream(ctx, stream); err != nil {
		return nil, err
	}
	return stream, nil
}

func (s *streamService) GetStream(ctx context.Context, id domain.StreamID) (*domain.Stream, error) {
	return s.ledger.GetStream(ctx, id)
}

func (s *streamService) ListStreams(ctx context.Context, filter domain.StreamFilter) ([]*domain.Stream, error) {
	return s.ledger.ListStreams(ctx, filter)
}

// UpdateStream applies creator edits. Only the owning creator may change a
// stream; viewer counters are off limits here, they belong to settlement.
func (s *streamService) UpdateStream(ctx context.Context, callerID domain.UserID, id domain.StreamID, update domain.StreamUpdate) (*domain.Stream, error) {
	stream, err := s.ledger.GetStream(ctx, id)
	if err != nil {
		return nil, err
	}
	if stream.CreatorID != callerID {
		return nil, domain.ErrNotStreamOwner
	}

	var updated *domain.Stream
	err = s.ledger.Update(ctx, func(tx ports.LedgerTx) error {
		updated, err = tx.ApplyStreamUpdate(id, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
