package services

import (
	"context"
	"fmt"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"
	"streamshare/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SettlementMetrics receives the outcome of every settlement attempt. A nil
// recorder disables metrics.
type SettlementMetrics interface {
	RecordSettlement(result string, coins int)
}

type settlementService struct {
	ledger        ports.Ledger
	allowSelfJoin bool
	metrics       SettlementMetrics
	logger        *zap.SugaredLogger
}

func NewSettlementService(ledger ports.Ledger, allowSelfJoin bool, metrics SettlementMetrics, logger *zap.SugaredLogger) ports.SettlementService {
	return &settlementService{
		ledger:        ledger,
		allowSelfJoin: allowSelfJoin,
		metrics:       metrics,
		logger:        logger,
	}
}

// SettleJoin executes the paid-join workflow inside one ledger write lock.
// All checks run before the first mutation, so a failure leaves every record
// untouched; once the debit starts, the whole record set commits together.
func (s *settlementService) SettleJoin(ctx context.Context, viewerID domain.UserID, streamID domain.StreamID) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.join")
	defer span.End()
	span.SetAttributes(
		attribute.String("viewer_id", string(viewerID)),
		attribute.String("stream_id", string(streamID)),
	)

	var coinsRemaining, coinsMoved int
	err := s.ledger.Update(ctx, func(tx ports.LedgerTx) error {
		stream, err := tx.Stream(streamID)
		if err != nil {
			return err
		}
		viewer, err := tx.User(viewerID)
		if err != nil {
			return err
		}
		if _, err := tx.User(stream.CreatorID); err != nil {
			return fmt.Errorf("stream creator: %w", err)
		}
		if viewerID == stream.CreatorID && !s.allowSelfJoin {
			return domain.ErrSelfJoin
		}
		if viewer.Coins < stream.CostInCoins {
			return &domain.InsufficientFundsError{Have: viewer.Coins, Need: stream.CostInCoins}
		}

		cost := stream.CostInCoins
		coinsMoved = cost

		balance, err := tx.AdjustCoins(viewerID, -cost)
		if err != nil {
			return err
		}
		if _, err := tx.AdjustCoins(stream.CreatorID, cost); err != nil {
			return err
		}

		tx.AppendTransaction(&domain.Transaction{
			UserID:      viewerID,
			StreamID:    streamID,
			CreatorID:   stream.CreatorID,
			Amount:      -cost,
			Type:        domain.TransactionStreamJoin,
			Description: fmt.Sprintf("Joined stream: %s", stream.Title),
		})
		tx.AppendTransaction(&domain.Transaction{
			UserID:      stream.CreatorID,
			StreamID:    streamID,
			Amount:      cost,
			Type:        domain.TransactionCreatorEarning,
			Description: fmt.Sprintf("Earning from stream: %s", stream.Title),
		})

		tx.OpenSession(&domain.JoinSession{
			StreamID:   streamID,
			UserID:     viewerID,
			CoinsSpent: cost,
		})

		if err := tx.IncrementViewers(streamID); err != nil {
			return err
		}
		if err := tx.AddWatched(viewerID, 1); err != nil {
			return err
		}
		if err := tx.AddEarned(stream.CreatorID, cost); err != nil {
			return err
		}

		coinsRemaining = balance
		return nil
	})
	if err != nil {
		s.recordResult(resultFor(err), 0)
		return 0, err
	}

	s.logger.Infow("settled paid join",
		"viewer_id", viewerID,
		"stream_id", streamID,
		"coins_remaining", coinsRemaining,
	)
	s.recordResult("settled", coinsMoved)
	return coinsRemaining, nil
}

// SettleLeave closes the newest open session for the pair and frees a viewer
// slot. No session means nothing happens; coins never move here.
func (s *settlementService) SettleLeave(ctx context.Context, viewerID domain.UserID, streamID domain.StreamID) error {
	ctx, span := tracing.StartSpan(ctx, "settlement.leave")
	defer span.End()

	return s.ledger.Update(ctx, func(tx ports.LedgerTx) error {
		if _, closed := tx.CloseSession(streamID, viewerID); !closed {
			return nil
		}
		return tx.DecrementViewers(streamID)
	})
}

func (s *settlementService) recordResult(result string, coins int) {
	if s.metrics != nil {
		s.metrics.RecordSettlement(result, coins)
	}
}

func resultFor(err error) string {
	switch {
	case domain.IsInsufficientFunds(err):
		return "insufficient_funds"
	case err == domain.ErrStreamNotFound:
		return "stream_not_found"
	case err == domain.ErrSelfJoin:
		return "self_join_rejected"
	default:
		return "error"
	}
}
