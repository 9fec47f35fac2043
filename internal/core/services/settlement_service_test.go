package services

import (
	"context"
	"sync"
	"testing"

	"streamshare/internal/core/domain"
	"streamshare/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedSettlement struct {
	result string
	coins  int
}

type fakeSettlementMetrics struct {
	mu       sync.Mutex
	recorded []recordedSettlement
}

func (f *fakeSettlementMetrics) RecordSettlement(result string, coins int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, recordedSettlement{result, coins})
}

func (f *fakeSettlementMetrics) last() (recordedSettlement, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.recorded) == 0 {
		return recordedSettlement{}, false
	}
	return f.recorded[len(f.recorded)-1], true
}

func newSettlementFixture(t *testing.T, allowSelfJoin bool) (*memory.Store, *fakeSettlementMetrics, *settlementService) {
	t.Helper()
	store := memory.NewStore()
	metrics := &fakeSettlementMetrics{}
	svc := NewSettlementService(store, allowSelfJoin, metrics, zaptest.NewLogger(t).Sugar()).(*settlementService)
	return store, metrics, svc
}

func seedViewerAndStream(t *testing.T, store *memory.Store, viewerCoins, cost int) (domain.UserID, domain.UserID, domain.StreamID) {
	t.Helper()
	ctx := context.Background()

	creator := &domain.User{ID: "creator-1", Username: "creator", Coins: 0, IsCreator: true}
	viewer := &domain.User{ID: "viewer-1", Username: "viewer", Coins: viewerCoins}
	require.NoError(t, store.CreateUser(ctx, creator))
	require.NoError(t, store.CreateUser(ctx, viewer))

	stream := &domain.Stream{
		ID:          "stream-1",
		CreatorID:   creator.ID,
		Title:       "Morning Session",
		CostInCoins: cost,
		IsLive:      true,
	}
	require.NoError(t, store.CreateStream(ctx, stream))

	return viewer.ID, creator.ID, stream.ID
}

func TestSettleJoin_Success(t *testing.T) {
	store, metrics, svc := newSettlementFixture(t, false)
	viewerID, creatorID, streamID := seedViewerAndStream(t, store, 100, 25)
	ctx := context.Background()

	remaining, err := svc.SettleJoin(ctx, viewerID, streamID)
	require.NoError(t, err)
	assert.Equal(t, 75, remaining)

	viewer, err := store.GetUser(ctx, viewerID)
	require.NoError(t, err)
	assert.Equal(t, 75, viewer.Coins)
	assert.Equal(t, 1, viewer.TotalWatched)

	creator, err := store.GetUser(ctx, creatorID)
	require.NoError(t, err)
	assert.Equal(t, 25, creator.Coins)
	assert.Equal(t, 25, creator.TotalEarned)

	stream, err := store.GetStream(ctx, streamID)
	require.NoError(t, err)
	assert.Equal(t, 1, stream.CurrentViewers)
	assert.Equal(t, 1, stream.TotalViewers)

	viewerTxs, err := store.TransactionsFor(ctx, viewerID)
	require.NoError(t, err)
	require.Len(t, viewerTxs, 1)
	assert.Equal(t, -25, viewerTxs[0].Amount)
	assert.Equal(t, domain.TransactionStreamJoin, viewerTxs[0].Type)

	creatorTxs, err := store.TransactionsFor(ctx, creatorID)
	require.NoError(t, err)
	require.Len(t, creatorTxs, 1)
	assert.Equal(t, 25, creatorTxs[0].Amount)
	assert.Equal(t, domain.TransactionCreatorEarning, creatorTxs[0].Type)

	sessions, err := store.OpenSessions(ctx, streamID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, viewerID, sessions[0].UserID)
	assert.Equal(t, 25, sessions[0].CoinsSpent)

	last, ok := metrics.last()
	require.True(t, ok)
	assert.Equal(t, recordedSettlement{"settled", 25}, last)
}

func TestSettleJoin_InsufficientFundsLeavesLedgerUntouched(t *testing.T) {
	store, metrics, svc := newSettlementFixture(t, false)
	viewerID, creatorID, streamID := seedViewerAndStream(t, store, 10, 25)
	ctx := context.Background()

	_, err := svc.SettleJoin(ctx, viewerID, streamID)
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientFunds(err))

	var ife *domain.InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, 10, ife.Have)
	assert.Equal(t, 25, ife.Need)

	// Nothing moved.
	viewer, _ := store.GetUser(ctx, viewerID)
	assert.Equal(t, 10, viewer.Coins)
	assert.Equal(t, 0, viewer.TotalWatched)

	creator, _ := store.GetUser(ctx, creatorID)
	assert.Equal(t, 0, creator.Coins)
	assert.Equal(t, 0, creator.TotalEarned)

	stream, _ := store.GetStream(ctx, streamID)
	assert.Equal(t, 0, stream.CurrentViewers)
	assert.Equal(t, 0, stream.TotalViewers)

	txs, _ := store.TransactionsFor(ctx, viewerID)
	assert.Empty(t, txs)

	sessions, _ := store.OpenSessions(ctx, streamID)
	assert.Empty(t, sessions)

	last, ok := metrics.last()
	require.True(t, ok)
	assert.Equal(t, recordedSettlement{"insufficient_funds", 0}, last)
}

func TestSettleJoin_FreeStream(t *testing.T) {
	store, _, svc := newSettlementFixture(t, false)
	viewerID, creatorID, streamID := seedViewerAndStream(t, store, 0, 0)
	ctx := context.Background()

	remaining, err := svc.SettleJoin(ctx, viewerID, streamID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	creator, _ := store.GetUser(ctx, creatorID)
	assert.Equal(t, 0, creator.Coins)

	stream, _ := store.GetStream(ctx, streamID)
	assert.Equal(t, 1, stream.CurrentViewers)

	// A zero-cost join still records the session and both transactions.
	sessions, _ := store.OpenSessions(ctx, streamID)
	assert.Len(t, sessions, 1)
	txs, _ := store.TransactionsFor(ctx, viewerID)
	assert.Len(t, txs, 1)
}

func TestSettleJoin_StreamNotFound(t *testing.T) {
	store, metrics, svc := newSettlementFixture(t, false)
	viewerID, _, _ := seedViewerAndStream(t, store, 100, 25)

	_, err := svc.SettleJoin(context.Background(), viewerID, "no-such-stream")
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)

	last, ok := metrics.last()
	require.True(t, ok)
	assert.Equal(t, "stream_not_found", last.result)
}

func TestSettleJoin_UnknownViewer(t *testing.T) {
	store, _, svc := newSettlementFixture(t, false)
	_, _, streamID := seedViewerAndStream(t, store, 100, 25)

	_, err := svc.SettleJoin(context.Background(), "ghost", streamID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSettleJoin_SelfJoinRejectedByDefault(t *testing.T) {
	store, metrics, svc := newSettlementFixture(t, false)
	_, creatorID, streamID := seedViewerAndStream(t, store, 100, 25)
	ctx := context.Background()

	_, err := svc.SettleJoin(ctx, creatorID, streamID)
	assert.ErrorIs(t, err, domain.ErrSelfJoin)

	creator, _ := store.GetUser(ctx, creatorID)
	assert.Equal(t, 0, creator.Coins)
	stream, _ := store.GetStream(ctx, streamID)
	assert.Equal(t, 0, stream.CurrentViewers)

	last, ok := metrics.last()
	require.True(t, ok)
	assert.Equal(t, "self_join_rejected", last.result)
}

func TestSettleJoin_SelfJoinAllowedNetsToZero(t *testing.T) {
	store, _, svc := newSettlementFixture(t, true)
	ctx := context.Background()

	creator := &domain.User{ID: "creator-1", Username: "creator", Coins: 40, IsCreator: true}
	require.NoError(t, store.CreateUser(ctx, creator))
	stream := &domain.Stream{ID: "stream-1", CreatorID: creator.ID, Title: "Own Show", CostInCoins: 25, IsLive: true}
	require.NoError(t, store.CreateStream(ctx, stream))

	remaining, err := svc.SettleJoin(ctx, creator.ID, stream.ID)
	require.NoError(t, err)

	// Debit then credit on the same account: the balance reported mid-flight
	// is post-debit, the stored balance nets back to the start.
	assert.Equal(t, 15, remaining)
	got, _ := store.GetUser(ctx, creator.ID)
	assert.Equal(t, 40, got.Coins)
	assert.Equal(t, 25, got.TotalEarned)

	updated, _ := store.GetStream(ctx, stream.ID)
	assert.Equal(t, 1, updated.CurrentViewers)
}

func TestSettleLeave_ClosesSessionAndDecrementsOnce(t *testing.T) {
	store, _, svc := newSettlementFixture(t, false)
	viewerID, _, streamID := seedViewerAndStream(t, store, 100, 25)
	ctx := context.Background()

	_, err := svc.SettleJoin(ctx, viewerID, streamID)
	require.NoError(t, err)

	require.NoError(t, svc.SettleLeave(ctx, viewerID, streamID))

	stream, _ := store.GetStream(ctx, streamID)
	assert.Equal(t, 0, stream.CurrentViewers)
	assert.Equal(t, 1, stream.TotalViewers)

	sessions, _ := store.OpenSessions(ctx, streamID)
	assert.Empty(t, sessions)

	// Second leave is a no-op; the count never goes negative.
	require.NoError(t, svc.SettleLeave(ctx, viewerID, streamID))
	stream, _ = store.GetStream(ctx, streamID)
	assert.Equal(t, 0, stream.CurrentViewers)

	// Coins stay with the creator, no refunds.
	viewer, _ := store.GetUser(ctx, viewerID)
	assert.Equal(t, 75, viewer.Coins)
}

func TestSettleLeave_WithoutJoinIsNoop(t *testing.T) {
	store, _, svc := newSettlementFixture(t, false)
	viewerID, _, streamID := seedViewerAndStream(t, store, 100, 25)
	ctx := context.Background()

	require.NoError(t, svc.SettleLeave(ctx, viewerID, streamID))

	stream, _ := store.GetStream(ctx, streamID)
	assert.Equal(t, 0, stream.CurrentViewers)
}

func TestSettleJoin_ConcurrentJoinsConserveCoins(t *testing.T) {
	store, _, svc := newSettlementFixture(t, false)
	ctx := context.Background()

	creator := &domain.User{ID: "creator-1", Username: "creator", IsCreator: true}
	require.NoError(t, store.CreateUser(ctx, creator))
	stream := &domain.Stream{ID: "stream-1", CreatorID: creator.ID, Title: "Big Show", CostInCoins: 5, IsLive: true}
	require.NoError(t, store.CreateStream(ctx, stream))

	const viewers = 20
	total := 0
	for i := 0; i < viewers; i++ {
		u := &domain.User{
			ID:       domain.UserID("viewer-" + string(rune('a'+i))),
			Username: "viewer-" + string(rune('a'+i)),
			Coins:    7,
		}
		total += u.Coins
		require.NoError(t, store.CreateUser(ctx, u))
	}

	var wg sync.WaitGroup
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.UserID("viewer-" + string(rune('a'+i)))
			_, _ = svc.SettleJoin(ctx, id, stream.ID)
		}(i)
	}
	wg.Wait()

	// Sum over every account equals the sum before settlement.
	sum := 0
	for i := 0; i < viewers; i++ {
		u, err := store.GetUser(ctx, domain.UserID("viewer-"+string(rune('a'+i))))
		require.NoError(t, err)
		assert.Equal(t, 2, u.Coins)
		sum += u.Coins
	}
	got, err := store.GetUser(ctx, creator.ID)
	require.NoError(t, err)
	sum += got.Coins
	assert.Equal(t, total, sum)
	assert.Equal(t, viewers*5, got.Coins)

	updated, _ := store.GetStream(ctx, stream.ID)
	assert.Equal(t, viewers, updated.CurrentViewers)
}
