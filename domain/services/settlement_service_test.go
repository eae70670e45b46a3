package services

import (
	"context"
	"testing"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPlatformID = int64(999)

type settlementFixture struct {
	svc        *settlementService
	store      *testhelpers.MemoryAccounts
	gameRepo   *testhelpers.MockBingoGameRepository
	battleRepo *testhelpers.MockDiceBattleRepository
	publisher  *testhelpers.MockEventPublisher
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		store:      testhelpers.NewMemoryAccounts(),
		gameRepo:   new(testhelpers.MockBingoGameRepository),
		battleRepo: new(testhelpers.MockDiceBattleRepository),
		publisher:  new(testhelpers.MockEventPublisher),
	}
	f.publisher.On("Publish", mock.Anything).Return(nil)
	ledger := NewLedgerService(f.store, f.store, f.publisher)
	f.svc = NewSettlementService(ledger, f.store, f.gameRepo, f.battleRepo, f.publisher, testPlatformID).(*settlementService)
	f.store.Seed(testPlatformID, 0)
	return f
}

// startedGame mirrors a game after 20 units at 5 with a base prize of 100 and 10% commission
func startedGame() *entities.BingoGame {
	return &entities.BingoGame{
		ID:                1,
		OrganizerID:       1,
		RuleSet:           entities.BingoRuleSet75,
		Pattern:           entities.BingoPatternLine,
		State:             entities.BingoGameStateStarted,
		PricePerUnit:      5,
		BasePrize:         100,
		HeldBalance:       100,
		OrganizerLocked:   100,
		UnitsSold:         20,
		PeakUnitsSold:     20,
		CommissionRateBps: 1000,
	}
}

func (f *settlementFixture) expectGame(game *entities.BingoGame) {
	locked := *game
	f.gameRepo.On("GetByIDForUpdate", mock.Anything, game.ID).Return(&locked, nil).Once()
	f.gameRepo.On("Update", mock.Anything, mock.AnythingOfType("*entities.BingoGame")).Return(nil)
}

func TestSettlementService_SettleBingo_SingleWinner(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(t)
	ctx := context.Background()

	f.store.Seed(1, 0)
	require.NoError(t, f.store.UpdateBalances(ctx, 1, 0, 100))
	f.store.Seed(2, 7)

	game := startedGame()
	f.expectGame(game)

	settlement, err := f.svc.SettleBingo(ctx, game, []int64{2})
	require.NoError(t, err)

	available, blocked := f.store.Balance(2)
	assert.Equal(t, int64(107), available, "winner receives the prize")
	assert.Zero(t, blocked)

	available, blocked = f.store.Balance(1)
	assert.Equal(t, int64(190), available, "organizer gets the lock back plus revenue after commission")
	assert.Zero(t, blocked)

	available, _ = f.store.Balance(testPlatformID)
	assert.Equal(t, int64(10), available)

	assert.Equal(t, int64(100), settlement.Prize)
	assert.Equal(t, int64(10), settlement.Commission)
	assert.Equal(t, int64(90), settlement.OrganizerRevenue)
	assert.Equal(t, int64(100), settlement.Unlocked)
	assert.Equal(t, map[int64]int64{2: 107}, settlement.NewBalances)

	assert.True(t, game.IsFinished())
	assert.Zero(t, game.HeldBalance)
	assert.Zero(t, game.OrganizerLocked)
	assert.Equal(t, []int64{2}, game.WinnerIDs)

	organizer, err := f.store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), organizer.CompletedEvents)

	assert.Len(t, f.store.EntriesOfKind(2, entities.LedgerKindPrize), 1)
	assert.Len(t, f.store.EntriesOfKind(1, entities.LedgerKindPrizeUnlock), 1)
	assert.Len(t, f.store.EntriesOfKind(1, entities.LedgerKindOrganizerRevenue), 1)
	assert.Len(t, f.store.EntriesOfKind(testPlatformID, entities.LedgerKindPlatformCommission), 1)

	f.publisher.AssertCalled(t, "Publish", mock.MatchedBy(func(e events.GameFinishedEvent) bool {
		return e.GameID == 1 && len(e.Shares) == 1 && e.Shares[0].Amount == 100
	}))
}

func TestSettlementService_SettleBingo_SplitRemainder(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(t)
	ctx := context.Background()

	f.store.Seed(1, 0)
	require.NoError(t, f.store.UpdateBalances(ctx, 1, 0, 100))
	for _, id := range []int64{4, 2, 3} {
		f.store.Seed(id, 0)
	}

	game := startedGame()
	f.expectGame(game)

	settlement, err := f.svc.SettleBingo(ctx, game, []int64{4, 2, 3, 2})
	require.NoError(t, err)

	require.Len(t, settlement.Shares, 3)
	assert.Equal(t, entities.PrizeShare{UserID: 2, Amount: 34}, settlement.Shares[0])
	assert.Equal(t, entities.PrizeShare{UserID: 3, Amount: 33}, settlement.Shares[1])
	assert.Equal(t, entities.PrizeShare{UserID: 4, Amount: 33}, settlement.Shares[2])

	var paid int64
	for _, id := range []int64{2, 3, 4} {
		available, _ := f.store.Balance(id)
		paid += available
	}
	assert.Equal(t, int64(100), paid)
}

func TestSettlementService_SettleBingo_AlreadyFinished(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(t)
	ctx := context.Background()

	game := startedGame()
	game.State = entities.BingoGameStateFinished

	_, err := f.svc.SettleBingo(ctx, game, []int64{2})
	assert.ErrorIs(t, err, entities.ErrAlreadySettled)
	f.gameRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	assert.Empty(t, f.store.Entries())
}

func TestSettlementService_SettleBingo_FinishedUnderLock(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(t)
	ctx := context.Background()

	// The caller's copy is stale; another transaction settled first
	game := startedGame()
	settled := *game
	settled.State = entities.BingoGameStateFinished
	f.gameRepo.On("GetByIDForUpdate", mock.Anything, game.ID).Return(&settled, nil)

	_, err := f.svc.SettleBingo(ctx, game, []int64{2})
	assert.ErrorIs(t, err, entities.ErrAlreadySettled)
	f.gameRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Empty(t, f.store.Entries())
}

func TestSettlementService_SettleBingo_PartialTierLock(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(t)
	ctx := context.Background()

	// Base 100 plus a 50 bonus of which only 20 could be locked
	f.store.Seed(1, 0)
	require.NoError(t, f.store.UpdateBalances(ctx, 1, 0, 120))
	f.store.Seed(2, 0)

	game := startedGame()
	game.Tiers = []entities.PrizeTier{{Threshold: 10, Bonus: 50}}
	game.OrganizerLocked = 120
	f.expectGame(game)

	settlement, err := f.svc.SettleBingo(ctx, game, []int64{2})
	require.NoError(t, err)

	available, _ := f.store.Balance(2)
	assert.Equal(t, int64(150), available, "winner receives the advertised prize")
	assert.Equal(t, int64(120), settlement.Unlocked)

	available, blocked := f.store.Balance(1)
	assert.Equal(t, int64(210), available)
	assert.Zero(t, blocked)
}

func newPlayingBattle() *entities.DiceBattle {
	battle, _ := entities.NewDiceBattle(10, 20000, []int64{1, 2, 3})
	battle.ID = 5
	battle.State = entities.DiceBattleStatePlaying
	return battle
}

func TestSettlementService_SettleBattle(t *testing.T) {
	t.Parallel()
	f := newSettlementFixture(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		f.store.Seed(id, 90)
		require.NoError(t, f.store.UpdateBalances(ctx, id, 90, 10))
	}

	battle := newPlayingBattle()
	locked := *battle
	f.battleRepo.On("GetByIDForUpdate", mock.Anything, battle.ID).Return(&locked, nil)
	f.battleRepo.On("Update", mock.Anything, mock.AnythingOfType("*entities.DiceBattle")).Return(nil)

	settlement, err := f.svc.SettleBattle(ctx, battle, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(60), settlement.Prize)
	assert.Equal(t, int64(30), settlement.StakesDebited)
	assert.Equal(t, int64(150), settlement.NewBalance)

	available, blocked := f.store.Balance(2)
	assert.Equal(t, int64(150), available)
	assert.Zero(t, blocked)
	for _, id := range []int64{1, 3} {
		available, blocked := f.store.Balance(id)
		assert.Equal(t, int64(90), available, "loser keeps only what was never staked")
		assert.Zero(t, blocked)
	}

	assert.True(t, battle.IsFinished())
	require.NotNil(t, battle.WinnerID)
	assert.Equal(t, int64(2), *battle.WinnerID)
	assert.Equal(t, entities.DiceFinishReasonWinner, *battle.FinishedReason)
}

func TestSettlementService_SettleBattle_Guards(t *testing.T) {
	t.Parallel()

	t.Run("already finished", func(t *testing.T) {
		f := newSettlementFixture(t)
		battle := newPlayingBattle()
		battle.State = entities.DiceBattleStateFinished

		_, err := f.svc.SettleBattle(context.Background(), battle, 1)
		assert.ErrorIs(t, err, entities.ErrAlreadySettled)
	})

	t.Run("winner not seated", func(t *testing.T) {
		f := newSettlementFixture(t)
		battle := newPlayingBattle()
		locked := *battle
		f.battleRepo.On("GetByIDForUpdate", mock.Anything, battle.ID).Return(&locked, nil)

		_, err := f.svc.SettleBattle(context.Background(), battle, 42)
		assert.ErrorIs(t, err, entities.ErrNotParticipant)
		assert.Empty(t, f.store.Entries())
	})
}
