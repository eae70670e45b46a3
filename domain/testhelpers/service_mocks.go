package testhelpers

import (
	"context"
	"time"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) OpenAccount(ctx context.Context, userID int64, username string) (*entities.Account, error) {
	args := m.Called(ctx, userID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockLedgerService) Credit(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	return m.entry(m.Called(ctx, userID, amount, kind, ref))
}

func (m *MockLedgerService) Debit(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	return m.entry(m.Called(ctx, userID, amount, kind, ref))
}

func (m *MockLedgerService) Lock(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	return m.entry(m.Called(ctx, userID, amount, kind, ref))
}

func (m *MockLedgerService) Unlock(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	return m.entry(m.Called(ctx, userID, amount, kind, ref))
}

func (m *MockLedgerService) DebitLocked(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	return m.entry(m.Called(ctx, userID, amount, kind, ref))
}

func (m *MockLedgerService) Reconcile(ctx context.Context, userID int64) (*entities.ReconciliationReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReconciliationReport), args.Error(1)
}

func (m *MockLedgerService) entry(args mock.Arguments) (*entities.LedgerEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

// MockSettlementService is a mock implementation of SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) SettleBingo(ctx context.Context, game *entities.BingoGame, winnerIDs []int64) (*entities.BingoSettlement, error) {
	args := m.Called(ctx, game, winnerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoSettlement), args.Error(1)
}

func (m *MockSettlementService) SettleBattle(ctx context.Context, battle *entities.DiceBattle, winnerID int64) (*entities.BattleSettlement, error) {
	args := m.Called(ctx, battle, winnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BattleSettlement), args.Error(1)
}

// MockBingoService is a mock implementation of BingoService
type MockBingoService struct {
	mock.Mock
}

func (m *MockBingoService) CreateGame(ctx context.Context, params entities.CreateGameParams) (*entities.BingoGame, error) {
	return m.game(m.Called(ctx, params))
}

func (m *MockBingoService) PurchaseUnit(ctx context.Context, gameID, userID int64) (*entities.PurchaseResult, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PurchaseResult), args.Error(1)
}

func (m *MockBingoService) StartGame(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	return m.game(m.Called(ctx, gameID, requesterID))
}

func (m *MockBingoService) ToggleAutoDraw(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	return m.game(m.Called(ctx, gameID, requesterID))
}

func (m *MockBingoService) ManualDraw(ctx context.Context, gameID, requesterID, number int64) (*entities.DrawResult, error) {
	return m.draw(m.Called(ctx, gameID, requesterID, number))
}

func (m *MockBingoService) DrawNext(ctx context.Context, gameID int64) (*entities.DrawResult, error) {
	return m.draw(m.Called(ctx, gameID))
}

func (m *MockBingoService) ClaimWin(ctx context.Context, gameID, userID int64) (*entities.BingoSettlement, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoSettlement), args.Error(1)
}

func (m *MockBingoService) GetGame(ctx context.Context, gameID int64) (*entities.BingoGame, error) {
	return m.game(m.Called(ctx, gameID))
}

func (m *MockBingoService) GetCards(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BingoCard), args.Error(1)
}

func (m *MockBingoService) game(args mock.Arguments) (*entities.BingoGame, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoGame), args.Error(1)
}

func (m *MockBingoService) draw(args mock.Arguments) (*entities.DrawResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DrawResult), args.Error(1)
}

// MockDiceService is a mock implementation of DiceService
type MockDiceService struct {
	mock.Mock
}

func (m *MockDiceService) JoinMatchmaking(ctx context.Context, userID, stake int64) (*entities.MatchmakingTicket, error) {
	args := m.Called(ctx, userID, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MatchmakingTicket), args.Error(1)
}

func (m *MockDiceService) LeaveMatchmaking(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockDiceService) GetStakeBuckets(ctx context.Context) ([]entities.StakeBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.StakeBucket), args.Error(1)
}

func (m *MockDiceService) FormBattle(ctx context.Context, stake int64, params interfaces.BattleParams) (*entities.DiceBattle, error) {
	return m.battle(m.Called(ctx, stake, params))
}

func (m *MockDiceService) GetSpinningDue(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDiceService) StartPlaying(ctx context.Context, battleID int64, now time.Time) (*entities.DiceBattle, error) {
	return m.battle(m.Called(ctx, battleID, now))
}

func (m *MockDiceService) SubmitRoll(ctx context.Context, battleID, userID int64, now time.Time) (*entities.RollResult, error) {
	args := m.Called(ctx, battleID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RollResult), args.Error(1)
}

func (m *MockDiceService) GetBattle(ctx context.Context, battleID int64) (*entities.DiceBattle, error) {
	return m.battle(m.Called(ctx, battleID))
}

func (m *MockDiceService) battle(args mock.Arguments) (*entities.DiceBattle, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DiceBattle), args.Error(1)
}

// MockCleanupService is a mock implementation of CleanupService
type MockCleanupService struct {
	mock.Mock
}

func (m *MockCleanupService) GetStaleBattleIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCleanupService) ExpireBattle(ctx context.Context, battleID int64, cutoff, now time.Time) (*entities.DiceBattle, error) {
	args := m.Called(ctx, battleID, cutoff, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DiceBattle), args.Error(1)
}

func (m *MockCleanupService) ExpireTickets(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// SequenceRandomizer returns the queued values in order, each reduced modulo n
type SequenceRandomizer struct {
	Values []int
	next   int
}

func (r *SequenceRandomizer) Intn(n int) (int, error) {
	if len(r.Values) == 0 {
		return 0, nil
	}
	v := r.Values[r.next%len(r.Values)]
	r.next++
	return v % n, nil
}
