package api

import (
	"context"

	"github.com/arenaplay/arena/application/dto"
	"github.com/arenaplay/arena/domain/entities"

	"github.com/stretchr/testify/mock"
)

type mockBingo struct {
	mock.Mock
}

func (m *mockBingo) CreateGame(ctx context.Context, req dto.CreateGameDTO) (*entities.BingoGame, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoGame), args.Error(1)
}

func (m *mockBingo) PurchaseUnit(ctx context.Context, gameID, userID int64) (*entities.PurchaseResult, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PurchaseResult), args.Error(1)
}

func (m *mockBingo) StartGame(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	args := m.Called(ctx, gameID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoGame), args.Error(1)
}

func (m *mockBingo) ToggleAutoDraw(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	args := m.Called(ctx, gameID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoGame), args.Error(1)
}

func (m *mockBingo) ManualDraw(ctx context.Context, gameID, requesterID, number int64) (*entities.DrawResult, error) {
	args := m.Called(ctx, gameID, requesterID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DrawResult), args.Error(1)
}

func (m *mockBingo) ClaimWin(ctx context.Context, gameID, userID int64) (*entities.BingoSettlement, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoSettlement), args.Error(1)
}

func (m *mockBingo) GetGame(ctx context.Context, gameID int64) (*entities.BingoGame, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoGame), args.Error(1)
}

func (m *mockBingo) GetCards(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BingoCard), args.Error(1)
}

type mockDice struct {
	mock.Mock
}

func (m *mockDice) JoinMatchmaking(ctx context.Context, userID, stake int64) (*entities.MatchmakingTicket, error) {
	args := m.Called(ctx, userID, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MatchmakingTicket), args.Error(1)
}

func (m *mockDice) LeaveMatchmaking(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockDice) SubmitRoll(ctx context.Context, battleID, userID int64) (*entities.RollResult, error) {
	args := m.Called(ctx, battleID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RollResult), args.Error(1)
}

func (m *mockDice) GetBattle(ctx context.Context, battleID int64) (*entities.DiceBattle, error) {
	args := m.Called(ctx, battleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DiceBattle), args.Error(1)
}

func (m *mockDice) GetQueue(ctx context.Context) ([]entities.StakeBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.StakeBucket), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) OpenAccount(ctx context.Context, userID int64, username string) (*entities.Account, error) {
	args := m.Called(ctx, userID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *mockLedger) GetAccount(ctx context.Context, userID int64) (*entities.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *mockLedger) AdminCredit(ctx context.Context, userID, amount int64, note string) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, amount, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *mockLedger) Withdraw(ctx context.Context, userID, amount int64) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *mockLedger) RefundWithdrawal(ctx context.Context, userID, withdrawalID int64) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *mockLedger) Reconcile(ctx context.Context, userID int64) (*entities.ReconciliationReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReconciliationReport), args.Error(1)
}

func (m *mockLedger) History(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

type mockPresence struct {
	mock.Mock
}

func (m *mockPresence) Connect(ctx context.Context, room string, userID int64) (int64, error) {
	args := m.Called(ctx, room, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPresence) Disconnect(ctx context.Context, room string, userID int64) (int64, error) {
	args := m.Called(ctx, room, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPresence) Count(ctx context.Context, room string) (int64, error) {
	args := m.Called(ctx, room)
	return args.Get(0).(int64), args.Error(1)
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) RunSweep(ctx context.Context) *entities.SweepReport {
	args := m.Called(ctx)
	return args.Get(0).(*entities.SweepReport)
}
