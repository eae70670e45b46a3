package testhelpers

import (
	"context"
	"time"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, userID int64, username string) (*entities.Account, error) {
	args := m.Called(ctx, userID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, userID int64) (*entities.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetForUpdate(ctx context.Context, userID int64) (*entities.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) LockAccounts(ctx context.Context, userIDs []int64) (map[int64]*entities.Account, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, userID int64, available, blocked int64) error {
	args := m.Called(ctx, userID, available, blocked)
	return args.Error(0)
}

func (m *MockAccountRepository) IncrementCompletedEvents(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetEntry(ctx context.Context, id int64) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByAccount(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByRelated(ctx context.Context, relatedType entities.RelatedType, relatedID int64) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, relatedType, relatedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) SumByAccount(ctx context.Context, userID int64) (*entities.LedgerSums, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerSums), args.Error(1)
}

// MockBingoGameRepository is a mock implementation of BingoGameRepository
type MockBingoGameRepository struct {
	mock.Mock
}

func (m *MockBingoGameRepository) Create(ctx context.Context, game *entities.BingoGame) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockBingoGameRepository) GetByID(ctx context.Context, id int64) (*entities.BingoGame, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoGame), args.Error(1)
}

func (m *MockBingoGameRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.BingoGame, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BingoGame), args.Error(1)
}

func (m *MockBingoGameRepository) Update(ctx context.Context, game *entities.BingoGame) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockBingoGameRepository) GetAutoDrawGames(ctx context.Context) ([]*entities.BingoGame, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BingoGame), args.Error(1)
}

// MockBingoCardRepository is a mock implementation of BingoCardRepository
type MockBingoCardRepository struct {
	mock.Mock
}

func (m *MockBingoCardRepository) Create(ctx context.Context, card *entities.BingoCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockBingoCardRepository) GetByGame(ctx context.Context, gameID int64) ([]*entities.BingoCard, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BingoCard), args.Error(1)
}

func (m *MockBingoCardRepository) GetByGameAndUser(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BingoCard), args.Error(1)
}

// MockDiceBattleRepository is a mock implementation of DiceBattleRepository
type MockDiceBattleRepository struct {
	mock.Mock
}

func (m *MockDiceBattleRepository) Create(ctx context.Context, battle *entities.DiceBattle) error {
	args := m.Called(ctx, battle)
	return args.Error(0)
}

func (m *MockDiceBattleRepository) GetByID(ctx context.Context, id int64) (*entities.DiceBattle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DiceBattle), args.Error(1)
}

func (m *MockDiceBattleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.DiceBattle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DiceBattle), args.Error(1)
}

func (m *MockDiceBattleRepository) Update(ctx context.Context, battle *entities.DiceBattle) error {
	args := m.Called(ctx, battle)
	return args.Error(0)
}

func (m *MockDiceBattleRepository) UpdatePlayer(ctx context.Context, player *entities.DicePlayer) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockDiceBattleRepository) GetSpinningDue(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDiceBattleRepository) GetStaleIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDiceBattleRepository) GetLatestRound(ctx context.Context, battleID int64) (*entities.DiceRound, error) {
	args := m.Called(ctx, battleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DiceRound), args.Error(1)
}

func (m *MockDiceBattleRepository) CreateRound(ctx context.Context, round *entities.DiceRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockDiceBattleRepository) RecordRoll(ctx context.Context, roll *entities.DiceRoll) error {
	args := m.Called(ctx, roll)
	return args.Error(0)
}

func (m *MockDiceBattleRepository) ResolveRound(ctx context.Context, round *entities.DiceRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

// MockMatchmakingTicketRepository is a mock implementation of MatchmakingTicketRepository
type MockMatchmakingTicketRepository struct {
	mock.Mock
}

func (m *MockMatchmakingTicketRepository) Create(ctx context.Context, ticket *entities.MatchmakingTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockMatchmakingTicketRepository) GetWaitingByUser(ctx context.Context, userID int64) (*entities.MatchmakingTicket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MatchmakingTicket), args.Error(1)
}

func (m *MockMatchmakingTicketRepository) UpdateStatus(ctx context.Context, ticketID int64, status entities.TicketStatus, battleID *int64) error {
	args := m.Called(ctx, ticketID, status, battleID)
	return args.Error(0)
}

func (m *MockMatchmakingTicketRepository) CancelWaiting(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMatchmakingTicketRepository) GetStakeBuckets(ctx context.Context, minWaiting int64) ([]entities.StakeBucket, error) {
	args := m.Called(ctx, minWaiting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.StakeBucket), args.Error(1)
}

func (m *MockMatchmakingTicketRepository) ClaimOldestWaiting(ctx context.Context, stake int64, limit int, excludeIDs []int64) ([]*entities.MatchmakingTicket, error) {
	args := m.Called(ctx, stake, limit, excludeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MatchmakingTicket), args.Error(1)
}

func (m *MockMatchmakingTicketRepository) ExpireWaitingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockTransactionalEventPublisher is a mock implementation of TransactionalEventPublisher
type MockTransactionalEventPublisher struct {
	mock.Mock
}

func (m *MockTransactionalEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Discard() {
	m.Called()
}
