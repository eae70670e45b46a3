package interfaces

import (
	"context"
	"time"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// Create opens an account with zero balances
	Create(ctx context.Context, userID int64, username string) (*entities.Account, error)

	// GetByID retrieves an account without locking it
	GetByID(ctx context.Context, userID int64) (*entities.Account, error)

	// GetForUpdate retrieves an account with a row lock held until the transaction ends
	GetForUpdate(ctx context.Context, userID int64) (*entities.Account, error)

	// LockAccounts row-locks every given account in ascending user ID order
	LockAccounts(ctx context.Context, userIDs []int64) (map[int64]*entities.Account, error)

	// UpdateBalances writes both balances of an account
	UpdateBalances(ctx context.Context, userID int64, available, blocked int64) error

	// IncrementCompletedEvents bumps the organizer counter
	IncrementCompletedEvents(ctx context.Context, userID int64) error

	// GetAll returns every account ordered by user ID
	GetAll(ctx context.Context) ([]*entities.Account, error)
}

// LedgerEntryRepository defines the interface for the append-only ledger
type LedgerEntryRepository interface {
	// Record appends an entry and sets its ID and CreatedAt
	Record(ctx context.Context, entry *entities.LedgerEntry) error

	// GetEntry returns one entry by ID, or nil
	GetEntry(ctx context.Context, id int64) (*entities.LedgerEntry, error)

	// GetByAccount returns the most recent entries for an account
	GetByAccount(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error)

	// GetByRelated returns all entries that refer to an object
	GetByRelated(ctx context.Context, relatedType entities.RelatedType, relatedID int64) ([]*entities.LedgerEntry, error)

	// SumByAccount aggregates an account's entries for reconciliation
	SumByAccount(ctx context.Context, userID int64) (*entities.LedgerSums, error)
}

// BingoGameRepository defines the interface for bingo game data access
type BingoGameRepository interface {
	// Create inserts a game and its prize tiers
	Create(ctx context.Context, game *entities.BingoGame) error

	GetByID(ctx context.Context, id int64) (*entities.BingoGame, error)

	// GetByIDForUpdate retrieves a game with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.BingoGame, error)

	// Update persists the mutable game and escrow fields
	Update(ctx context.Context, game *entities.BingoGame) error

	// GetAutoDrawGames returns started games with auto-draw enabled
	GetAutoDrawGames(ctx context.Context) ([]*entities.BingoGame, error)
}

// BingoCardRepository defines the interface for purchased cards
type BingoCardRepository interface {
	Create(ctx context.Context, card *entities.BingoCard) error
	GetByGame(ctx context.Context, gameID int64) ([]*entities.BingoCard, error)
	GetByGameAndUser(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error)
}

// DiceBattleRepository defines the interface for battles, seats and rounds
type DiceBattleRepository interface {
	// Create inserts a battle and its players
	Create(ctx context.Context, battle *entities.DiceBattle) error

	GetByID(ctx context.Context, id int64) (*entities.DiceBattle, error)

	// GetByIDForUpdate retrieves a battle with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.DiceBattle, error)

	// Update persists state, spin deadline and result
	Update(ctx context.Context, battle *entities.DiceBattle) error

	UpdatePlayer(ctx context.Context, player *entities.DicePlayer) error

	// GetSpinningDue returns IDs of spinning battles whose reveal has ended
	GetSpinningDue(ctx context.Context, now time.Time) ([]int64, error)

	// GetStaleIDs returns IDs of unfinished battles created before cutoff
	GetStaleIDs(ctx context.Context, cutoff time.Time) ([]int64, error)

	// GetLatestRound returns the highest numbered round with its rolls, or nil
	GetLatestRound(ctx context.Context, battleID int64) (*entities.DiceRound, error)

	CreateRound(ctx context.Context, round *entities.DiceRound) error
	RecordRoll(ctx context.Context, roll *entities.DiceRoll) error
	ResolveRound(ctx context.Context, round *entities.DiceRound) error
}

// MatchmakingTicketRepository defines the interface for the matchmaking queue
type MatchmakingTicketRepository interface {
	// Create queues a ticket; returns entities.ErrAlreadyQueued if the user already waits
	Create(ctx context.Context, ticket *entities.MatchmakingTicket) error

	GetWaitingByUser(ctx context.Context, userID int64) (*entities.MatchmakingTicket, error)

	// UpdateStatus moves a ticket out of the queue
	UpdateStatus(ctx context.Context, ticketID int64, status entities.TicketStatus, battleID *int64) error

	// CancelWaiting cancels the user's waiting ticket and reports how many rows changed
	CancelWaiting(ctx context.Context, userID int64) (int64, error)

	// GetStakeBuckets returns stakes with at least minWaiting waiting tickets
	GetStakeBuckets(ctx context.Context, minWaiting int64) ([]entities.StakeBucket, error)

	// ClaimOldestWaiting locks up to limit of the oldest waiting tickets at stake using
	// FOR UPDATE SKIP LOCKED, ignoring excludeIDs
	ClaimOldestWaiting(ctx context.Context, stake int64, limit int, excludeIDs []int64) ([]*entities.MatchmakingTicket, error)

	// ExpireWaitingBefore times out waiting tickets that joined before cutoff
	ExpireWaitingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}
