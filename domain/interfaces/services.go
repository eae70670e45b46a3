package interfaces

import (
	"context"
	"time"

	"github.com/arenaplay/arena/domain/entities"
)

// LedgerService is the only writer of account balances.
// Every method expects to run inside the caller's transaction.
type LedgerService interface {
	OpenAccount(ctx context.Context, userID int64, username string) (*entities.Account, error)
	Credit(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error)
	Debit(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error)
	Lock(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error)

	// Unlock moves min(amount, blocked) back to available. A zero result records nothing and returns nil.
	Unlock(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error)

	// DebitLocked consumes min(amount, blocked) of reserved funds
	DebitLocked(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error)

	Reconcile(ctx context.Context, userID int64) (*entities.ReconciliationReport, error)
}

// SettlementService pays out finished games
type SettlementService interface {
	// SettleBingo pays winners, releases the organizer's lock and splits held revenue
	SettleBingo(ctx context.Context, game *entities.BingoGame, winnerIDs []int64) (*entities.BingoSettlement, error)

	// SettleBattle consumes every stake and pays the survivor
	SettleBattle(ctx context.Context, battle *entities.DiceBattle, winnerID int64) (*entities.BattleSettlement, error)
}

// BingoService defines the bingo game operations
type BingoService interface {
	CreateGame(ctx context.Context, params entities.CreateGameParams) (*entities.BingoGame, error)
	PurchaseUnit(ctx context.Context, gameID, userID int64) (*entities.PurchaseResult, error)
	StartGame(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error)
	ToggleAutoDraw(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error)
	ManualDraw(ctx context.Context, gameID, requesterID, number int64) (*entities.DrawResult, error)

	// DrawNext draws a random number for the auto-draw loop and settles when a card wins
	DrawNext(ctx context.Context, gameID int64) (*entities.DrawResult, error)

	ClaimWin(ctx context.Context, gameID, userID int64) (*entities.BingoSettlement, error)
	GetGame(ctx context.Context, gameID int64) (*entities.BingoGame, error)
	GetCards(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error)
}

// BattleParams are captured when a battle is formed
type BattleParams struct {
	MultiplierBps int64
	SpinReveal    time.Duration
	Now           time.Time
}

// DiceService defines the dice matchmaking and round operations
type DiceService interface {
	JoinMatchmaking(ctx context.Context, userID, stake int64) (*entities.MatchmakingTicket, error)
	LeaveMatchmaking(ctx context.Context, userID int64) error
	GetStakeBuckets(ctx context.Context) ([]entities.StakeBucket, error)

	// FormBattle claims three waiting tickets at stake and seats them in a new battle.
	// A nil battle with a nil error means the stake ran out of valid tickets.
	FormBattle(ctx context.Context, stake int64, params BattleParams) (*entities.DiceBattle, error)

	GetSpinningDue(ctx context.Context, now time.Time) ([]int64, error)
	StartPlaying(ctx context.Context, battleID int64, now time.Time) (*entities.DiceBattle, error)
	SubmitRoll(ctx context.Context, battleID, userID int64, now time.Time) (*entities.RollResult, error)
	GetBattle(ctx context.Context, battleID int64) (*entities.DiceBattle, error)
}

// CleanupService expires abandoned battles and tickets
type CleanupService interface {
	GetStaleBattleIDs(ctx context.Context, cutoff time.Time) ([]int64, error)

	// ExpireBattle force-finishes a stale battle and refunds each stake exactly once.
	// Returns nil when the battle was already finished or is no longer stale.
	ExpireBattle(ctx context.Context, battleID int64, cutoff, now time.Time) (*entities.DiceBattle, error)

	ExpireTickets(ctx context.Context, cutoff time.Time) (int64, error)
}
