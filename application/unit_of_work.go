package application

import (
	"context"

	"github.com/arenaplay/arena/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	LedgerEntryRepository() interfaces.LedgerEntryRepository
	BingoGameRepository() interfaces.BingoGameRepository
	BingoCardRepository() interfaces.BingoCardRepository
	DiceBattleRepository() interfaces.DiceBattleRepository
	MatchmakingTicketRepository() interfaces.MatchmakingTicketRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
