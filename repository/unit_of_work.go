package repository

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/application"
	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const notStarted = "unit of work not started - call Begin() first"

// unitOfWork implements application.UnitOfWork on a single pgx transaction
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	accountRepo            interfaces.AccountRepository
	ledgerRepo             interfaces.LedgerEntryRepository
	gameRepo               interfaces.BingoGameRepository
	cardRepo               interfaces.BingoCardRepository
	battleRepo             interfaces.DiceBattleRepository
	ticketRepo             interfaces.MatchmakingTicketRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// UnitOfWorkFactory creates repository units of work bound to a publisher
type UnitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork whose events go through the given transactional publisher
func (f *UnitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = NewAccountRepositoryScoped(tx)
	u.ledgerRepo = NewLedgerEntryRepositoryScoped(tx)
	u.gameRepo = NewBingoGameRepositoryScoped(tx)
	u.cardRepo = NewBingoCardRepositoryScoped(tx)
	u.battleRepo = NewDiceBattleRepositoryScoped(tx)
	u.ticketRepo = NewMatchmakingTicketRepositoryScoped(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	// Events are best-effort once the transaction is durable
	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).Warn("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	u.tx = nil

	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	if u.accountRepo == nil {
		panic(notStarted)
	}
	return u.accountRepo
}

// LedgerEntryRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	if u.ledgerRepo == nil {
		panic(notStarted)
	}
	return u.ledgerRepo
}

// BingoGameRepository returns the bingo game repository for this unit of work
func (u *unitOfWork) BingoGameRepository() interfaces.BingoGameRepository {
	if u.gameRepo == nil {
		panic(notStarted)
	}
	return u.gameRepo
}

// BingoCardRepository returns the bingo card repository for this unit of work
func (u *unitOfWork) BingoCardRepository() interfaces.BingoCardRepository {
	if u.cardRepo == nil {
		panic(notStarted)
	}
	return u.cardRepo
}

// DiceBattleRepository returns the dice battle repository for this unit of work
func (u *unitOfWork) DiceBattleRepository() interfaces.DiceBattleRepository {
	if u.battleRepo == nil {
		panic(notStarted)
	}
	return u.battleRepo
}

// MatchmakingTicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) MatchmakingTicketRepository() interfaces.MatchmakingTicketRepository {
	if u.ticketRepo == nil {
		panic(notStarted)
	}
	return u.ticketRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("transactional publisher not configured")
	}
	return u.transactionalPublisher
}
