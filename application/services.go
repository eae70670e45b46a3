package application

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"
	"github.com/arenaplay/arena/domain/services"
)

// serviceSet holds the domain services bound to one unit of work
type serviceSet struct {
	ledger     interfaces.LedgerService
	settlement interfaces.SettlementService
	bingo      interfaces.BingoService
	dice       interfaces.DiceService
	cleanup    interfaces.CleanupService
}

// newServiceSet wires every domain service to the repositories of a started unit of work
func newServiceSet(uow UnitOfWork) *serviceSet {
	cfg := config.Get()
	rng := entities.NewCryptoRandomizer()

	ledger := services.NewLedgerService(uow.AccountRepository(), uow.LedgerEntryRepository(), uow.EventBus())
	settlement := services.NewSettlementService(
		ledger,
		uow.AccountRepository(),
		uow.BingoGameRepository(),
		uow.DiceBattleRepository(),
		uow.EventBus(),
		cfg.PlatformAccountID,
	)

	return &serviceSet{
		ledger:     ledger,
		settlement: settlement,
		bingo: services.NewBingoService(
			uow.BingoGameRepository(),
			uow.BingoCardRepository(),
			uow.AccountRepository(),
			ledger,
			settlement,
			uow.EventBus(),
			rng,
		),
		dice: services.NewDiceService(
			uow.DiceBattleRepository(),
			uow.MatchmakingTicketRepository(),
			uow.AccountRepository(),
			ledger,
			settlement,
			uow.EventBus(),
			rng,
		),
		cleanup: services.NewCleanupService(
			uow.DiceBattleRepository(),
			uow.MatchmakingTicketRepository(),
			uow.AccountRepository(),
			ledger,
			uow.EventBus(),
		),
	}
}

// inUnitOfWork runs fn in its own transaction and commits when fn succeeds.
// Events published by fn are flushed only after the commit.
func inUnitOfWork[T any](ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork, svc *serviceSet) (T, error)) (T, error) {
	var zero T

	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := fn(uow, newServiceSet(uow))
	if err != nil {
		return zero, err
	}

	if err := uow.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
