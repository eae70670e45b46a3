package services

import (
	"context"
	"fmt"
	"time"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// settlementService pays out bingo games and dice battles
type settlementService struct {
	ledger            interfaces.LedgerService
	accountRepo       interfaces.AccountRepository
	gameRepo          interfaces.BingoGameRepository
	battleRepo        interfaces.DiceBattleRepository
	eventPublisher    interfaces.EventPublisher
	platformAccountID int64
	now               func() time.Time
}

// NewSettlementService creates a new settlement service.
// platformAccountID is the account credited with bingo commissions.
func NewSettlementService(
	ledger interfaces.LedgerService,
	accountRepo interfaces.AccountRepository,
	gameRepo interfaces.BingoGameRepository,
	battleRepo interfaces.DiceBattleRepository,
	eventPublisher interfaces.EventPublisher,
	platformAccountID int64,
) interfaces.SettlementService {
	return &settlementService{
		ledger:            ledger,
		accountRepo:       accountRepo,
		gameRepo:          gameRepo,
		battleRepo:        battleRepo,
		eventPublisher:    eventPublisher,
		platformAccountID: platformAccountID,
		now:               time.Now,
	}
}

// SettleBingo pays the winners of a game. The game row is locked and marked
// finished before any money moves, so a second settlement attempt in another
// transaction blocks and then observes ErrAlreadySettled.
func (s *settlementService) SettleBingo(ctx context.Context, game *entities.BingoGame, winnerIDs []int64) (*entities.BingoSettlement, error) {
	if game.IsFinished() {
		return nil, entities.ErrAlreadySettled
	}

	locked, err := s.gameRepo.GetByIDForUpdate(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	if locked == nil {
		return nil, fmt.Errorf("%w: game %d", entities.ErrNotFound, game.ID)
	}
	if locked.IsFinished() {
		return nil, entities.ErrAlreadySettled
	}

	winners := entities.UniqueSorted(winnerIDs)
	shares, err := entities.SplitPrize(locked.CurrentPrize(), winners)
	if err != nil {
		return nil, err
	}

	if err := locked.Finish(winners, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.gameRepo.Update(ctx, locked); err != nil {
		return nil, fmt.Errorf("failed to mark game finished: %w", err)
	}

	involved := append(append([]int64{}, winners...), locked.OrganizerID, s.platformAccountID)
	if _, err := s.accountRepo.LockAccounts(ctx, involved); err != nil {
		return nil, fmt.Errorf("failed to lock settlement accounts: %w", err)
	}

	ref := entities.RefBingoGame(locked.ID, "bingo settlement")
	for _, share := range shares {
		if share.Amount == 0 {
			continue
		}
		if _, err := s.ledger.Credit(ctx, share.UserID, share.Amount, entities.LedgerKindPrize, ref.WithMetadata(map[string]interface{}{
			"winner_count": len(shares),
			"prize":        locked.CurrentPrize(),
		})); err != nil {
			return nil, fmt.Errorf("failed to credit winner %d: %w", share.UserID, err)
		}
	}

	// The organizer's balance is re-read under lock by the ledger, never taken from game state
	var unlocked int64
	unlockEntry, err := s.ledger.Unlock(ctx, locked.OrganizerID, locked.OrganizerLocked, entities.LedgerKindPrizeUnlock, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to release organizer lock: %w", err)
	}
	if unlockEntry != nil {
		unlocked = -unlockEntry.BlockedDelta
	}

	commission := locked.Commission()
	revenue := locked.HeldBalance - commission
	if revenue > 0 {
		if _, err := s.ledger.Credit(ctx, locked.OrganizerID, revenue, entities.LedgerKindOrganizerRevenue, ref); err != nil {
			return nil, fmt.Errorf("failed to credit organizer revenue: %w", err)
		}
	}
	if commission > 0 {
		if _, err := s.ledger.Credit(ctx, s.platformAccountID, commission, entities.LedgerKindPlatformCommission, ref); err != nil {
			return nil, fmt.Errorf("failed to credit platform commission: %w", err)
		}
	}

	locked.HeldBalance = 0
	locked.OrganizerLocked = 0
	if err := s.gameRepo.Update(ctx, locked); err != nil {
		return nil, fmt.Errorf("failed to clear escrow: %w", err)
	}

	if err := s.accountRepo.IncrementCompletedEvents(ctx, locked.OrganizerID); err != nil {
		return nil, fmt.Errorf("failed to increment organizer events: %w", err)
	}

	newBalances := make(map[int64]int64, len(winners))
	for _, id := range winners {
		account, err := s.accountRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read winner balance: %w", err)
		}
		if account != nil {
			newBalances[id] = account.AvailableBalance
		}
	}

	settlement := &entities.BingoSettlement{
		GameID:           locked.ID,
		Shares:           shares,
		NewBalances:      newBalances,
		Prize:            locked.CurrentPrize(),
		Commission:       commission,
		OrganizerRevenue: revenue,
		Unlocked:         unlocked,
	}

	if err := s.eventPublisher.Publish(events.GameFinishedEvent{
		GameID:      locked.ID,
		Winners:     winners,
		Shares:      shares,
		NewBalances: newBalances,
		Prize:       settlement.Prize,
		Commission:  commission,
	}); err != nil {
		log.WithError(err).Error("Failed to publish game finished event")
	}

	*game = *locked

	log.WithFields(log.Fields{
		"gameID":     locked.ID,
		"winners":    winners,
		"prize":      settlement.Prize,
		"commission": commission,
		"unlocked":   unlocked,
	}).Info("Bingo game settled")

	return settlement, nil
}

// SettleBattle consumes every player's locked stake and credits the survivor
func (s *settlementService) SettleBattle(ctx context.Context, battle *entities.DiceBattle, winnerID int64) (*entities.BattleSettlement, error) {
	if battle.IsFinished() {
		return nil, entities.ErrAlreadySettled
	}

	locked, err := s.battleRepo.GetByIDForUpdate(ctx, battle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock battle: %w", err)
	}
	if locked == nil {
		return nil, fmt.Errorf("%w: battle %d", entities.ErrNotFound, battle.ID)
	}
	if locked.IsFinished() {
		return nil, entities.ErrAlreadySettled
	}
	if locked.Player(winnerID) == nil {
		return nil, fmt.Errorf("%w: user %d is not seated at battle %d", entities.ErrNotParticipant, winnerID, locked.ID)
	}

	if _, err := s.accountRepo.LockAccounts(ctx, locked.UserIDs()); err != nil {
		return nil, fmt.Errorf("failed to lock player accounts: %w", err)
	}

	ref := entities.RefDiceBattle(locked.ID, "dice battle settlement")
	var debited int64
	for _, userID := range locked.UserIDs() {
		player := locked.Player(userID)
		entry, err := s.ledger.DebitLocked(ctx, userID, player.Stake, entities.LedgerKindEntryFee, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to consume stake of %d: %w", userID, err)
		}
		if entry != nil {
			debited += -entry.Amount
		}
	}

	prize := locked.Prize()
	var newBalance int64
	if prize > 0 {
		entry, err := s.ledger.Credit(ctx, winnerID, prize, entities.LedgerKindPrize, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to credit battle prize: %w", err)
		}
		newBalance = entry.AvailableAfter
	}

	if err := locked.Finish(&winnerID, entities.DiceFinishReasonWinner, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.battleRepo.Update(ctx, locked); err != nil {
		return nil, fmt.Errorf("failed to mark battle finished: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BattleFinishedEvent{
		BattleID: locked.ID,
		WinnerID: &winnerID,
		Prize:    prize,
		Reason:   entities.DiceFinishReasonWinner,
	}); err != nil {
		log.WithError(err).Error("Failed to publish battle finished event")
	}

	// Keep the caller's view (players, lives) but adopt the finished state
	battle.State = locked.State
	battle.WinnerID = locked.WinnerID
	battle.FinishedReason = locked.FinishedReason
	battle.FinishedAt = locked.FinishedAt

	log.WithFields(log.Fields{
		"battleID": locked.ID,
		"winnerID": winnerID,
		"prize":    prize,
	}).Info("Dice battle settled")

	return &entities.BattleSettlement{
		BattleID:      locked.ID,
		WinnerID:      winnerID,
		Prize:         prize,
		StakesDebited: debited,
		NewBalance:    newBalance,
	}, nil
}
