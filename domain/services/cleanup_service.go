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

// cleanupService force-finishes abandoned battles and expires stale tickets
type cleanupService struct {
	battleRepo     interfaces.DiceBattleRepository
	ticketRepo     interfaces.MatchmakingTicketRepository
	accountRepo    interfaces.AccountRepository
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	battleRepo interfaces.DiceBattleRepository,
	ticketRepo interfaces.MatchmakingTicketRepository,
	accountRepo interfaces.AccountRepository,
	ledger interfaces.LedgerService,
	eventPublisher interfaces.EventPublisher,
) interfaces.CleanupService {
	return &cleanupService{
		battleRepo:     battleRepo,
		ticketRepo:     ticketRepo,
		accountRepo:    accountRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// GetStaleBattleIDs lists unfinished battles created before cutoff
func (s *cleanupService) GetStaleBattleIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	ids, err := s.battleRepo.GetStaleIDs(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale battles: %w", err)
	}
	return ids, nil
}

// ExpireBattle refunds every stake of a stale battle and finishes it with reason timeout.
// The battle row lock plus the finished check make the refund happen at most once.
func (s *cleanupService) ExpireBattle(ctx context.Context, battleID int64, cutoff, now time.Time) (*entities.DiceBattle, error) {
	battle, err := s.battleRepo.GetByIDForUpdate(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock battle: %w", err)
	}
	if battle == nil || battle.IsFinished() || !battle.CreatedAt.Before(cutoff) {
		return nil, nil
	}

	if _, err := s.accountRepo.LockAccounts(ctx, battle.UserIDs()); err != nil {
		return nil, fmt.Errorf("failed to lock player accounts: %w", err)
	}

	// Stakes are locked in the transaction that leaves WAITING, so a waiting battle holds none
	if battle.State != entities.DiceBattleStateWaiting {
		ref := entities.RefDiceBattle(battle.ID, "battle timed out")
		for _, userID := range battle.UserIDs() {
			player := battle.Player(userID)
			if _, err := s.ledger.Unlock(ctx, userID, player.Stake, entities.LedgerKindRefund, ref); err != nil {
				return nil, fmt.Errorf("failed to refund user %d: %w", userID, err)
			}
		}
	}

	oldState := battle.State
	if err := battle.Finish(nil, entities.DiceFinishReasonTimeout, now); err != nil {
		return nil, err
	}
	if err := s.battleRepo.Update(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to finish battle: %w", err)
	}

	publishStatusChange(s.eventPublisher, battle, oldState)
	if err := s.eventPublisher.Publish(events.BattleFinishedEvent{
		BattleID: battle.ID,
		Reason:   entities.DiceFinishReasonTimeout,
	}); err != nil {
		log.WithError(err).Error("Failed to publish battle finished event")
	}

	log.WithFields(log.Fields{
		"battleID": battle.ID,
		"oldState": oldState,
		"players":  battle.UserIDs(),
	}).Info("Stale dice battle expired and refunded")

	return battle, nil
}

// ExpireTickets times out waiting tickets that joined before cutoff
func (s *cleanupService) ExpireTickets(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.ticketRepo.ExpireWaitingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire tickets: %w", err)
	}
	if n > 0 {
		log.WithFields(log.Fields{
			"expired": n,
			"cutoff":  cutoff,
		}).Info("Expired stale matchmaking tickets")
	}
	return n, nil
}
