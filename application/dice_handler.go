package application

import (
	"context"
	"time"

	"github.com/arenaplay/arena/domain/entities"

	log "github.com/sirupsen/logrus"
)

// DiceHandler exposes matchmaking and round play to inbound adapters
type DiceHandler interface {
	JoinMatchmaking(ctx context.Context, userID, stake int64) (*entities.MatchmakingTicket, error)
	LeaveMatchmaking(ctx context.Context, userID int64) error
	SubmitRoll(ctx context.Context, battleID, userID int64) (*entities.RollResult, error)
	GetBattle(ctx context.Context, battleID int64) (*entities.DiceBattle, error)
	GetQueue(ctx context.Context) ([]entities.StakeBucket, error)
}

type diceHandler struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewDiceHandler creates a new DiceHandler
func NewDiceHandler(uowFactory UnitOfWorkFactory) DiceHandler {
	return &diceHandler{
		uowFactory: uowFactory,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *diceHandler) JoinMatchmaking(ctx context.Context, userID, stake int64) (*entities.MatchmakingTicket, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.MatchmakingTicket, error) {
		return svc.dice.JoinMatchmaking(ctx, userID, stake)
	})
}

func (h *diceHandler) LeaveMatchmaking(ctx context.Context, userID int64) error {
	_, err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (struct{}, error) {
		return struct{}{}, svc.dice.LeaveMatchmaking(ctx, userID)
	})
	return err
}

func (h *diceHandler) SubmitRoll(ctx context.Context, battleID, userID int64) (*entities.RollResult, error) {
	result, err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.RollResult, error) {
		return svc.dice.SubmitRoll(ctx, battleID, userID, h.now())
	})
	if err != nil {
		return nil, err
	}

	if result.Settlement != nil {
		log.WithFields(log.Fields{
			"battle_id": battleID,
			"winner_id": result.Settlement.WinnerID,
			"prize":     result.Settlement.Prize,
		}).Info("Dice battle won")
	}
	return result, nil
}

func (h *diceHandler) GetBattle(ctx context.Context, battleID int64) (*entities.DiceBattle, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.DiceBattle, error) {
		return svc.dice.GetBattle(ctx, battleID)
	})
}

func (h *diceHandler) GetQueue(ctx context.Context) ([]entities.StakeBucket, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) ([]entities.StakeBucket, error) {
		return svc.dice.GetStakeBuckets(ctx)
	})
}
