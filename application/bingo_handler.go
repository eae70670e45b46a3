package application

import (
	"context"
	"errors"

	"github.com/arenaplay/arena/application/dto"
	"github.com/arenaplay/arena/config"
	"github.com/arenaplay/arena/domain/entities"

	log "github.com/sirupsen/logrus"
)

// BingoHandler exposes the bingo operations to inbound adapters
type BingoHandler interface {
	CreateGame(ctx context.Context, req dto.CreateGameDTO) (*entities.BingoGame, error)
	PurchaseUnit(ctx context.Context, gameID, userID int64) (*entities.PurchaseResult, error)
	StartGame(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error)
	ToggleAutoDraw(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error)
	ManualDraw(ctx context.Context, gameID, requesterID, number int64) (*entities.DrawResult, error)

	// ClaimWin settles the game if the claimant holds a winning card.
	// A game that was already settled yields a nil settlement and no error.
	ClaimWin(ctx context.Context, gameID, userID int64) (*entities.BingoSettlement, error)

	GetGame(ctx context.Context, gameID int64) (*entities.BingoGame, error)
	GetCards(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error)
}

type bingoHandler struct {
	uowFactory UnitOfWorkFactory
	scheduler  DrawScheduler
}

// NewBingoHandler creates a new BingoHandler
func NewBingoHandler(uowFactory UnitOfWorkFactory, scheduler DrawScheduler) BingoHandler {
	return &bingoHandler{
		uowFactory: uowFactory,
		scheduler:  scheduler,
	}
}

func (h *bingoHandler) CreateGame(ctx context.Context, req dto.CreateGameDTO) (*entities.BingoGame, error) {
	cfg := config.Get()
	params := req.ToParams(cfg.CommissionRateBps(), cfg.DefaultDrawInterval)

	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.BingoGame, error) {
		return svc.bingo.CreateGame(ctx, params)
	})
}

func (h *bingoHandler) PurchaseUnit(ctx context.Context, gameID, userID int64) (*entities.PurchaseResult, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.PurchaseResult, error) {
		return svc.bingo.PurchaseUnit(ctx, gameID, userID)
	})
}

func (h *bingoHandler) StartGame(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	game, err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.BingoGame, error) {
		return svc.bingo.StartGame(ctx, gameID, requesterID)
	})
	if err != nil {
		return nil, err
	}

	// The loop must only see committed state
	if game.ShouldAutoDraw() {
		h.scheduler.Ensure(game.ID)
	}
	return game, nil
}

func (h *bingoHandler) ToggleAutoDraw(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	game, err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.BingoGame, error) {
		return svc.bingo.ToggleAutoDraw(ctx, gameID, requesterID)
	})
	if err != nil {
		return nil, err
	}

	if game.ShouldAutoDraw() {
		h.scheduler.Ensure(game.ID)
	} else {
		h.scheduler.Stop(game.ID)
	}
	return game, nil
}

func (h *bingoHandler) ManualDraw(ctx context.Context, gameID, requesterID, number int64) (*entities.DrawResult, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.DrawResult, error) {
		return svc.bingo.ManualDraw(ctx, gameID, requesterID, number)
	})
}

func (h *bingoHandler) ClaimWin(ctx context.Context, gameID, userID int64) (*entities.BingoSettlement, error) {
	settlement, err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.BingoSettlement, error) {
		return svc.bingo.ClaimWin(ctx, gameID, userID)
	})
	if errors.Is(err, entities.ErrAlreadySettled) {
		log.WithFields(log.Fields{
			"game_id": gameID,
			"user_id": userID,
		}).Info("Claim on an already settled game ignored")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	h.scheduler.Stop(gameID)
	return settlement, nil
}

func (h *bingoHandler) GetGame(ctx context.Context, gameID int64) (*entities.BingoGame, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.BingoGame, error) {
		return svc.bingo.GetGame(ctx, gameID)
	})
}

func (h *bingoHandler) GetCards(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) ([]*entities.BingoCard, error) {
		return svc.bingo.GetCards(ctx, gameID, userID)
	})
}
