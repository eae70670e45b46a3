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

// bingoService implements business logic for bingo games
type bingoService struct {
	gameRepo       interfaces.BingoGameRepository
	cardRepo       interfaces.BingoCardRepository
	accountRepo    interfaces.AccountRepository
	ledger         interfaces.LedgerService
	settlement     interfaces.SettlementService
	eventPublisher interfaces.EventPublisher
	rng            entities.Randomizer
	now            func() time.Time
}

// NewBingoService creates a new bingo service
func NewBingoService(
	gameRepo interfaces.BingoGameRepository,
	cardRepo interfaces.BingoCardRepository,
	accountRepo interfaces.AccountRepository,
	ledger interfaces.LedgerService,
	settlement interfaces.SettlementService,
	eventPublisher interfaces.EventPublisher,
	rng entities.Randomizer,
) interfaces.BingoService {
	return &bingoService{
		gameRepo:       gameRepo,
		cardRepo:       cardRepo,
		accountRepo:    accountRepo,
		ledger:         ledger,
		settlement:     settlement,
		eventPublisher: eventPublisher,
		rng:            rng,
		now:            time.Now,
	}
}

// CreateGame creates a pending game and locks the base prize from the organizer
func (s *bingoService) CreateGame(ctx context.Context, params entities.CreateGameParams) (*entities.BingoGame, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	organizer, err := s.accountRepo.GetForUpdate(ctx, params.OrganizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizer account: %w", err)
	}
	if organizer == nil {
		return nil, fmt.Errorf("%w: organizer %d", entities.ErrNotFound, params.OrganizerID)
	}
	if !organizer.CanAfford(params.BasePrize) {
		return nil, fmt.Errorf("%w: organizer has %d available, base prize is %d",
			entities.ErrInsufficientFunds, organizer.AvailableBalance, params.BasePrize)
	}

	game := entities.NewBingoGame(params)
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if params.BasePrize > 0 {
		if _, err := s.ledger.Lock(ctx, params.OrganizerID, params.BasePrize, entities.LedgerKindPrizeLock,
			entities.RefBingoGame(game.ID, "base prize")); err != nil {
			return nil, fmt.Errorf("failed to lock base prize: %w", err)
		}
		game.OrganizerLocked = params.BasePrize
		if err := s.gameRepo.Update(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to record organizer lock: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"gameID":      game.ID,
		"organizerID": game.OrganizerID,
		"basePrize":   game.BasePrize,
		"ruleSet":     game.RuleSet,
		"pattern":     game.Pattern,
		"tiers":       len(game.Tiers),
	}).Info("Bingo game created")

	return game, nil
}

// PurchaseUnit sells one card: the buyer pays into escrow and any newly reached
// progressive tier is locked from the organizer (partially when funds run short)
func (s *bingoService) PurchaseUnit(ctx context.Context, gameID, userID int64) (*entities.PurchaseResult, error) {
	game, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.CanSellUnits() {
		return nil, fmt.Errorf("%w: game %d is %s", entities.ErrInvalidStateTransition, gameID, game.State)
	}
	if userID == game.OrganizerID {
		return nil, fmt.Errorf("%w: organizers cannot buy into their own game", entities.ErrForbidden)
	}

	if _, err := s.accountRepo.LockAccounts(ctx, []int64{userID, game.OrganizerID}); err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}

	ref := entities.RefBingoGame(game.ID, "bingo card purchase")
	debit, err := s.ledger.Debit(ctx, userID, game.PricePerUnit, entities.LedgerKindPurchase, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to charge buyer: %w", err)
	}

	card, err := entities.GenerateCard(game.ID, userID, game.RuleSet, s.rng)
	if err != nil {
		return nil, err
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	reached := game.RecordUnitSold()
	for _, tier := range reached {
		if err := s.lockTierBonus(ctx, game, tier); err != nil {
			return nil, err
		}
	}

	if err := s.gameRepo.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	if len(reached) > 0 {
		if err := s.eventPublisher.Publish(events.PrizeUpdatedEvent{
			GameID:          game.ID,
			CurrentPrize:    game.CurrentPrize(),
			UnitsSold:       game.UnitsSold,
			OrganizerLocked: game.OrganizerLocked,
		}); err != nil {
			log.WithError(err).Error("Failed to publish prize updated event")
		}
	}

	return &entities.PurchaseResult{
		Game:         game,
		Card:         card,
		NewBalance:   debit.AvailableAfter,
		CurrentPrize: game.CurrentPrize(),
		ReachedTiers: reached,
	}, nil
}

// lockTierBonus locks min(bonus, available) from the organizer
func (s *bingoService) lockTierBonus(ctx context.Context, game *entities.BingoGame, tier entities.PrizeTier) error {
	organizer, err := s.accountRepo.GetForUpdate(ctx, game.OrganizerID)
	if err != nil {
		return fmt.Errorf("failed to read organizer balance: %w", err)
	}
	if organizer == nil {
		return fmt.Errorf("%w: organizer %d", entities.ErrNotFound, game.OrganizerID)
	}

	amount := min(tier.Bonus, organizer.AvailableBalance)
	if amount < tier.Bonus {
		log.WithFields(log.Fields{
			"gameID":      game.ID,
			"organizerID": game.OrganizerID,
			"threshold":   tier.Threshold,
			"bonus":       tier.Bonus,
			"locked":      amount,
		}).Warn("Organizer cannot cover full tier bonus, locking partial amount")
	}
	if amount <= 0 {
		return nil
	}

	if _, err := s.ledger.Lock(ctx, game.OrganizerID, amount, entities.LedgerKindPrizeLock,
		entities.RefBingoGame(game.ID, fmt.Sprintf("tier bonus at %d units", tier.Threshold))); err != nil {
		return fmt.Errorf("failed to lock tier bonus: %w", err)
	}
	game.OrganizerLocked += amount
	return nil
}

// StartGame moves a pending game to started
func (s *bingoService) StartGame(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	game, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if requesterID != game.OrganizerID {
		return nil, fmt.Errorf("%w: only the organizer can start the game", entities.ErrForbidden)
	}
	if err := game.Start(s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	if err := s.eventPublisher.Publish(events.GameStartedEvent{
		GameID:       game.ID,
		OrganizerID:  game.OrganizerID,
		CurrentPrize: game.CurrentPrize(),
		AutoDraw:     game.AutoDrawEnabled,
	}); err != nil {
		log.WithError(err).Error("Failed to publish game started event")
	}

	return game, nil
}

// ToggleAutoDraw flips the auto-draw flag of an unfinished game
func (s *bingoService) ToggleAutoDraw(ctx context.Context, gameID, requesterID int64) (*entities.BingoGame, error) {
	game, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if requesterID != game.OrganizerID {
		return nil, fmt.Errorf("%w: only the organizer can toggle auto-draw", entities.ErrForbidden)
	}
	if game.IsFinished() {
		return nil, fmt.Errorf("%w: game %d is finished", entities.ErrInvalidStateTransition, gameID)
	}

	game.AutoDrawEnabled = !game.AutoDrawEnabled
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to toggle auto-draw: %w", err)
	}
	return game, nil
}

// ManualDraw lets the organizer call a specific number. It never settles; players claim.
func (s *bingoService) ManualDraw(ctx context.Context, gameID, requesterID, number int64) (*entities.DrawResult, error) {
	game, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if requesterID != game.OrganizerID {
		return nil, fmt.Errorf("%w: only the organizer can draw", entities.ErrForbidden)
	}
	return s.recordDraw(ctx, game, number, false)
}

// DrawNext draws a uniformly random undrawn number and settles if the draw produced winners
func (s *bingoService) DrawNext(ctx context.Context, gameID int64) (*entities.DrawResult, error) {
	game, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.ShouldAutoDraw() {
		return nil, fmt.Errorf("%w: game %d is %s with auto-draw=%t",
			entities.ErrInvalidStateTransition, gameID, game.State, game.AutoDrawEnabled)
	}

	remaining := game.RemainingNumbers()
	if len(remaining) == 0 {
		return nil, entities.ErrNumbersExhausted
	}
	idx, err := s.rng.Intn(len(remaining))
	if err != nil {
		return nil, err
	}

	result, err := s.recordDraw(ctx, game, remaining[idx], true)
	if err != nil {
		return nil, err
	}
	if len(result.WinnerIDs) == 0 {
		return result, nil
	}

	settlement, err := s.settlement.SettleBingo(ctx, game, result.WinnerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to settle game %d: %w", gameID, err)
	}
	result.Settlement = settlement
	return result, nil
}

func (s *bingoService) recordDraw(ctx context.Context, game *entities.BingoGame, number int64, auto bool) (*entities.DrawResult, error) {
	if err := game.RecordDraw(number); err != nil {
		return nil, err
	}
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to record draw: %w", err)
	}

	if err := s.eventPublisher.Publish(events.NumberDrawnEvent{
		GameID:     game.ID,
		Number:     number,
		DrawnCount: len(game.DrawnNumbers),
		Auto:       auto,
	}); err != nil {
		log.WithError(err).Error("Failed to publish number drawn event")
	}

	winners, err := s.findWinners(ctx, game)
	if err != nil {
		return nil, err
	}

	return &entities.DrawResult{
		GameID:     game.ID,
		Number:     number,
		DrawnCount: len(game.DrawnNumbers),
		WinnerIDs:  winners,
	}, nil
}

// ClaimWin verifies the claimant holds a winning card and settles with every current winner
func (s *bingoService) ClaimWin(ctx context.Context, gameID, userID int64) (*entities.BingoSettlement, error) {
	game, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.IsFinished() {
		return nil, entities.ErrAlreadySettled
	}
	if !game.IsStarted() {
		return nil, fmt.Errorf("%w: game %d has not started", entities.ErrInvalidStateTransition, gameID)
	}

	winners, err := s.findWinners(ctx, game)
	if err != nil {
		return nil, err
	}
	claimantWins := false
	for _, id := range winners {
		if id == userID {
			claimantWins = true
			break
		}
	}
	if !claimantWins {
		return nil, fmt.Errorf("%w: user %d in game %d", entities.ErrNoWinningCard, userID, gameID)
	}

	return s.settlement.SettleBingo(ctx, game, winners)
}

// GetGame returns a game without locking it
func (s *bingoService) GetGame(ctx context.Context, gameID int64) (*entities.BingoGame, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("%w: game %d", entities.ErrNotFound, gameID)
	}
	return game, nil
}

// GetCards returns the cards a user holds in a game
func (s *bingoService) GetCards(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	cards, err := s.cardRepo.GetByGameAndUser(ctx, gameID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	for _, card := range cards {
		card.RuleSet = game.RuleSet
	}
	return cards, nil
}

func (s *bingoService) lockGame(ctx context.Context, gameID int64) (*entities.BingoGame, error) {
	game, err := s.gameRepo.GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("%w: game %d", entities.ErrNotFound, gameID)
	}
	return game, nil
}

func (s *bingoService) findWinners(ctx context.Context, game *entities.BingoGame) ([]int64, error) {
	cards, err := s.cardRepo.GetByGame(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	return entities.FindWinners(game, cards), nil
}
