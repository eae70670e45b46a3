package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// diceService implements matchmaking and round play for dice battles
type diceService struct {
	battleRepo     interfaces.DiceBattleRepository
	ticketRepo     interfaces.MatchmakingTicketRepository
	accountRepo    interfaces.AccountRepository
	ledger         interfaces.LedgerService
	settlement     interfaces.SettlementService
	eventPublisher interfaces.EventPublisher
	rng            entities.Randomizer
}

// NewDiceService creates a new dice service
func NewDiceService(
	battleRepo interfaces.DiceBattleRepository,
	ticketRepo interfaces.MatchmakingTicketRepository,
	accountRepo interfaces.AccountRepository,
	ledger interfaces.LedgerService,
	settlement interfaces.SettlementService,
	eventPublisher interfaces.EventPublisher,
	rng entities.Randomizer,
) interfaces.DiceService {
	return &diceService{
		battleRepo:     battleRepo,
		ticketRepo:     ticketRepo,
		accountRepo:    accountRepo,
		ledger:         ledger,
		settlement:     settlement,
		eventPublisher: eventPublisher,
		rng:            rng,
	}
}

// JoinMatchmaking queues the user at a stake. Funds are only checked here as a
// courtesy; the binding check happens under lock when a battle is formed.
func (s *diceService) JoinMatchmaking(ctx context.Context, userID, stake int64) (*entities.MatchmakingTicket, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive", entities.ErrInvalidAmount)
	}

	account, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %d", entities.ErrNotFound, userID)
	}
	if !account.CanAfford(stake) {
		return nil, fmt.Errorf("%w: user %d has %d available, stake is %d",
			entities.ErrInsufficientFunds, userID, account.AvailableBalance, stake)
	}

	ticket := &entities.MatchmakingTicket{
		UserID: userID,
		Stake:  stake,
		Status: entities.TicketStatusWaiting,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		if errors.Is(err, entities.ErrAlreadyQueued) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to queue ticket: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":   userID,
		"stake":    stake,
		"ticketID": ticket.ID,
	}).Info("Player joined matchmaking")

	return ticket, nil
}

// LeaveMatchmaking cancels the user's waiting ticket
func (s *diceService) LeaveMatchmaking(ctx context.Context, userID int64) error {
	n, err := s.ticketRepo.CancelWaiting(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel ticket: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %d is not queued", entities.ErrNotFound, userID)
	}
	return nil
}

// GetStakeBuckets lists stakes with enough waiting players to form a battle
func (s *diceService) GetStakeBuckets(ctx context.Context) ([]entities.StakeBucket, error) {
	buckets, err := s.ticketRepo.GetStakeBuckets(ctx, entities.DicePlayersPerBattle)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake buckets: %w", err)
	}
	return buckets, nil
}

// FormBattle seats the three oldest valid waiting tickets at stake. Tickets whose
// owner can no longer afford the stake are timed out and replaced by the next oldest.
// Candidates are screened on an unlocked read; the three accounts are then locked
// together in ascending order and checked again. Returns a nil battle when the
// queue runs dry so the caller commits the timeouts and the claimed tickets go
// back to waiting.
func (s *diceService) FormBattle(ctx context.Context, stake int64, params interfaces.BattleParams) (*entities.DiceBattle, error) {
	var (
		valid []*entities.MatchmakingTicket
		seen  []int64
	)

	for len(valid) < entities.DicePlayersPerBattle {
		need := entities.DicePlayersPerBattle - len(valid)
		claimed, err := s.ticketRepo.ClaimOldestWaiting(ctx, stake, need, seen)
		if err != nil {
			return nil, fmt.Errorf("failed to claim tickets: %w", err)
		}
		if len(claimed) == 0 {
			log.WithFields(log.Fields{
				"stake": stake,
				"valid": len(valid),
			}).Debug("Stake bucket ran dry")
			return nil, nil
		}

		for _, t := range claimed {
			seen = append(seen, t.ID)
			account, err := s.accountRepo.GetByID(ctx, t.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to get account %d: %w", t.UserID, err)
			}
			if t.IsWaiting() && account != nil && account.CanAfford(stake) {
				valid = append(valid, t)
				continue
			}
			if err := s.timeoutTicket(ctx, t, stake); err != nil {
				return nil, err
			}
		}
	}

	userIDs := make([]int64, 0, len(valid))
	for _, t := range valid {
		userIDs = append(userIDs, t.UserID)
	}
	accounts, err := s.accountRepo.LockAccounts(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock ticket accounts: %w", err)
	}

	// Funds may have moved between the screening read and the lock
	stale := false
	for _, t := range valid {
		if account := accounts[t.UserID]; account != nil && account.CanAfford(stake) {
			continue
		}
		stale = true
		if err := s.timeoutTicket(ctx, t, stake); err != nil {
			return nil, err
		}
	}
	if stale {
		return nil, nil
	}

	battle, err := entities.NewDiceBattle(stake, params.MultiplierBps, userIDs)
	if err != nil {
		return nil, err
	}
	if err := s.battleRepo.Create(ctx, battle); err != nil {
		return nil, fmt.Errorf("failed to create battle: %w", err)
	}

	ref := entities.RefDiceBattle(battle.ID, "dice stake")
	for _, userID := range userIDs {
		if _, err := s.ledger.Lock(ctx, userID, stake, entities.LedgerKindStakeLock, ref); err != nil {
			return nil, fmt.Errorf("%w: locking stake of user %d: %w", entities.ErrRefundRequired, userID, err)
		}
	}

	for _, t := range valid {
		if err := s.ticketRepo.UpdateStatus(ctx, t.ID, entities.TicketStatusMatched, &battle.ID); err != nil {
			return nil, fmt.Errorf("%w: matching ticket %d: %w", entities.ErrRefundRequired, t.ID, err)
		}
	}

	oldState := battle.State
	if err := battle.BeginSpin(params.Now, params.SpinReveal); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrRefundRequired, err)
	}
	if err := s.battleRepo.Update(ctx, battle); err != nil {
		return nil, fmt.Errorf("%w: starting spin: %w", entities.ErrRefundRequired, err)
	}

	s.publishStatusChange(battle, oldState)

	log.WithFields(log.Fields{
		"battleID": battle.ID,
		"stake":    stake,
		"players":  userIDs,
	}).Info("Dice battle formed")

	return battle, nil
}

func (s *diceService) timeoutTicket(ctx context.Context, t *entities.MatchmakingTicket, stake int64) error {
	log.WithFields(log.Fields{
		"ticketID": t.ID,
		"userID":   t.UserID,
		"stake":    stake,
	}).Warn("Dropping ticket that can no longer cover its stake")
	if err := s.ticketRepo.UpdateStatus(ctx, t.ID, entities.TicketStatusTimeout, nil); err != nil {
		return fmt.Errorf("failed to time out ticket %d: %w", t.ID, err)
	}
	return nil
}

// GetSpinningDue returns spinning battles whose reveal has elapsed
func (s *diceService) GetSpinningDue(ctx context.Context, now time.Time) ([]int64, error) {
	ids, err := s.battleRepo.GetSpinningDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get spinning battles: %w", err)
	}
	return ids, nil
}

// StartPlaying promotes a spinning battle once its reveal has elapsed
func (s *diceService) StartPlaying(ctx context.Context, battleID int64, now time.Time) (*entities.DiceBattle, error) {
	battle, err := s.lockBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if err := s.promote(ctx, battle, now); err != nil {
		return nil, err
	}
	return battle, nil
}

func (s *diceService) promote(ctx context.Context, battle *entities.DiceBattle, now time.Time) error {
	oldState := battle.State
	if err := battle.StartPlaying(now); err != nil {
		return err
	}
	if err := s.battleRepo.Update(ctx, battle); err != nil {
		return fmt.Errorf("failed to start battle: %w", err)
	}
	s.publishStatusChange(battle, oldState)
	return nil
}

// SubmitRoll rolls two dice for the player in the current round and resolves the
// round once every active player has rolled
func (s *diceService) SubmitRoll(ctx context.Context, battleID, userID int64, now time.Time) (*entities.RollResult, error) {
	battle, err := s.lockBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle.IsFinished() {
		return nil, fmt.Errorf("%w: battle %d is finished", entities.ErrInvalidStateTransition, battleID)
	}
	if battle.State == entities.DiceBattleStateSpinning && battle.ReadyToPlay(now) {
		if err := s.promote(ctx, battle, now); err != nil {
			return nil, err
		}
	}
	if battle.State != entities.DiceBattleStatePlaying {
		return nil, fmt.Errorf("%w: battle %d is %s", entities.ErrInvalidStateTransition, battleID, battle.State)
	}

	player := battle.Player(userID)
	if player == nil || player.IsEliminated {
		return nil, fmt.Errorf("%w: user %d is not active in battle %d", entities.ErrNotParticipant, userID, battleID)
	}

	active := battle.ActiveUserIDs()
	round, err := s.currentRound(ctx, battle, active)
	if err != nil {
		return nil, err
	}
	if round.HasRolled(userID) {
		return nil, fmt.Errorf("%w: round %d", entities.ErrAlreadyRolled, round.RoundNumber)
	}

	roll, err := s.rollDice(round.ID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.battleRepo.RecordRoll(ctx, roll); err != nil {
		return nil, fmt.Errorf("failed to record roll: %w", err)
	}
	round.Rolls = append(round.Rolls, roll)

	if err := s.eventPublisher.Publish(events.DiceRolledEvent{
		BattleID:    battle.ID,
		RoundNumber: round.RoundNumber,
		UserID:      userID,
		Die1:        roll.Die1,
		Die2:        roll.Die2,
		Total:       roll.Total,
	}); err != nil {
		log.WithError(err).Error("Failed to publish dice rolled event")
	}

	result := &entities.RollResult{Battle: battle, Round: round, Roll: roll}
	if !round.IsComplete(active) {
		return result, nil
	}

	outcome, err := battle.ApplyRound(round)
	if err != nil {
		return nil, err
	}
	round.Resolve(outcome, now)
	if err := s.battleRepo.ResolveRound(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to resolve round: %w", err)
	}
	for _, p := range outcome.Changed {
		if err := s.battleRepo.UpdatePlayer(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to update player %d: %w", p.UserID, err)
		}
	}
	result.Outcome = outcome

	lives := make(map[int64]int, len(battle.Players))
	for _, p := range battle.Players {
		lives[p.UserID] = p.Lives
	}
	if err := s.eventPublisher.Publish(events.RoundResultEvent{
		BattleID:    battle.ID,
		RoundNumber: round.RoundNumber,
		LoserIDs:    outcome.LoserIDs,
		Eliminated:  outcome.Eliminated,
		Voided:      outcome.Voided,
		Lives:       lives,
	}); err != nil {
		log.WithError(err).Error("Failed to publish round result event")
	}

	if survivor := battle.SoleSurvivor(); survivor != nil {
		settlement, err := s.settlement.SettleBattle(ctx, battle, survivor.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to settle battle %d: %w", battle.ID, err)
		}
		result.Settlement = settlement
	}

	return result, nil
}

// currentRound returns the latest round, opening the next one when it is exhausted
func (s *diceService) currentRound(ctx context.Context, battle *entities.DiceBattle, active []int64) (*entities.DiceRound, error) {
	latest, err := s.battleRepo.GetLatestRound(ctx, battle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest round: %w", err)
	}
	if latest != nil && !latest.IsExhausted(active) {
		return latest, nil
	}

	next := &entities.DiceRound{BattleID: battle.ID, RoundNumber: 1}
	if latest != nil {
		next.RoundNumber = latest.RoundNumber + 1
	}
	if err := s.battleRepo.CreateRound(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to open round %d: %w", next.RoundNumber, err)
	}
	return next, nil
}

func (s *diceService) rollDice(roundID, userID int64) (*entities.DiceRoll, error) {
	die1, err := s.rng.Intn(6)
	if err != nil {
		return nil, fmt.Errorf("failed to roll: %w", err)
	}
	die2, err := s.rng.Intn(6)
	if err != nil {
		return nil, fmt.Errorf("failed to roll: %w", err)
	}
	roll := &entities.DiceRoll{
		RoundID: roundID,
		UserID:  userID,
		Die1:    die1 + 1,
		Die2:    die2 + 1,
	}
	roll.Total = roll.Die1 + roll.Die2
	return roll, nil
}

// GetBattle returns a battle with its players
func (s *diceService) GetBattle(ctx context.Context, battleID int64) (*entities.DiceBattle, error) {
	battle, err := s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	if battle == nil {
		return nil, fmt.Errorf("%w: battle %d", entities.ErrNotFound, battleID)
	}
	return battle, nil
}

func (s *diceService) lockBattle(ctx context.Context, battleID int64) (*entities.DiceBattle, error) {
	battle, err := s.battleRepo.GetByIDForUpdate(ctx, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock battle: %w", err)
	}
	if battle == nil {
		return nil, fmt.Errorf("%w: battle %d", entities.ErrNotFound, battleID)
	}
	return battle, nil
}

func (s *diceService) publishStatusChange(battle *entities.DiceBattle, oldState entities.DiceBattleState) {
	publishStatusChange(s.eventPublisher, battle, oldState)
}

func publishStatusChange(publisher interfaces.EventPublisher, battle *entities.DiceBattle, oldState entities.DiceBattleState) {
	event := events.GameStatusChangedEvent{
		BattleID:  battle.ID,
		OldState:  oldState,
		NewState:  battle.State,
		PlayerIDs: battle.UserIDs(),
	}
	if battle.SpinEndsAt != nil {
		ms := battle.SpinEndsAt.UnixMilli()
		event.SpinEndsAt = &ms
	}
	if err := publisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish game status changed event")
	}
}
