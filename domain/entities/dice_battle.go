package entities

import (
	"fmt"
	"sort"
	"time"
)

// DiceBattleState represents the lifecycle of a dice battle
type DiceBattleState string

const (
	DiceBattleStateWaiting  DiceBattleState = "waiting"
	DiceBattleStateSpinning DiceBattleState = "spinning"
	DiceBattleStatePlaying  DiceBattleState = "playing"
	DiceBattleStateFinished DiceBattleState = "finished"
)

// DiceFinishReason records why a battle ended
type DiceFinishReason string

const (
	DiceFinishReasonWinner  DiceFinishReason = "winner"
	DiceFinishReasonTimeout DiceFinishReason = "timeout"
)

const (
	// DicePlayersPerBattle is the fixed table size
	DicePlayersPerBattle = 3
	// DiceStartingLives is how many lost rounds eliminate a player
	DiceStartingLives = 3
)

// DiceBattle is a three player last-survivor match
type DiceBattle struct {
	ID             int64             `db:"id"`
	Stake          int64             `db:"stake"`
	BasePrize      int64             `db:"base_prize"`     // stake * players
	MultiplierBps  int64             `db:"multiplier_bps"` // Captured at creation
	State          DiceBattleState   `db:"state"`
	SpinEndsAt     *time.Time        `db:"spin_ends_at"`
	WinnerID       *int64            `db:"winner_id"`
	FinishedReason *DiceFinishReason `db:"finished_reason"`
	Players        []*DicePlayer     `db:"-"`
	CreatedAt      time.Time         `db:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at"`
	FinishedAt     *time.Time        `db:"finished_at"`
}

// DicePlayer is a seat at a battle
type DicePlayer struct {
	BattleID     int64 `db:"battle_id"`
	UserID       int64 `db:"user_id"`
	Seat         int   `db:"seat"`
	Lives        int   `db:"lives"`
	IsEliminated bool  `db:"is_eliminated"`
	Stake        int64 `db:"stake"`
}

// NewDiceBattle seats the given users (in the given order) at a waiting battle
func NewDiceBattle(stake, multiplierBps int64, userIDs []int64) (*DiceBattle, error) {
	if stake <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive", ErrInvalidAmount)
	}
	if len(UniqueSorted(userIDs)) != DicePlayersPerBattle {
		return nil, fmt.Errorf("%w: a battle needs %d distinct players", ErrInvalidConfig, DicePlayersPerBattle)
	}

	battle := &DiceBattle{
		Stake:         stake,
		BasePrize:     stake * DicePlayersPerBattle,
		MultiplierBps: multiplierBps,
		State:         DiceBattleStateWaiting,
	}
	for i, id := range userIDs {
		battle.Players = append(battle.Players, &DicePlayer{
			UserID: id,
			Seat:   i + 1,
			Lives:  DiceStartingLives,
			Stake:  stake,
		})
	}
	return battle, nil
}

// IsFinished returns true once the battle has ended
func (b *DiceBattle) IsFinished() bool {
	return b.State == DiceBattleStateFinished
}

// Prize is floor(base_prize * multiplier)
func (b *DiceBattle) Prize() int64 {
	return ApplyBasisPoints(b.BasePrize, b.MultiplierBps)
}

// Player returns the seat held by userID, or nil
func (b *DiceBattle) Player(userID int64) *DicePlayer {
	for _, p := range b.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// UserIDs lists every seated user in ascending order
func (b *DiceBattle) UserIDs() []int64 {
	ids := make([]int64, 0, len(b.Players))
	for _, p := range b.Players {
		ids = append(ids, p.UserID)
	}
	return UniqueSorted(ids)
}

// ActiveUserIDs lists players who have not been eliminated, ascending
func (b *DiceBattle) ActiveUserIDs() []int64 {
	var ids []int64
	for _, p := range b.Players {
		if !p.IsEliminated {
			ids = append(ids, p.UserID)
		}
	}
	return UniqueSorted(ids)
}

// SoleSurvivor returns the last active player once everyone else is eliminated
func (b *DiceBattle) SoleSurvivor() *DicePlayer {
	active := b.ActiveUserIDs()
	if len(active) != 1 {
		return nil
	}
	return b.Player(active[0])
}

// BeginSpin moves a waiting battle into the reveal animation
func (b *DiceBattle) BeginSpin(now time.Time, reveal time.Duration) error {
	if b.State != DiceBattleStateWaiting {
		return fmt.Errorf("%w: cannot spin battle in state %s", ErrInvalidStateTransition, b.State)
	}
	ends := now.Add(reveal)
	b.State = DiceBattleStateSpinning
	b.SpinEndsAt = &ends
	return nil
}

// ReadyToPlay returns true when the reveal has elapsed
func (b *DiceBattle) ReadyToPlay(now time.Time) bool {
	return b.State == DiceBattleStateSpinning && b.SpinEndsAt != nil && !now.Before(*b.SpinEndsAt)
}

// StartPlaying opens the battle for rolls
func (b *DiceBattle) StartPlaying(now time.Time) error {
	if !b.ReadyToPlay(now) {
		return fmt.Errorf("%w: battle %d is not ready to play", ErrInvalidStateTransition, b.ID)
	}
	b.State = DiceBattleStatePlaying
	return nil
}

// Finish closes the battle; winnerID is nil for a timeout
func (b *DiceBattle) Finish(winnerID *int64, reason DiceFinishReason, now time.Time) error {
	if b.IsFinished() {
		return ErrAlreadySettled
	}
	b.State = DiceBattleStateFinished
	b.WinnerID = winnerID
	b.FinishedReason = &reason
	b.FinishedAt = &now
	return nil
}

// RoundOutcome is the effect of a completed round on the battle
type RoundOutcome struct {
	LoserIDs   []int64
	Eliminated []int64
	Voided     bool
	Changed    []*DicePlayer
}

// ApplyRound resolves a complete round: every player tied on the lowest total
// loses a life and players at zero lives are eliminated. A round that would
// leave no active player is voided and costs nobody a life.
func (b *DiceBattle) ApplyRound(round *DiceRound) (*RoundOutcome, error) {
	active := b.ActiveUserIDs()
	if !round.IsComplete(active) {
		return nil, fmt.Errorf("%w: round %d still awaits rolls", ErrInvalidStateTransition, round.RoundNumber)
	}

	losers := LowestRollers(round.Rolls, active)
	outcome := &RoundOutcome{LoserIDs: losers}

	survivors := 0
	loserSet := make(map[int64]bool, len(losers))
	for _, id := range losers {
		loserSet[id] = true
	}
	for _, id := range active {
		p := b.Player(id)
		if !loserSet[id] || p.Lives > 1 {
			survivors++
		}
	}
	if survivors == 0 {
		outcome.Voided = true
		return outcome, nil
	}

	for _, id := range losers {
		p := b.Player(id)
		p.Lives--
		if p.Lives <= 0 {
			p.Lives = 0
			p.IsEliminated = true
			outcome.Eliminated = append(outcome.Eliminated, id)
		}
		outcome.Changed = append(outcome.Changed, p)
	}
	return outcome, nil
}

// LowestRollers returns every active player whose total equals the round minimum, ascending
func LowestRollers(rolls []*DiceRoll, active []int64) []int64 {
	activeSet := make(map[int64]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	lowest := -1
	for _, r := range rolls {
		if !activeSet[r.UserID] {
			continue
		}
		if lowest == -1 || r.Total < lowest {
			lowest = r.Total
		}
	}

	var losers []int64
	for _, r := range rolls {
		if activeSet[r.UserID] && r.Total == lowest {
			losers = append(losers, r.UserID)
		}
	}
	sort.Slice(losers, func(i, j int) bool { return losers[i] < losers[j] })
	return losers
}

// DiceRound is one numbered round of rolls
type DiceRound struct {
	ID          int64       `db:"id"`
	BattleID    int64       `db:"battle_id"`
	RoundNumber int         `db:"round_number"`
	Rolls       []*DiceRoll `db:"-"`
	LoserIDs    []int64     `db:"loser_ids"`
	Voided      bool        `db:"voided"`
	ResolvedAt  *time.Time  `db:"resolved_at"`
	CreatedAt   time.Time   `db:"created_at"`
}

// DiceRoll is a player's two dice in a round
type DiceRoll struct {
	ID        int64     `db:"id"`
	RoundID   int64     `db:"round_id"`
	UserID    int64     `db:"user_id"`
	Die1      int       `db:"die1"`
	Die2      int       `db:"die2"`
	Total     int       `db:"total"`
	CreatedAt time.Time `db:"created_at"`
}

// IsResolved returns true once the round's losers were applied
func (r *DiceRound) IsResolved() bool {
	return r.ResolvedAt != nil
}

// HasRolled reports whether userID already rolled this round
func (r *DiceRound) HasRolled(userID int64) bool {
	for _, roll := range r.Rolls {
		if roll.UserID == userID {
			return true
		}
	}
	return false
}

// IsComplete returns true when every active player has rolled
func (r *DiceRound) IsComplete(active []int64) bool {
	for _, id := range active {
		if !r.HasRolled(id) {
			return false
		}
	}
	return len(active) > 0
}

// IsExhausted returns true when no further rolls belong in this round
func (r *DiceRound) IsExhausted(active []int64) bool {
	return r.IsResolved() || r.IsComplete(active)
}

// Resolve marks the round as applied
func (r *DiceRound) Resolve(outcome *RoundOutcome, now time.Time) {
	r.LoserIDs = outcome.LoserIDs
	if r.LoserIDs == nil {
		r.LoserIDs = []int64{}
	}
	r.Voided = outcome.Voided
	r.ResolvedAt = &now
}

// RollResult is returned to a player after rolling
type RollResult struct {
	Battle     *DiceBattle
	Round      *DiceRound
	Roll       *DiceRoll
	Outcome    *RoundOutcome
	Settlement *BattleSettlement
}

// BattleSettlement records a battle payout
type BattleSettlement struct {
	BattleID      int64
	WinnerID      int64
	Prize         int64
	StakesDebited int64
	NewBalance    int64
}
