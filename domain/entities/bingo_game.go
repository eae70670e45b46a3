package entities

import (
	"fmt"
	"sort"
	"time"
)

// BingoGameState represents the lifecycle of a bingo game
type BingoGameState string

const (
	BingoGameStatePending  BingoGameState = "pending"
	BingoGameStateStarted  BingoGameState = "started"
	BingoGameStateFinished BingoGameState = "finished"
)

// BingoRuleSet selects the number domain and card layout
type BingoRuleSet int

const (
	BingoRuleSet75 BingoRuleSet = 75
	BingoRuleSet90 BingoRuleSet = 90
)

// IsValid reports whether the rule set is supported
func (r BingoRuleSet) IsValid() bool {
	return r == BingoRuleSet75 || r == BingoRuleSet90
}

// PrizeTier adds Bonus to the prize once Threshold units have been sold
type PrizeTier struct {
	Threshold int64 `json:"threshold"`
	Bonus     int64 `json:"bonus"`
}

// BingoGame is a bingo draw together with its escrow account.
// HeldBalance accumulates ticket revenue until settlement; OrganizerLocked is
// what the organizer actually has reserved for the prize (base plus any bonus
// that could be locked when a tier was reached).
type BingoGame struct {
	ID                int64          `db:"id"`
	OrganizerID       int64          `db:"organizer_id"`
	RuleSet           BingoRuleSet   `db:"rule_set"`
	Pattern           BingoPattern   `db:"pattern"`
	State             BingoGameState `db:"state"`
	PricePerUnit      int64          `db:"price_per_unit"`
	BasePrize         int64          `db:"base_prize"`
	HeldBalance       int64          `db:"held_balance"`
	OrganizerLocked   int64          `db:"organizer_locked"`
	UnitsSold         int64          `db:"units_sold"`
	PeakUnitsSold     int64          `db:"peak_units_sold"`
	Tiers             []PrizeTier    `db:"-"`
	DrawnNumbers      []int64        `db:"drawn_numbers"`
	AutoDrawEnabled   bool           `db:"auto_draw_enabled"`
	DrawInterval      time.Duration  `db:"draw_interval_ms"`
	CommissionRateBps int64          `db:"commission_rate_bps"` // Captured at creation
	WinnerIDs         []int64        `db:"winner_ids"`
	StartedAt         *time.Time     `db:"started_at"`
	FinishedAt        *time.Time     `db:"finished_at"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// CreateGameParams carries the organizer's choices for a new game
type CreateGameParams struct {
	OrganizerID       int64
	BasePrize         int64
	PricePerUnit      int64
	RuleSet           BingoRuleSet
	Pattern           BingoPattern
	Tiers             []PrizeTier
	AutoDraw          bool
	DrawInterval      time.Duration
	CommissionRateBps int64
}

// Validate checks the parameters and sorts the tiers by threshold
func (p *CreateGameParams) Validate() error {
	if p.BasePrize < 0 {
		return fmt.Errorf("%w: base prize must not be negative", ErrInvalidAmount)
	}
	if p.PricePerUnit <= 0 {
		return fmt.Errorf("%w: price per unit must be positive", ErrInvalidAmount)
	}
	if !p.RuleSet.IsValid() {
		return fmt.Errorf("%w: unsupported rule set %d", ErrInvalidConfig, p.RuleSet)
	}
	if !p.Pattern.ValidFor(p.RuleSet) {
		return fmt.Errorf("%w: pattern %q is not available for %d-ball", ErrInvalidConfig, p.Pattern, p.RuleSet)
	}
	if p.DrawInterval <= 0 {
		return fmt.Errorf("%w: draw interval must be positive", ErrInvalidConfig)
	}
	if p.CommissionRateBps < 0 || p.CommissionRateBps > BasisPointsPerUnit {
		return fmt.Errorf("%w: commission rate out of range", ErrInvalidConfig)
	}

	sort.Slice(p.Tiers, func(i, j int) bool { return p.Tiers[i].Threshold < p.Tiers[j].Threshold })
	for i, tier := range p.Tiers {
		if tier.Threshold <= 0 || tier.Bonus <= 0 {
			return fmt.Errorf("%w: tier threshold and bonus must be positive", ErrInvalidConfig)
		}
		if i > 0 && p.Tiers[i-1].Threshold == tier.Threshold {
			return fmt.Errorf("%w: duplicate tier threshold %d", ErrInvalidConfig, tier.Threshold)
		}
	}
	return nil
}

// NewBingoGame builds a pending game from validated parameters
func NewBingoGame(p CreateGameParams) *BingoGame {
	return &BingoGame{
		OrganizerID:       p.OrganizerID,
		RuleSet:           p.RuleSet,
		Pattern:           p.Pattern,
		State:             BingoGameStatePending,
		PricePerUnit:      p.PricePerUnit,
		BasePrize:         p.BasePrize,
		Tiers:             p.Tiers,
		DrawnNumbers:      []int64{},
		AutoDrawEnabled:   p.AutoDraw,
		DrawInterval:      p.DrawInterval,
		CommissionRateBps: p.CommissionRateBps,
		WinnerIDs:         []int64{},
	}
}

// IsFinished returns true once the game has been settled
func (g *BingoGame) IsFinished() bool {
	return g.State == BingoGameStateFinished
}

// IsStarted returns true while numbers are being drawn
func (g *BingoGame) IsStarted() bool {
	return g.State == BingoGameStateStarted
}

// CanSellUnits returns true if cards can still be purchased
func (g *BingoGame) CanSellUnits() bool {
	return g.State == BingoGameStatePending || g.State == BingoGameStateStarted
}

// ShouldAutoDraw returns true if the auto-draw loop should be running for this game
func (g *BingoGame) ShouldAutoDraw() bool {
	return g.IsStarted() && g.AutoDrawEnabled
}

// Start moves a pending game to started
func (g *BingoGame) Start(now time.Time) error {
	if g.State != BingoGameStatePending {
		return fmt.Errorf("%w: cannot start game in state %s", ErrInvalidStateTransition, g.State)
	}
	g.State = BingoGameStateStarted
	g.StartedAt = &now
	return nil
}

// Finish records the winners and closes the game
func (g *BingoGame) Finish(winnerIDs []int64, now time.Time) error {
	if g.IsFinished() {
		return ErrAlreadySettled
	}
	g.State = BingoGameStateFinished
	g.WinnerIDs = UniqueSorted(winnerIDs)
	g.AutoDrawEnabled = false
	g.FinishedAt = &now
	return nil
}

// ReachedBonus sums the bonuses of every tier reached by the high-water mark
func (g *BingoGame) ReachedBonus() int64 {
	var total int64
	for _, tier := range g.Tiers {
		if tier.Threshold <= g.PeakUnitsSold {
			total += tier.Bonus
		}
	}
	return total
}

// CurrentPrize is the base prize plus every reached progressive bonus
func (g *BingoGame) CurrentPrize() int64 {
	return g.BasePrize + g.ReachedBonus()
}

// RecordUnitSold counts a sold unit and returns the tiers it newly reached
func (g *BingoGame) RecordUnitSold() []PrizeTier {
	previousPeak := g.PeakUnitsSold
	g.UnitsSold++
	g.HeldBalance += g.PricePerUnit
	if g.UnitsSold > g.PeakUnitsSold {
		g.PeakUnitsSold = g.UnitsSold
	}

	var reached []PrizeTier
	for _, tier := range g.Tiers {
		if tier.Threshold > previousPeak && tier.Threshold <= g.PeakUnitsSold {
			reached = append(reached, tier)
		}
	}
	return reached
}

// MaxNumber is the highest ball in the game's domain
func (g *BingoGame) MaxNumber() int64 {
	return int64(g.RuleSet)
}

// HasDrawn reports whether n has already been drawn
func (g *BingoGame) HasDrawn(n int64) bool {
	for _, d := range g.DrawnNumbers {
		if d == n {
			return true
		}
	}
	return false
}

// DrawnSet returns the drawn numbers as a lookup set
func (g *BingoGame) DrawnSet() map[int64]bool {
	set := make(map[int64]bool, len(g.DrawnNumbers))
	for _, n := range g.DrawnNumbers {
		set[n] = true
	}
	return set
}

// RemainingNumbers lists the numbers not drawn yet, ascending
func (g *BingoGame) RemainingNumbers() []int64 {
	drawn := g.DrawnSet()
	remaining := make([]int64, 0, g.MaxNumber()-int64(len(drawn)))
	for n := int64(1); n <= g.MaxNumber(); n++ {
		if !drawn[n] {
			remaining = append(remaining, n)
		}
	}
	return remaining
}

// RecordDraw appends n to the drawn sequence
func (g *BingoGame) RecordDraw(n int64) error {
	if !g.IsStarted() {
		return fmt.Errorf("%w: numbers can only be drawn in a started game", ErrInvalidStateTransition)
	}
	if n < 1 || n > g.MaxNumber() {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidNumber, n, g.MaxNumber())
	}
	if g.HasDrawn(n) {
		return fmt.Errorf("%w: %d", ErrNumberAlreadyDrawn, n)
	}
	g.DrawnNumbers = append(g.DrawnNumbers, n)
	return nil
}

// Commission is the platform's share of the held ticket revenue, rounded down
func (g *BingoGame) Commission() int64 {
	return ApplyBasisPoints(g.HeldBalance, g.CommissionRateBps)
}

// PurchaseResult is returned to the buyer of a unit
type PurchaseResult struct {
	Game         *BingoGame
	Card         *BingoCard
	NewBalance   int64
	CurrentPrize int64
	ReachedTiers []PrizeTier
}

// DrawResult describes one drawn number
type DrawResult struct {
	GameID     int64
	Number     int64
	DrawnCount int
	WinnerIDs  []int64
	Settlement *BingoSettlement
}

// BingoSettlement records how a finished game was paid out
type BingoSettlement struct {
	GameID           int64
	Shares           []PrizeShare
	NewBalances      map[int64]int64
	Prize            int64
	Commission       int64
	OrganizerRevenue int64
	Unlocked         int64
}
