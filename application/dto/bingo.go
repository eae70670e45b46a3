package dto

import (
	"time"

	"github.com/arenaplay/arena/domain/entities"
)

// CreateGameDTO is what an organizer submits to open a bingo game.
// Zero RuleSet and DrawIntervalMs fall back to 75-ball and the configured interval.
type CreateGameDTO struct {
	OrganizerID    int64                `json:"-"`
	BasePrize      int64                `json:"base_prize"`
	PricePerUnit   int64                `json:"price_per_unit"`
	RuleSet        int                  `json:"rule_set"`
	Pattern        string               `json:"pattern"`
	Tiers          []entities.PrizeTier `json:"progressive_tiers"`
	AutoDraw       bool                 `json:"auto_draw"`
	DrawIntervalMs int64                `json:"draw_interval_ms"`
}

// ToParams converts the request into domain parameters, capturing the commission rate
func (d CreateGameDTO) ToParams(commissionRateBps int64, defaultInterval time.Duration) entities.CreateGameParams {
	ruleSet := entities.BingoRuleSet(d.RuleSet)
	if d.RuleSet == 0 {
		ruleSet = entities.BingoRuleSet75
	}
	interval := defaultInterval
	if d.DrawIntervalMs > 0 {
		interval = time.Duration(d.DrawIntervalMs) * time.Millisecond
	}
	tiers := make([]entities.PrizeTier, len(d.Tiers))
	copy(tiers, d.Tiers)

	return entities.CreateGameParams{
		OrganizerID:       d.OrganizerID,
		BasePrize:         d.BasePrize,
		PricePerUnit:      d.PricePerUnit,
		RuleSet:           ruleSet,
		Pattern:           entities.BingoPattern(d.Pattern),
		Tiers:             tiers,
		AutoDraw:          d.AutoDraw,
		DrawInterval:      interval,
		CommissionRateBps: commissionRateBps,
	}
}

// GameViewDTO is the read model of a bingo game
type GameViewDTO struct {
	ID              int64                `json:"id"`
	OrganizerID     int64                `json:"organizer_id"`
	RuleSet         int                  `json:"rule_set"`
	Pattern         string               `json:"pattern"`
	State           string               `json:"state"`
	PricePerUnit    int64                `json:"price_per_unit"`
	BasePrize       int64                `json:"base_prize"`
	CurrentPrize    int64                `json:"current_prize"`
	HeldBalance     int64                `json:"held_balance"`
	UnitsSold       int64                `json:"units_sold"`
	Tiers           []entities.PrizeTier `json:"progressive_tiers"`
	DrawnNumbers    []int64              `json:"drawn_numbers"`
	AutoDrawEnabled bool                 `json:"auto_draw_enabled"`
	DrawIntervalMs  int64                `json:"draw_interval_ms"`
	WinnerIDs       []int64              `json:"winner_ids"`
	StartedAt       *time.Time           `json:"started_at,omitempty"`
	FinishedAt      *time.Time           `json:"finished_at,omitempty"`
}

// NewGameView builds the read model of a game
func NewGameView(game *entities.BingoGame) GameViewDTO {
	tiers := game.Tiers
	if tiers == nil {
		tiers = []entities.PrizeTier{}
	}
	return GameViewDTO{
		ID:              game.ID,
		OrganizerID:     game.OrganizerID,
		RuleSet:         int(game.RuleSet),
		Pattern:         string(game.Pattern),
		State:           string(game.State),
		PricePerUnit:    game.PricePerUnit,
		BasePrize:       game.BasePrize,
		CurrentPrize:    game.CurrentPrize(),
		HeldBalance:     game.HeldBalance,
		UnitsSold:       game.UnitsSold,
		Tiers:           tiers,
		DrawnNumbers:    game.DrawnNumbers,
		AutoDrawEnabled: game.AutoDrawEnabled,
		DrawIntervalMs:  game.DrawInterval.Milliseconds(),
		WinnerIDs:       game.WinnerIDs,
		StartedAt:       game.StartedAt,
		FinishedAt:      game.FinishedAt,
	}
}

// PurchaseDTO is returned to a buyer after a unit purchase
type PurchaseDTO struct {
	GameID       int64                `json:"game_id"`
	NewBalance   int64                `json:"new_balance"`
	CurrentPrize int64                `json:"current_prize"`
	CardID       int64                `json:"card_id"`
	Numbers      []int64              `json:"numbers"`
	ReachedTiers []entities.PrizeTier `json:"reached_tiers"`
}

// NewPurchaseDTO builds the purchase response
func NewPurchaseDTO(result *entities.PurchaseResult) PurchaseDTO {
	reached := result.ReachedTiers
	if reached == nil {
		reached = []entities.PrizeTier{}
	}
	return PurchaseDTO{
		GameID:       result.Game.ID,
		NewBalance:   result.NewBalance,
		CurrentPrize: result.CurrentPrize,
		CardID:       result.Card.ID,
		Numbers:      result.Card.Numbers,
		ReachedTiers: reached,
	}
}

// SettlementDTO reports how a game was paid out. Settled is false when the game
// had already been settled by someone else.
type SettlementDTO struct {
	GameID           int64                 `json:"game_id"`
	Settled          bool                  `json:"settled"`
	Shares           []entities.PrizeShare `json:"shares,omitempty"`
	Prize            int64                 `json:"prize"`
	Commission       int64                 `json:"commission"`
	OrganizerRevenue int64                 `json:"organizer_revenue"`
}

// NewSettlementDTO builds the settlement response; a nil settlement means a no-op
func NewSettlementDTO(gameID int64, s *entities.BingoSettlement) SettlementDTO {
	if s == nil {
		return SettlementDTO{GameID: gameID}
	}
	return SettlementDTO{
		GameID:           gameID,
		Settled:          true,
		Shares:           s.Shares,
		Prize:            s.Prize,
		Commission:       s.Commission,
		OrganizerRevenue: s.OrganizerRevenue,
	}
}

// DrawDTO reports one drawn number
type DrawDTO struct {
	GameID     int64   `json:"game_id"`
	Number     int64   `json:"number"`
	DrawnCount int     `json:"drawn_count"`
	WinnerIDs  []int64 `json:"winner_ids,omitempty"`
}

// NewDrawDTO builds the draw response
func NewDrawDTO(r *entities.DrawResult) DrawDTO {
	return DrawDTO{
		GameID:     r.GameID,
		Number:     r.Number,
		DrawnCount: r.DrawnCount,
		WinnerIDs:  r.WinnerIDs,
	}
}

// CardDTO is one purchased bingo card; zero marks a free or empty cell
type CardDTO struct {
	ID          int64     `json:"id"`
	Numbers     []int64   `json:"numbers"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// NewCardDTOs builds the card list response
func NewCardDTOs(cards []*entities.BingoCard) []CardDTO {
	out := make([]CardDTO, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardDTO{ID: c.ID, Numbers: c.Numbers, PurchasedAt: c.PurchasedAt})
	}
	return out
}
