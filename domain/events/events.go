package events

import "github.com/arenaplay/arena/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeNumberDrawn       EventType = "number_drawn"
	EventTypePrizeUpdated      EventType = "prize_updated"
	EventTypeGameStarted       EventType = "game_started"
	EventTypeGameFinished      EventType = "game_finished"
	EventTypePresenceCount     EventType = "presence_count"
	EventTypeDiceRolled        EventType = "dice_rolled"
	EventTypeRoundResult       EventType = "round_result"
	EventTypeBattleFinished    EventType = "battle_finished"
	EventTypeGameStatusChanged EventType = "game_status_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is emitted for every ledger entry
type BalanceChangeEvent struct {
	UserID        int64                    `json:"user_id"`
	Kind          entities.LedgerEntryKind `json:"kind"`
	Amount        int64                    `json:"amount"`
	BlockedDelta  int64                    `json:"blocked_delta"`
	OldAvailable  int64                    `json:"old_available"`
	NewAvailable  int64                    `json:"new_available"`
	NewBlocked    int64                    `json:"new_blocked"`
	LedgerEntryID int64                    `json:"ledger_entry_id"`
	RelatedID     *int64                   `json:"related_id,omitempty"`
	RelatedType   *entities.RelatedType    `json:"related_type,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// NumberDrawnEvent announces a drawn bingo number
type NumberDrawnEvent struct {
	GameID     int64 `json:"game_id"`
	Number     int64 `json:"number"`
	DrawnCount int   `json:"drawn_count"`
	Auto       bool  `json:"auto"`
}

func (e NumberDrawnEvent) Type() EventType {
	return EventTypeNumberDrawn
}

// PrizeUpdatedEvent announces a change to the progressive prize
type PrizeUpdatedEvent struct {
	GameID          int64 `json:"game_id"`
	CurrentPrize    int64 `json:"current_prize"`
	UnitsSold       int64 `json:"units_sold"`
	OrganizerLocked int64 `json:"organizer_locked"`
}

func (e PrizeUpdatedEvent) Type() EventType {
	return EventTypePrizeUpdated
}

// GameStartedEvent announces that a bingo game began drawing
type GameStartedEvent struct {
	GameID       int64 `json:"game_id"`
	OrganizerID  int64 `json:"organizer_id"`
	CurrentPrize int64 `json:"current_prize"`
	AutoDraw     bool  `json:"auto_draw"`
}

func (e GameStartedEvent) Type() EventType {
	return EventTypeGameStarted
}

// GameFinishedEvent announces a settled bingo game
type GameFinishedEvent struct {
	GameID      int64                 `json:"game_id"`
	Winners     []int64               `json:"winners"`
	Shares      []entities.PrizeShare `json:"shares"`
	NewBalances map[int64]int64       `json:"new_balances"`
	Prize       int64                 `json:"prize"`
	Commission  int64                 `json:"commission"`
}

func (e GameFinishedEvent) Type() EventType {
	return EventTypeGameFinished
}

// PresenceCountEvent reports the number of connected users in a room
type PresenceCountEvent struct {
	Room  string `json:"room"`
	Count int64  `json:"count"`
}

func (e PresenceCountEvent) Type() EventType {
	return EventTypePresenceCount
}

// DiceRolledEvent announces a player's roll
type DiceRolledEvent struct {
	BattleID    int64 `json:"battle_id"`
	RoundNumber int   `json:"round_number"`
	UserID      int64 `json:"user_id"`
	Die1        int   `json:"die1"`
	Die2        int   `json:"die2"`
	Total       int   `json:"total"`
}

func (e DiceRolledEvent) Type() EventType {
	return EventTypeDiceRolled
}

// RoundResultEvent announces the losers of a completed round
type RoundResultEvent struct {
	BattleID    int64         `json:"battle_id"`
	RoundNumber int           `json:"round_number"`
	LoserIDs    []int64       `json:"loser_ids"`
	Eliminated  []int64       `json:"eliminated"`
	Voided      bool          `json:"voided"`
	Lives       map[int64]int `json:"lives"`
}

func (e RoundResultEvent) Type() EventType {
	return EventTypeRoundResult
}

// BattleFinishedEvent announces the end of a dice battle
type BattleFinishedEvent struct {
	BattleID int64                     `json:"battle_id"`
	WinnerID *int64                    `json:"winner_id,omitempty"`
	Prize    int64                     `json:"prize"`
	Reason   entities.DiceFinishReason `json:"reason"`
}

func (e BattleFinishedEvent) Type() EventType {
	return EventTypeBattleFinished
}

// GameStatusChangedEvent announces a dice battle state change
type GameStatusChangedEvent struct {
	BattleID   int64                    `json:"battle_id"`
	OldState   entities.DiceBattleState `json:"old_state"`
	NewState   entities.DiceBattleState `json:"new_state"`
	PlayerIDs  []int64                  `json:"player_ids"`
	SpinEndsAt *int64                   `json:"spin_ends_at,omitempty"` // Unix millis
}

func (e GameStatusChangedEvent) Type() EventType {
	return EventTypeGameStatusChanged
}
