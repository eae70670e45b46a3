package dto

import (
	"time"

	"github.com/arenaplay/arena/domain/entities"
)

// TicketDTO is a player's matchmaking ticket
type TicketDTO struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	Stake    int64     `json:"stake"`
	Status   string    `json:"status"`
	BattleID *int64    `json:"battle_id,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// NewTicketDTO builds the ticket response
func NewTicketDTO(t *entities.MatchmakingTicket) TicketDTO {
	return TicketDTO{
		ID:       t.ID,
		UserID:   t.UserID,
		Stake:    t.Stake,
		Status:   string(t.Status),
		BattleID: t.BattleID,
		JoinedAt: t.JoinedAt,
	}
}

// PlayerDTO is one seat at a battle
type PlayerDTO struct {
	UserID       int64 `json:"user_id"`
	Seat         int   `json:"seat"`
	Lives        int   `json:"lives"`
	IsEliminated bool  `json:"is_eliminated"`
}

// BattleViewDTO is the read model of a dice battle
type BattleViewDTO struct {
	ID             int64       `json:"id"`
	State          string      `json:"state"`
	Stake          int64       `json:"stake"`
	BasePrize      int64       `json:"base_prize"`
	Prize          int64       `json:"prize"`
	SpinEndsAt     *time.Time  `json:"spin_ends_at,omitempty"`
	WinnerID       *int64      `json:"winner_id,omitempty"`
	FinishedReason *string     `json:"finished_reason,omitempty"`
	Players        []PlayerDTO `json:"players"`
}

// NewBattleView builds the read model of a battle
func NewBattleView(b *entities.DiceBattle) BattleViewDTO {
	view := BattleViewDTO{
		ID:         b.ID,
		State:      string(b.State),
		Stake:      b.Stake,
		BasePrize:  b.BasePrize,
		Prize:      b.Prize(),
		SpinEndsAt: b.SpinEndsAt,
		WinnerID:   b.WinnerID,
		Players:    make([]PlayerDTO, 0, len(b.Players)),
	}
	if b.FinishedReason != nil {
		reason := string(*b.FinishedReason)
		view.FinishedReason = &reason
	}
	for _, p := range b.Players {
		view.Players = append(view.Players, PlayerDTO{
			UserID:       p.UserID,
			Seat:         p.Seat,
			Lives:        p.Lives,
			IsEliminated: p.IsEliminated,
		})
	}
	return view
}

// RollDTO reports a submitted roll and, when it completed the round, the outcome
type RollDTO struct {
	BattleID    int64         `json:"battle_id"`
	RoundNumber int           `json:"round_number"`
	Die1        int           `json:"die1"`
	Die2        int           `json:"die2"`
	Total       int           `json:"total"`
	RoundOver   bool          `json:"round_over"`
	LoserIDs    []int64       `json:"loser_ids,omitempty"`
	Eliminated  []int64       `json:"eliminated,omitempty"`
	Voided      bool          `json:"voided,omitempty"`
	Battle      BattleViewDTO `json:"battle"`
	WinnerPrize *int64        `json:"winner_prize,omitempty"`
}

// NewRollDTO builds the roll response
func NewRollDTO(r *entities.RollResult) RollDTO {
	out := RollDTO{
		BattleID:    r.Battle.ID,
		RoundNumber: r.Round.RoundNumber,
		Die1:        r.Roll.Die1,
		Die2:        r.Roll.Die2,
		Total:       r.Roll.Total,
		Battle:      NewBattleView(r.Battle),
	}
	if r.Outcome != nil {
		out.RoundOver = true
		out.LoserIDs = r.Outcome.LoserIDs
		out.Eliminated = r.Outcome.Eliminated
		out.Voided = r.Outcome.Voided
	}
	if r.Settlement != nil {
		prize := r.Settlement.Prize
		out.WinnerPrize = &prize
	}
	return out
}

// QueueBucketDTO is the number of players waiting at one stake
type QueueBucketDTO struct {
	Stake   int64 `json:"stake"`
	Waiting int64 `json:"waiting"`
}

// NewQueueDTO builds the queue response
func NewQueueDTO(buckets []entities.StakeBucket) []QueueBucketDTO {
	out := make([]QueueBucketDTO, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, QueueBucketDTO{Stake: b.Stake, Waiting: b.Waiting})
	}
	return out
}

// SweepDTO summarises a cleanup sweep
type SweepDTO struct {
	BattlesExpired int   `json:"battles_expired"`
	StakesRefunded int64 `json:"stakes_refunded"`
	TicketsExpired int64 `json:"tickets_expired"`
	Failures       int   `json:"failures"`
}

// NewSweepDTO builds the sweep response
func NewSweepDTO(r *entities.SweepReport) SweepDTO {
	return SweepDTO{
		BattlesExpired: r.BattlesExpired,
		StakesRefunded: r.StakesRefunded,
		TicketsExpired: r.TicketsExpired,
		Failures:       r.Failures,
	}
}
