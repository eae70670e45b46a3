package entities

import "time"

// TicketStatus is the state of a matchmaking ticket
type TicketStatus string

const (
	TicketStatusWaiting   TicketStatus = "waiting"
	TicketStatusMatched   TicketStatus = "matched"
	TicketStatusTimeout   TicketStatus = "timeout"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// MatchmakingTicket is a player's place in a stake queue.
// At most one waiting ticket exists per user.
type MatchmakingTicket struct {
	ID        int64        `db:"id"`
	UserID    int64        `db:"user_id"`
	Stake     int64        `db:"stake"`
	Status    TicketStatus `db:"status"`
	BattleID  *int64       `db:"battle_id"`
	JoinedAt  time.Time    `db:"joined_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// IsWaiting returns true while the ticket is queued
func (t *MatchmakingTicket) IsWaiting() bool {
	return t.Status == TicketStatusWaiting
}

// StakeBucket is the number of waiting tickets at one stake
type StakeBucket struct {
	Stake   int64
	Waiting int64
}

// SweepReport summarises a cleanup sweep
type SweepReport struct {
	BattlesExpired int
	StakesRefunded int64
	TicketsExpired int64
	Failures       int
}
