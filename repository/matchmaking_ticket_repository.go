package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const ticketColumns = `id, user_id, stake, status, battle_id, joined_at, updated_at`

// MatchmakingTicketRepository implements interfaces.MatchmakingTicketRepository
type MatchmakingTicketRepository struct {
	q Queryable
}

// NewMatchmakingTicketRepository creates a repository on the connection pool
func NewMatchmakingTicketRepository(db *database.DB) *MatchmakingTicketRepository {
	return &MatchmakingTicketRepository{q: db.Pool}
}

// NewMatchmakingTicketRepositoryScoped creates a repository bound to a transaction
func NewMatchmakingTicketRepositoryScoped(tx Queryable) interfaces.MatchmakingTicketRepository {
	return &MatchmakingTicketRepository{q: tx}
}

func scanTicket(row pgx.Row) (*entities.MatchmakingTicket, error) {
	var t entities.MatchmakingTicket
	err := row.Scan(&t.ID, &t.UserID, &t.Stake, &t.Status, &t.BattleID, &t.JoinedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create queues a ticket. The partial unique index on waiting tickets turns a
// second join into ErrAlreadyQueued.
func (r *MatchmakingTicketRepository) Create(ctx context.Context, ticket *entities.MatchmakingTicket) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO matchmaking_tickets (user_id, stake, status)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at, updated_at`,
		ticket.UserID, ticket.Stake, ticket.Status).Scan(&ticket.ID, &ticket.JoinedAt, &ticket.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %d", entities.ErrAlreadyQueued, ticket.UserID)
		}
		return fmt.Errorf("failed to create ticket for user %d: %w", ticket.UserID, err)
	}
	return nil
}

// GetWaitingByUser returns the user's waiting ticket, if any
func (r *MatchmakingTicketRepository) GetWaitingByUser(ctx context.Context, userID int64) (*entities.MatchmakingTicket, error) {
	ticket, err := scanTicket(r.q.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM matchmaking_tickets
		WHERE user_id = $1 AND status = $2`,
		userID, entities.TicketStatusWaiting))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting ticket of user %d: %w", userID, err)
	}
	return ticket, nil
}

// UpdateStatus moves a ticket out of the queue
func (r *MatchmakingTicketRepository) UpdateStatus(ctx context.Context, ticketID int64, status entities.TicketStatus, battleID *int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE matchmaking_tickets
		SET status = $2, battle_id = $3, updated_at = NOW()
		WHERE id = $1`,
		ticketID, status, battleID)
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticketID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ticket %d", entities.ErrNotFound, ticketID)
	}
	return nil
}

// CancelWaiting cancels the user's waiting ticket. Tickets locked by a
// forming battle are skipped, so a player cannot leave a group mid-claim.
func (r *MatchmakingTicketRepository) CancelWaiting(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE matchmaking_tickets
		SET status = $2, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM matchmaking_tickets
			WHERE user_id = $1 AND status = $3
			FOR UPDATE SKIP LOCKED
		)`,
		userID, entities.TicketStatusCancelled, entities.TicketStatusWaiting)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel ticket of user %d: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

// GetStakeBuckets returns stakes with at least minWaiting waiting tickets.
// This is an unlocked pre-read; FormBattle re-checks under lock.
func (r *MatchmakingTicketRepository) GetStakeBuckets(ctx context.Context, minWaiting int64) ([]entities.StakeBucket, error) {
	rows, err := r.q.Query(ctx, `
		SELECT stake, COUNT(*)
		FROM matchmaking_tickets
		WHERE status = $1
		GROUP BY stake
		HAVING COUNT(*) >= $2
		ORDER BY MIN(joined_at)`,
		entities.TicketStatusWaiting, minWaiting)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake buckets: %w", err)
	}
	defer rows.Close()

	var buckets []entities.StakeBucket
	for rows.Next() {
		var b entities.StakeBucket
		if err := rows.Scan(&b.Stake, &b.Waiting); err != nil {
			return nil, fmt.Errorf("failed to scan stake bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// ClaimOldestWaiting locks up to limit of the oldest waiting tickets at stake.
// Rows locked by a concurrent tick are skipped rather than waited on.
func (r *MatchmakingTicketRepository) ClaimOldestWaiting(ctx context.Context, stake int64, limit int, excludeIDs []int64) ([]*entities.MatchmakingTicket, error) {
	if excludeIDs == nil {
		excludeIDs = []int64{}
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM matchmaking_tickets
		WHERE stake = $1 AND status = $2 AND NOT (id = ANY($3))
		ORDER BY joined_at, id
		LIMIT $4
		FOR UPDATE SKIP LOCKED`,
		stake, entities.TicketStatusWaiting, excludeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim tickets at stake %d: %w", stake, err)
	}
	defer rows.Close()

	var tickets []*entities.MatchmakingTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// ExpireWaitingBefore times out waiting tickets that joined before cutoff
func (r *MatchmakingTicketRepository) ExpireWaitingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE matchmaking_tickets
		SET status = $1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM matchmaking_tickets
			WHERE status = $2 AND joined_at < $3
			FOR UPDATE SKIP LOCKED
		)`,
		entities.TicketStatusTimeout, entities.TicketStatusWaiting, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire tickets: %w", err)
	}
	return tag.RowsAffected(), nil
}
