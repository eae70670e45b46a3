package repository

import (
	"context"
	"testing"
	"time"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchmakingTicketRepository_OneWaitingTicketPerUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewMatchmakingTicketRepository(testDB.DB)
	ctx := context.Background()
	testutil.SeedAccount(t, testDB.DB, 1, 100)

	ticket := &entities.MatchmakingTicket{UserID: 1, Stake: 10, Status: entities.TicketStatusWaiting}
	require.NoError(t, repo.Create(ctx, ticket))
	assert.NotZero(t, ticket.ID)

	err := repo.Create(ctx, &entities.MatchmakingTicket{UserID: 1, Stake: 20, Status: entities.TicketStatusWaiting})
	assert.ErrorIs(t, err, entities.ErrAlreadyQueued)

	n, err := repo.CancelWaiting(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	waiting, err := repo.GetWaitingByUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, waiting)

	// Cancelling freed the slot
	require.NoError(t, repo.Create(ctx, &entities.MatchmakingTicket{UserID: 1, Stake: 20, Status: entities.TicketStatusWaiting}))
}

func TestMatchmakingTicketRepository_ClaimSkipsLockedTickets(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	var ids []int64
	for userID := int64(1); userID <= 5; userID++ {
		testutil.SeedAccount(t, testDB.DB, userID, 100)
		ids = append(ids, testutil.SeedTicket(t, testDB.DB, userID, 10))
	}

	buckets, err := NewMatchmakingTicketRepository(testDB.DB).GetStakeBuckets(ctx, entities.DicePlayersPerBattle)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, entities.StakeBucket{Stake: 10, Waiting: 5}, buckets[0])

	first, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer first.Rollback(ctx)

	claimed, err := NewMatchmakingTicketRepositoryScoped(first).ClaimOldestWaiting(ctx, 10, 3, nil)
	require.NoError(t, err)
	require.Len(t, claimed, 3)
	assert.Equal(t, ids[:3], []int64{claimed[0].ID, claimed[1].ID, claimed[2].ID})

	second, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer second.Rollback(ctx)

	secondRepo := NewMatchmakingTicketRepositoryScoped(second)
	rest, err := secondRepo.ClaimOldestWaiting(ctx, 10, 3, nil)
	require.NoError(t, err)
	require.Len(t, rest, 2, "tickets held by the first claim are skipped")
	assert.Equal(t, ids[3:], []int64{rest[0].ID, rest[1].ID})

	excluded, err := secondRepo.ClaimOldestWaiting(ctx, 10, 3, []int64{ids[3]})
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, ids[4], excluded[0].ID)

	// A player in a forming group cannot leave
	n, err := secondRepo.CancelWaiting(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMatchmakingTicketRepository_ExpireWaitingBefore(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewMatchmakingTicketRepository(testDB.DB)
	ctx := context.Background()

	testutil.SeedAccount(t, testDB.DB, 1, 100)
	testutil.SeedAccount(t, testDB.DB, 2, 100)
	old := testutil.SeedTicket(t, testDB.DB, 1, 10)
	testutil.SeedTicket(t, testDB.DB, 2, 10)

	_, err := testDB.DB.Exec(ctx, `UPDATE matchmaking_tickets SET joined_at = NOW() - INTERVAL '1 hour' WHERE id = $1`, old)
	require.NoError(t, err)

	n, err := repo.ExpireWaitingBefore(ctx, time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	waiting, err := repo.GetWaitingByUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, waiting)

	waiting, err = repo.GetWaitingByUser(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, waiting)
	assert.Equal(t, entities.TicketStatusWaiting, waiting.Status)
}
