package repository

import (
	"context"
	"testing"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEntryRepository_RecordAndSum(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewLedgerEntryRepository(testDB.DB)
	ctx := context.Background()

	testutil.SeedAccount(t, testDB.DB, 1, 100)

	ref := entities.RefBingoGame(9, "prize lock")
	lock := &entities.LedgerEntry{
		UserID:         1,
		Amount:         0,
		BlockedDelta:   40,
		Kind:           entities.LedgerKindPrizeLock,
		AvailableAfter: 60,
		BlockedAfter:   40,
		RelatedID:      ref.RelatedID,
		RelatedType:    ref.RelatedType,
		Description:    ref.Description,
		Metadata:       map[string]interface{}{"tier": float64(1)},
	}
	require.NoError(t, repo.Record(ctx, lock))
	assert.NotZero(t, lock.ID)
	assert.False(t, lock.CreatedAt.IsZero())

	sums, err := repo.SumByAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), sums.Total)
	assert.Equal(t, int64(40), sums.Blocked)
	assert.Equal(t, int64(2), sums.EntryCount)

	recent, err := repo.GetByAccount(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, lock.ID, recent[0].ID)
	assert.Equal(t, entities.LedgerKindPrizeLock, recent[0].Kind)
	assert.Equal(t, float64(1), recent[0].Metadata["tier"])

	related, err := repo.GetByRelated(ctx, entities.RelatedTypeBingoGame, 9)
	require.NoError(t, err)
	require.Len(t, related, 1)
	require.NotNil(t, related[0].RelatedType)
	assert.Equal(t, entities.RelatedTypeBingoGame, *related[0].RelatedType)

	byID, err := repo.GetEntry(ctx, related[0].ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, related[0].Amount, byID.Amount)

	missing, err := repo.GetEntry(ctx, 123456)
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := repo.SumByAccount(ctx, 404)
	require.NoError(t, err)
	assert.Zero(t, empty.EntryCount)
}

func TestLedgerEntryRepository_AppendOnly(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	testutil.SeedAccount(t, testDB.DB, 1, 50)

	_, err := testDB.DB.Exec(ctx, `UPDATE ledger_entries SET amount = 0 WHERE user_id = 1`)
	assert.Error(t, err)

	_, err = testDB.DB.Exec(ctx, `DELETE FROM ledger_entries WHERE user_id = 1`)
	assert.Error(t, err)
}
