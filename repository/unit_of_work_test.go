package repository

import (
	"context"
	"testing"

	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/domain/testhelpers"
	"github.com/arenaplay/arena/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := new(testhelpers.MockTransactionalEventPublisher)
	publisher.On("Publish", mock.Anything).Return(nil)
	publisher.On("Flush", mock.Anything).Return(nil)

	uow := CreateTestUnitOfWork(testDB.DB, publisher)
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.AccountRepository().Create(ctx, 1, "alice")
	require.NoError(t, err)
	require.NoError(t, uow.EventBus().Publish(events.PresenceCountEvent{Room: "bingo:1", Count: 1}))
	require.NoError(t, uow.Commit())

	publisher.AssertCalled(t, "Flush", mock.Anything)
	publisher.AssertNotCalled(t, "Discard")

	account, err := NewAccountRepository(testDB.DB).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, account)
}

func TestUnitOfWork_RollbackDiscardsEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := new(testhelpers.MockTransactionalEventPublisher)
	publisher.On("Discard").Return()

	uow := CreateTestUnitOfWork(testDB.DB, publisher)
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.AccountRepository().Create(ctx, 1, "alice")
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())

	publisher.AssertCalled(t, "Discard")
	publisher.AssertNotCalled(t, "Flush", mock.Anything)

	account, err := NewAccountRepository(testDB.DB).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, account)

	// A second rollback is harmless
	require.NoError(t, uow.Rollback())
}

func TestUnitOfWork_GettersPanicBeforeBegin(t *testing.T) {
	uow := NewUnitOfWorkFactory(nil).CreateWithPublisher(nil)
	assert.Panics(t, func() { uow.AccountRepository() })
	assert.Panics(t, func() { uow.MatchmakingTicketRepository() })
	assert.Panics(t, func() { uow.EventBus() })
}
