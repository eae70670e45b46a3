package application_test

import (
	"context"
	"testing"

	"github.com/arenaplay/arena/application"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/domain/testhelpers"
	"github.com/arenaplay/arena/infrastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPresenceHandler_BroadcastsCounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	publisher := new(testhelpers.MockEventPublisher)
	publisher.On("Publish", mock.Anything).Return(nil)
	handler := application.NewPresenceHandler(infrastructure.NewMemoryPresenceTracker(), publisher)

	n, err := handler.Connect(ctx, "bingo:7", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = handler.Connect(ctx, "bingo:7", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = handler.Disconnect(ctx, "bingo:7", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = handler.Count(ctx, "bingo:7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	publisher.AssertNumberOfCalls(t, "Publish", 3)
	publisher.AssertCalled(t, "Publish", events.PresenceCountEvent{Room: "bingo:7", Count: 2})
	publisher.AssertCalled(t, "Publish", events.PresenceCountEvent{Room: "bingo:7", Count: 1})
}

func TestPresenceHandler_RejectsBadRooms(t *testing.T) {
	t.Parallel()
	publisher := new(testhelpers.MockEventPublisher)
	handler := application.NewPresenceHandler(infrastructure.NewMemoryPresenceTracker(), publisher)

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}

	for _, room := range []string{"", string(long)} {
		_, err := handler.Connect(context.Background(), room, 1)
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	}
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}
