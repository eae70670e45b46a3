package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/arenaplay/arena/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher records published events
type recordingPublisher struct {
	published []events.Event
	failOn    events.EventType
}

func (r *recordingPublisher) Publish(event events.Event) error {
	if event.Type() == r.failOn {
		return errors.New("publish failed")
	}
	r.published = append(r.published, event)
	return nil
}

func TestNATSTransactionalPublisher_FlushPublishesInOrder(t *testing.T) {
	real := &recordingPublisher{}
	publisher := NewNATSTransactionalPublisher(real)

	first := events.NumberDrawnEvent{GameID: 1, Number: 5}
	second := events.GameFinishedEvent{GameID: 1, Winners: []int64{2}}
	require.NoError(t, publisher.Publish(first))
	require.NoError(t, publisher.Publish(second))

	assert.Empty(t, real.published, "nothing leaves before the flush")
	assert.Equal(t, 2, publisher.Pending())

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Equal(t, []events.Event{first, second}, real.published)
	assert.Zero(t, publisher.Pending())

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Len(t, real.published, 2, "flushed events are not sent twice")
}

func TestNATSTransactionalPublisher_Discard(t *testing.T) {
	real := &recordingPublisher{}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.DiceRolledEvent{BattleID: 1}))
	publisher.Discard()
	require.NoError(t, publisher.Flush(context.Background()))

	assert.Empty(t, real.published)
}

func TestNATSTransactionalPublisher_FlushContinuesAfterFailure(t *testing.T) {
	real := &recordingPublisher{failOn: events.EventTypeDiceRolled}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.DiceRolledEvent{BattleID: 1}))
	require.NoError(t, publisher.Publish(events.RoundResultEvent{BattleID: 1}))

	require.NoError(t, publisher.Flush(context.Background()))
	require.Len(t, real.published, 1)
	assert.Equal(t, events.EventTypeRoundResult, real.published[0].Type())
}
