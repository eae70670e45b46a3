package infrastructure

import (
	"testing"

	"github.com/arenaplay/arena/domain/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper_MapEventToSubject(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.BalanceChangeEvent{}, "ledger.balance_changed"},
		{events.NumberDrawnEvent{}, "bingo.number_drawn"},
		{events.PrizeUpdatedEvent{}, "bingo.prize_updated"},
		{events.GameStartedEvent{}, "bingo.game_started"},
		{events.GameFinishedEvent{}, "bingo.game_finished"},
		{events.PresenceCountEvent{}, "presence.count"},
		{events.DiceRolledEvent{}, "dice.rolled"},
		{events.RoundResultEvent{}, "dice.round_result"},
		{events.BattleFinishedEvent{}, "dice.game_finished"},
		{events.GameStatusChangedEvent{}, "dice.status_changed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(tt.subject))
		})
	}
}

func TestEventSubjectMapper_AllSubjectsAreMapped(t *testing.T) {
	mapper := NewEventSubjectMapper()
	subjects := mapper.GetAllSubjects()

	assert.Len(t, subjects, len(eventSubjects))
	for _, subject := range eventSubjects {
		assert.Contains(t, subjects, subject)
	}
	assert.Equal(t, events.EventType("custom.subject"), mapper.MapSubjectToEventType("custom.subject"))
}
