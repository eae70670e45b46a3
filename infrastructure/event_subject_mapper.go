package infrastructure

import (
	"fmt"

	"github.com/arenaplay/arena/domain/events"
)

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChange:     "ledger.balance_changed",
	events.EventTypeNumberDrawn:       "bingo.number_drawn",
	events.EventTypePrizeUpdated:      "bingo.prize_updated",
	events.EventTypeGameStarted:       "bingo.game_started",
	events.EventTypeGameFinished:      "bingo.game_finished",
	events.EventTypePresenceCount:     "presence.count",
	events.EventTypeDiceRolled:        "dice.rolled",
	events.EventTypeRoundResult:       "dice.round_result",
	events.EventTypeBattleFinished:    "dice.game_finished",
	events.EventTypeGameStatusChanged: "dice.status_changed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"ledger.balance_changed",
		"bingo.number_drawn",
		"bingo.prize_updated",
		"bingo.game_started",
		"bingo.game_finished",
		"presence.count",
		"dice.rolled",
		"dice.round_result",
		"dice.game_finished",
		"dice.status_changed",
	}
}
