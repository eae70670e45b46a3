package infrastructure

import (
	"context"

	"github.com/arenaplay/arena/domain/events"

	log "github.com/sirupsen/logrus"
)

// NoopEventPublisher drops events. Used by one-shot CLI commands that have no broadcast gateway.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a publisher that discards every event
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish discards the event
func (p *NoopEventPublisher) Publish(event events.Event) error {
	log.WithField("eventType", event.Type()).Debug("Dropping event (no publisher configured)")
	return nil
}

// discardMessages satisfies messagePublisher without a broker
type discardMessages struct{}

func (discardMessages) Publish(ctx context.Context, subject string, data []byte) error {
	return nil
}

// NewLocalEventPublisher creates a publisher that only runs local handlers.
// The service uses it when no NATS servers are configured, so metrics still see committed events.
func NewLocalEventPublisher(subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return NewNATSEventPublisher(discardMessages{}, subjectMapper)
}
