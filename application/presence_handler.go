package application

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const maxRoomLength = 64

// PresenceHandler tracks who is watching a game room and broadcasts the count
type PresenceHandler interface {
	Connect(ctx context.Context, room string, userID int64) (int64, error)
	Disconnect(ctx context.Context, room string, userID int64) (int64, error)
	Count(ctx context.Context, room string) (int64, error)
}

type presenceHandler struct {
	tracker        PresenceTracker
	eventPublisher interfaces.EventPublisher
}

// NewPresenceHandler creates a new PresenceHandler. Presence is not
// transactional, so events go straight to the publisher.
func NewPresenceHandler(tracker PresenceTracker, eventPublisher interfaces.EventPublisher) PresenceHandler {
	return &presenceHandler{
		tracker:        tracker,
		eventPublisher: eventPublisher,
	}
}

func validateRoom(room string) error {
	if room == "" || len(room) > maxRoomLength {
		return fmt.Errorf("%w: room must be 1-%d characters", entities.ErrInvalidInput, maxRoomLength)
	}
	return nil
}

func (h *presenceHandler) Connect(ctx context.Context, room string, userID int64) (int64, error) {
	if err := validateRoom(room); err != nil {
		return 0, err
	}
	count, err := h.tracker.Connect(ctx, room, userID)
	if err != nil {
		return 0, err
	}
	h.broadcast(room, count)
	return count, nil
}

func (h *presenceHandler) Disconnect(ctx context.Context, room string, userID int64) (int64, error) {
	if err := validateRoom(room); err != nil {
		return 0, err
	}
	count, err := h.tracker.Disconnect(ctx, room, userID)
	if err != nil {
		return 0, err
	}
	h.broadcast(room, count)
	return count, nil
}

func (h *presenceHandler) Count(ctx context.Context, room string) (int64, error) {
	if err := validateRoom(room); err != nil {
		return 0, err
	}
	return h.tracker.Count(ctx, room)
}

func (h *presenceHandler) broadcast(room string, count int64) {
	if err := h.eventPublisher.Publish(events.PresenceCountEvent{Room: room, Count: count}); err != nil {
		log.WithError(err).WithField("room", room).Error("Failed to publish presence count")
	}
}
