package utils

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/events"
	"github.com/arenaplay/arena/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerEntry appends a ledger entry and emits the matching balance change event.
// This is the single entry point for all balance changes in the system.
func RecordLedgerEntry(ctx context.Context, ledgerRepo interfaces.LedgerEntryRepository, eventPublisher interfaces.EventPublisher, entry *entities.LedgerEntry) error {
	if entry.Metadata == nil {
		entry.Metadata = map[string]interface{}{}
	}
	if err := ledgerRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserID:        entry.UserID,
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		BlockedDelta:  entry.BlockedDelta,
		OldAvailable:  entry.AvailableBefore(),
		NewAvailable:  entry.AvailableAfter,
		NewBlocked:    entry.BlockedAfter,
		LedgerEntryID: entry.ID,
		RelatedID:     entry.RelatedID,
		RelatedType:   entry.RelatedType,
	}
	log.WithFields(log.Fields{
		"userID":       event.UserID,
		"kind":         event.Kind,
		"amount":       event.Amount,
		"blockedDelta": event.BlockedDelta,
		"newAvailable": event.NewAvailable,
		"newBlocked":   event.NewBlocked,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
