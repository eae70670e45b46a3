package services

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"
	"github.com/arenaplay/arena/domain/utils"

	log "github.com/sirupsen/logrus"
)

// ledgerService implements the ledger on top of locking account reads
type ledgerService struct {
	accountRepo    interfaces.AccountRepository
	ledgerRepo     interfaces.LedgerEntryRepository
	eventPublisher interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	accountRepo interfaces.AccountRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// balanceDelta is the change a mutation applies to an account
type balanceDelta struct {
	available int64
	blocked   int64
}

// OpenAccount creates an empty account for a user
func (s *ledgerService) OpenAccount(ctx context.Context, userID int64, username string) (*entities.Account, error) {
	existing, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user %d", entities.ErrAccountExists, userID)
	}

	account, err := s.accountRepo.Create(ctx, userID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// Credit adds new funds to the available balance
func (s *ledgerService) Credit(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit of %d", entities.ErrInvalidAmount, amount)
	}
	return s.apply(ctx, userID, kind, ref, func(*entities.Account) (balanceDelta, error) {
		return balanceDelta{available: amount}, nil
	})
}

// Debit removes funds from the available balance
func (s *ledgerService) Debit(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit of %d", entities.ErrInvalidAmount, amount)
	}
	return s.apply(ctx, userID, kind, ref, func(account *entities.Account) (balanceDelta, error) {
		if !account.CanAfford(amount) {
			return balanceDelta{}, fmt.Errorf("%w: user %d has %d available, needs %d",
				entities.ErrInsufficientFunds, userID, account.AvailableBalance, amount)
		}
		return balanceDelta{available: -amount}, nil
	})
}

// Lock reserves available funds
func (s *ledgerService) Lock(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: lock of %d", entities.ErrInvalidAmount, amount)
	}
	return s.apply(ctx, userID, kind, ref, func(account *entities.Account) (balanceDelta, error) {
		if !account.CanAfford(amount) {
			return balanceDelta{}, fmt.Errorf("%w: user %d has %d available, cannot lock %d",
				entities.ErrInsufficientFunds, userID, account.AvailableBalance, amount)
		}
		return balanceDelta{available: -amount, blocked: amount}, nil
	})
}

// Unlock releases reserved funds, clamped to what is actually blocked
func (s *ledgerService) Unlock(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: unlock of %d", entities.ErrInvalidAmount, amount)
	}
	return s.apply(ctx, userID, kind, ref, func(account *entities.Account) (balanceDelta, error) {
		released := min(amount, account.BlockedBalance)
		if released < amount {
			log.WithFields(log.Fields{
				"userID":    userID,
				"requested": amount,
				"blocked":   account.BlockedBalance,
				"kind":      kind,
			}).Warn("Unlock clamped to blocked balance")
		}
		return balanceDelta{available: released, blocked: -released}, nil
	})
}

// DebitLocked consumes reserved funds, clamped to what is actually blocked
func (s *ledgerService) DebitLocked(ctx context.Context, userID, amount int64, kind entities.LedgerEntryKind, ref entities.LedgerRef) (*entities.LedgerEntry, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: locked debit of %d", entities.ErrInvalidAmount, amount)
	}
	return s.apply(ctx, userID, kind, ref, func(account *entities.Account) (balanceDelta, error) {
		consumed := min(amount, account.BlockedBalance)
		if consumed < amount {
			log.WithFields(log.Fields{
				"userID":    userID,
				"requested": amount,
				"blocked":   account.BlockedBalance,
			}).Warn("Locked debit clamped to blocked balance")
		}
		return balanceDelta{blocked: -consumed}, nil
	})
}

// apply re-reads the account under a row lock, applies the change and records one ledger entry.
// A change of zero on both balances records nothing and returns a nil entry.
func (s *ledgerService) apply(
	ctx context.Context,
	userID int64,
	kind entities.LedgerEntryKind,
	ref entities.LedgerRef,
	change func(*entities.Account) (balanceDelta, error),
) (*entities.LedgerEntry, error) {
	account, err := s.accountRepo.GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", userID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %d", entities.ErrNotFound, userID)
	}

	delta, err := change(account)
	if err != nil {
		return nil, err
	}
	if delta.available == 0 && delta.blocked == 0 {
		return nil, nil
	}

	newAvailable := account.AvailableBalance + delta.available
	newBlocked := account.BlockedBalance + delta.blocked
	if newAvailable < 0 || newBlocked < 0 {
		return nil, fmt.Errorf("%w: user %d would reach available=%d blocked=%d",
			entities.ErrInsufficientFunds, userID, newAvailable, newBlocked)
	}

	if err := s.accountRepo.UpdateBalances(ctx, userID, newAvailable, newBlocked); err != nil {
		return nil, fmt.Errorf("failed to update balances for %d: %w", userID, err)
	}

	entry := &entities.LedgerEntry{
		UserID:         userID,
		Amount:         delta.available + delta.blocked,
		BlockedDelta:   delta.blocked,
		Kind:           kind,
		AvailableAfter: newAvailable,
		BlockedAfter:   newBlocked,
		RelatedID:      ref.RelatedID,
		RelatedType:    ref.RelatedType,
		Description:    ref.Description,
		Metadata:       ref.Metadata,
	}
	if err := utils.RecordLedgerEntry(ctx, s.ledgerRepo, s.eventPublisher, entry); err != nil {
		return nil, err
	}

	account.AvailableBalance = newAvailable
	account.BlockedBalance = newBlocked
	return entry, nil
}

// Reconcile compares an account's stored balances with the sums of its ledger
func (s *ledgerService) Reconcile(ctx context.Context, userID int64) (*entities.ReconciliationReport, error) {
	account, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %d", entities.ErrNotFound, userID)
	}

	sums, err := s.ledgerRepo.SumByAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}

	report := &entities.ReconciliationReport{
		UserID:           userID,
		AvailableBalance: account.AvailableBalance,
		BlockedBalance:   account.BlockedBalance,
		LedgerTotal:      sums.Total,
		LedgerBlocked:    sums.Blocked,
		EntryCount:       sums.EntryCount,
	}
	if !report.IsBalanced() {
		log.WithFields(log.Fields{
			"userID":       userID,
			"totalDrift":   report.TotalDrift(),
			"blockedDrift": report.BlockedDrift(),
		}).Warn("Ledger drift detected")
	}
	return report, nil
}
