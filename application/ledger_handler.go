package application

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/domain/entities"

	log "github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

// LedgerHandler exposes account administration. Payment proofs are reviewed
// outside this service; it only records the resulting balance changes.
type LedgerHandler interface {
	OpenAccount(ctx context.Context, userID int64, username string) (*entities.Account, error)
	GetAccount(ctx context.Context, userID int64) (*entities.Account, error)
	AdminCredit(ctx context.Context, userID, amount int64, note string) (*entities.LedgerEntry, error)
	Withdraw(ctx context.Context, userID, amount int64) (*entities.LedgerEntry, error)

	// RefundWithdrawal returns a rejected withdrawal to the user, at most once
	RefundWithdrawal(ctx context.Context, userID, withdrawalID int64) (*entities.LedgerEntry, error)

	Reconcile(ctx context.Context, userID int64) (*entities.ReconciliationReport, error)
	History(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error)
}

type ledgerHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(uowFactory UnitOfWorkFactory) LedgerHandler {
	return &ledgerHandler{uowFactory: uowFactory}
}

func (h *ledgerHandler) OpenAccount(ctx context.Context, userID int64, username string) (*entities.Account, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", entities.ErrInvalidInput)
	}
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.Account, error) {
		return svc.ledger.OpenAccount(ctx, userID, username)
	})
}

func (h *ledgerHandler) GetAccount(ctx context.Context, userID int64) (*entities.Account, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.Account, error) {
		account, err := uow.AccountRepository().GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return nil, fmt.Errorf("%w: account %d", entities.ErrNotFound, userID)
		}
		return account, nil
	})
}

func (h *ledgerHandler) AdminCredit(ctx context.Context, userID, amount int64, note string) (*entities.LedgerEntry, error) {
	if note == "" {
		note = "admin credit"
	}
	entry, err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.LedgerEntry, error) {
		return svc.ledger.Credit(ctx, userID, amount, entities.LedgerKindAdminCredit, entities.LedgerRef{Description: note})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"note":    note,
	}).Info("Admin credit recorded")
	return entry, nil
}

func (h *ledgerHandler) Withdraw(ctx context.Context, userID, amount int64) (*entities.LedgerEntry, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.LedgerEntry, error) {
		return svc.ledger.Debit(ctx, userID, amount, entities.LedgerKindWithdrawal, entities.LedgerRef{Description: "withdrawal requested"})
	})
}

func (h *ledgerHandler) RefundWithdrawal(ctx context.Context, userID, withdrawalID int64) (*entities.LedgerEntry, error) {
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.LedgerEntry, error) {
		// Serializes concurrent refunds of the same user's withdrawals
		account, err := uow.AccountRepository().GetForUpdate(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return nil, fmt.Errorf("%w: account %d", entities.ErrNotFound, userID)
		}

		withdrawal, err := uow.LedgerEntryRepository().GetEntry(ctx, withdrawalID)
		if err != nil {
			return nil, fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if withdrawal == nil || withdrawal.UserID != userID || withdrawal.Kind != entities.LedgerKindWithdrawal {
			return nil, fmt.Errorf("%w: withdrawal %d of user %d", entities.ErrNotFound, withdrawalID, userID)
		}

		refunds, err := uow.LedgerEntryRepository().GetByRelated(ctx, entities.RelatedTypeWithdrawal, withdrawalID)
		if err != nil {
			return nil, fmt.Errorf("failed to check prior refunds: %w", err)
		}
		if len(refunds) > 0 {
			return nil, fmt.Errorf("withdrawal %d: %w", withdrawalID, entities.ErrAlreadySettled)
		}

		relatedType := entities.RelatedTypeWithdrawal
		ref := entities.LedgerRef{
			RelatedID:   &withdrawalID,
			RelatedType: &relatedType,
			Description: "withdrawal refunded",
		}
		return svc.ledger.Credit(ctx, userID, -withdrawal.Amount, entities.LedgerKindWithdrawalRefund, ref)
	})
}

func (h *ledgerHandler) Reconcile(ctx context.Context, userID int64) (*entities.ReconciliationReport, error) {
	report, err := inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) (*entities.ReconciliationReport, error) {
		return svc.ledger.Reconcile(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	if !report.IsBalanced() {
		log.WithFields(log.Fields{
			"user_id":       userID,
			"total_drift":   report.TotalDrift(),
			"blocked_drift": report.BlockedDrift(),
		}).Warn("Ledger drift detected")
	}
	return report, nil
}

func (h *ledgerHandler) History(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}
	return inUnitOfWork(ctx, h.uowFactory, func(uow UnitOfWork, svc *serviceSet) ([]*entities.LedgerEntry, error) {
		entries, err := uow.LedgerEntryRepository().GetByAccount(ctx, userID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to get history: %w", err)
		}
		return entries, nil
	})
}
