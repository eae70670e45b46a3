package dto

import (
	"time"

	"github.com/arenaplay/arena/domain/entities"
)

// AccountDTO is a user's wallet as shown to collaborators
type AccountDTO struct {
	UserID           int64  `json:"user_id"`
	Username         string `json:"username"`
	AvailableBalance int64  `json:"available_balance"`
	BlockedBalance   int64  `json:"blocked_balance"`
	CompletedEvents  int64  `json:"completed_events"`
}

// NewAccountDTO builds the account response
func NewAccountDTO(a *entities.Account) AccountDTO {
	return AccountDTO{
		UserID:           a.UserID,
		Username:         a.Username,
		AvailableBalance: a.AvailableBalance,
		BlockedBalance:   a.BlockedBalance,
		CompletedEvents:  a.CompletedEvents,
	}
}

// LedgerEntryDTO is one line of an account's history
type LedgerEntryDTO struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	Amount         int64     `json:"amount"`
	BlockedDelta   int64     `json:"blocked_delta"`
	AvailableAfter int64     `json:"available_after"`
	BlockedAfter   int64     `json:"blocked_after"`
	RelatedType    *string   `json:"related_type,omitempty"`
	RelatedID      *int64    `json:"related_id,omitempty"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewLedgerEntryDTO builds one history line
func NewLedgerEntryDTO(e *entities.LedgerEntry) LedgerEntryDTO {
	item := LedgerEntryDTO{
		ID:             e.ID,
		Kind:           string(e.Kind),
		Amount:         e.Amount,
		BlockedDelta:   e.BlockedDelta,
		AvailableAfter: e.AvailableAfter,
		BlockedAfter:   e.BlockedAfter,
		RelatedID:      e.RelatedID,
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
	}
	if e.RelatedType != nil {
		t := string(*e.RelatedType)
		item.RelatedType = &t
	}
	return item
}

// NewLedgerEntryDTOs builds the history response
func NewLedgerEntryDTOs(entries []*entities.LedgerEntry) []LedgerEntryDTO {
	out := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewLedgerEntryDTO(e))
	}
	return out
}

// ReconciliationDTO reports ledger drift for an account
type ReconciliationDTO struct {
	UserID           int64 `json:"user_id"`
	AvailableBalance int64 `json:"available_balance"`
	BlockedBalance   int64 `json:"blocked_balance"`
	LedgerTotal      int64 `json:"ledger_total"`
	LedgerBlocked    int64 `json:"ledger_blocked"`
	EntryCount       int64 `json:"entry_count"`
	TotalDrift       int64 `json:"total_drift"`
	BlockedDrift     int64 `json:"blocked_drift"`
	Balanced         bool  `json:"balanced"`
}

// NewReconciliationDTO builds the reconciliation response
func NewReconciliationDTO(r *entities.ReconciliationReport) ReconciliationDTO {
	return ReconciliationDTO{
		UserID:           r.UserID,
		AvailableBalance: r.AvailableBalance,
		BlockedBalance:   r.BlockedBalance,
		LedgerTotal:      r.LedgerTotal,
		LedgerBlocked:    r.LedgerBlocked,
		EntryCount:       r.EntryCount,
		TotalDrift:       r.TotalDrift(),
		BlockedDrift:     r.BlockedDrift(),
		Balanced:         r.IsBalanced(),
	}
}
