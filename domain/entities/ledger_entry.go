package entities

import "time"

// LedgerEntryKind classifies a ledger entry
type LedgerEntryKind string

const (
	LedgerKindEntryFee           LedgerEntryKind = "entry_fee"
	LedgerKindPurchase           LedgerEntryKind = "purchase"
	LedgerKindAdminCredit        LedgerEntryKind = "admin_credit"
	LedgerKindPrize              LedgerEntryKind = "prize"
	LedgerKindPrizeLock          LedgerEntryKind = "prize_lock"
	LedgerKindPrizeUnlock        LedgerEntryKind = "prize_unlock"
	LedgerKindStakeLock          LedgerEntryKind = "stake_lock"
	LedgerKindOrganizerRevenue   LedgerEntryKind = "organizer_revenue"
	LedgerKindPlatformCommission LedgerEntryKind = "platform_commission"
	LedgerKindWithdrawal         LedgerEntryKind = "withdrawal"
	LedgerKindWithdrawalRefund   LedgerEntryKind = "withdrawal_refund"
	LedgerKindRefund             LedgerEntryKind = "refund"
)

// RelatedType names the kind of object a ledger entry refers to
type RelatedType string

const (
	RelatedTypeBingoGame  RelatedType = "bingo_game"
	RelatedTypeDiceBattle RelatedType = "dice_battle"
	RelatedTypeWithdrawal RelatedType = "withdrawal"
)

// LedgerEntry is an immutable record of one balance mutation.
// Amount is the signed change to available+blocked, BlockedDelta the signed
// change to blocked. Lock and unlock entries carry Amount = 0.
type LedgerEntry struct {
	ID             int64                  `db:"id"`
	UserID         int64                  `db:"user_id"`
	Amount         int64                  `db:"amount"`
	BlockedDelta   int64                  `db:"blocked_delta"`
	Kind           LedgerEntryKind        `db:"kind"`
	AvailableAfter int64                  `db:"available_after"`
	BlockedAfter   int64                  `db:"blocked_after"`
	RelatedID      *int64                 `db:"related_id"`
	RelatedType    *RelatedType           `db:"related_type"`
	Description    string                 `db:"description"`
	Metadata       map[string]interface{} `db:"metadata"`
	CreatedAt      time.Time              `db:"created_at"`
}

// AvailableDelta is the change the entry made to the available balance
func (e *LedgerEntry) AvailableDelta() int64 {
	return e.Amount - e.BlockedDelta
}

// AvailableBefore is the available balance before the entry was applied
func (e *LedgerEntry) AvailableBefore() int64 {
	return e.AvailableAfter - e.AvailableDelta()
}

// LedgerRef ties a ledger mutation to the object that caused it
type LedgerRef struct {
	RelatedID   *int64
	RelatedType *RelatedType
	Description string
	Metadata    map[string]interface{}
}

// RefBingoGame builds a reference to a bingo game
func RefBingoGame(gameID int64, description string) LedgerRef {
	t := RelatedTypeBingoGame
	return LedgerRef{RelatedID: &gameID, RelatedType: &t, Description: description}
}

// RefDiceBattle builds a reference to a dice battle
func RefDiceBattle(battleID int64, description string) LedgerRef {
	t := RelatedTypeDiceBattle
	return LedgerRef{RelatedID: &battleID, RelatedType: &t, Description: description}
}

// WithMetadata returns a copy of the reference carrying metadata
func (r LedgerRef) WithMetadata(metadata map[string]interface{}) LedgerRef {
	r.Metadata = metadata
	return r
}

// LedgerSums aggregates an account's ledger
type LedgerSums struct {
	Total      int64
	Blocked    int64
	EntryCount int64
}
