package entities

import "time"

// Account is a user's wallet. Balances are in minor units and only the ledger mutates them.
type Account struct {
	UserID           int64     `db:"user_id"`
	Username         string    `db:"username"`
	AvailableBalance int64     `db:"available_balance"`
	BlockedBalance   int64     `db:"blocked_balance"` // Funds reserved by prize locks and stakes
	CompletedEvents  int64     `db:"completed_events"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// TotalBalance returns available plus blocked funds
func (a *Account) TotalBalance() int64 {
	return a.AvailableBalance + a.BlockedBalance
}

// CanAfford reports whether the available balance covers amount
func (a *Account) CanAfford(amount int64) bool {
	return a.AvailableBalance >= amount
}

// ReconciliationReport compares stored balances with the sums of the ledger
type ReconciliationReport struct {
	UserID           int64
	AvailableBalance int64
	BlockedBalance   int64
	LedgerTotal      int64 // SUM(amount)
	LedgerBlocked    int64 // SUM(blocked_delta)
	EntryCount       int64
}

// TotalDrift is the difference between stored total balance and the ledger total
func (r *ReconciliationReport) TotalDrift() int64 {
	return (r.AvailableBalance + r.BlockedBalance) - r.LedgerTotal
}

// BlockedDrift is the difference between stored blocked balance and the ledger's blocked sum
func (r *ReconciliationReport) BlockedDrift() int64 {
	return r.BlockedBalance - r.LedgerBlocked
}

// IsBalanced returns true when the ledger fully explains the stored balances
func (r *ReconciliationReport) IsBalanced() bool {
	return r.TotalDrift() == 0 && r.BlockedDrift() == 0
}
