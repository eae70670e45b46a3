package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arenaplay/arena/domain/entities"
)

// MemoryAccounts is an in-memory AccountRepository and LedgerEntryRepository.
// It lets service tests check real balance arithmetic without a database.
type MemoryAccounts struct {
	mu       sync.Mutex
	accounts map[int64]*entities.Account
	entries  []*entities.LedgerEntry
	nextID   int64
}

// NewMemoryAccounts creates an empty store
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[int64]*entities.Account)}
}

// Seed creates an account with the given available balance and no ledger history
func (m *MemoryAccounts) Seed(userID, available int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[userID] = &entities.Account{UserID: userID, AvailableBalance: available}
}

// Balance returns the current (available, blocked) pair
func (m *MemoryAccounts) Balance(userID int64) (int64, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	if a == nil {
		return 0, 0
	}
	return a.AvailableBalance, a.BlockedBalance
}

// Entries returns a snapshot of recorded entries in insertion order
func (m *MemoryAccounts) Entries() []*entities.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.LedgerEntry(nil), m.entries...)
}

// EntriesOfKind filters recorded entries by user and kind
func (m *MemoryAccounts) EntriesOfKind(userID int64, kind entities.LedgerEntryKind) []*entities.LedgerEntry {
	var out []*entities.LedgerEntry
	for _, e := range m.Entries() {
		if e.UserID == userID && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// TotalMoney sums available and blocked across all accounts
func (m *MemoryAccounts) TotalMoney() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, a := range m.accounts {
		total += a.TotalBalance()
	}
	return total
}

func (m *MemoryAccounts) copyOf(userID int64) *entities.Account {
	a := m.accounts[userID]
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func (m *MemoryAccounts) Create(ctx context.Context, userID int64, username string) (*entities.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[userID] = &entities.Account{UserID: userID, Username: username, CreatedAt: time.Now()}
	return m.copyOf(userID), nil
}

func (m *MemoryAccounts) GetByID(ctx context.Context, userID int64) (*entities.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyOf(userID), nil
}

func (m *MemoryAccounts) GetForUpdate(ctx context.Context, userID int64) (*entities.Account, error) {
	return m.GetByID(ctx, userID)
}

func (m *MemoryAccounts) LockAccounts(ctx context.Context, userIDs []int64) (map[int64]*entities.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]*entities.Account, len(userIDs))
	for _, id := range userIDs {
		if a := m.copyOf(id); a != nil {
			out[id] = a
		}
	}
	return out, nil
}

func (m *MemoryAccounts) UpdateBalances(ctx context.Context, userID int64, available, blocked int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	if a == nil {
		return entities.ErrNotFound
	}
	a.AvailableBalance = available
	a.BlockedBalance = blocked
	return nil
}

func (m *MemoryAccounts) IncrementCompletedEvents(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.accounts[userID]; a != nil {
		a.CompletedEvents++
	}
	return nil
}

func (m *MemoryAccounts) GetAll(ctx context.Context) ([]*entities.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Account
	for id := range m.accounts {
		out = append(out, m.copyOf(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *MemoryAccounts) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = m.nextID
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryAccounts) GetEntry(ctx context.Context, id int64) (*entities.LedgerEntry, error) {
	for _, e := range m.Entries() {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *MemoryAccounts) GetByAccount(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	var out []*entities.LedgerEntry
	entries := m.Entries()
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		if entries[i].UserID == userID {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

func (m *MemoryAccounts) GetByRelated(ctx context.Context, relatedType entities.RelatedType, relatedID int64) ([]*entities.LedgerEntry, error) {
	var out []*entities.LedgerEntry
	for _, e := range m.Entries() {
		if e.RelatedType != nil && *e.RelatedType == relatedType && e.RelatedID != nil && *e.RelatedID == relatedID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryAccounts) SumByAccount(ctx context.Context, userID int64) (*entities.LedgerSums, error) {
	sums := &entities.LedgerSums{}
	for _, e := range m.Entries() {
		if e.UserID != userID {
			continue
		}
		sums.Total += e.Amount
		sums.Blocked += e.BlockedDelta
		sums.EntryCount++
	}
	return sums, nil
}
