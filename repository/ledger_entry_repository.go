package repository

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, user_id, amount, blocked_delta, kind, available_after, blocked_after,
	related_id, related_type, description, metadata, created_at`

// LedgerEntryRepository implements interfaces.LedgerEntryRepository
type LedgerEntryRepository struct {
	q Queryable
}

// NewLedgerEntryRepository creates a repository on the connection pool
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// NewLedgerEntryRepositoryScoped creates a repository bound to a transaction
func NewLedgerEntryRepositoryScoped(tx Queryable) interfaces.LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record appends an entry and fills in its ID and timestamp
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			user_id, amount, blocked_delta, kind, available_after, blocked_after,
			related_id, related_type, description, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.Amount,
		entry.BlockedDelta,
		entry.Kind,
		entry.AvailableAfter,
		entry.BlockedAfter,
		entry.RelatedID,
		entry.RelatedType,
		entry.Description,
		metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry for %d: %w", entry.UserID, err)
	}
	return nil
}

// GetEntry returns one entry by ID, or nil when it does not exist
func (r *LedgerEntryRepository) GetEntry(ctx context.Context, id int64) (*entities.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`

	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %d: %w", id, err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// GetByAccount returns the most recent entries for an account, newest first
func (r *LedgerEntryRepository) GetByAccount(ctx context.Context, userID int64, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for %d: %w", userID, err)
	}
	return collectLedgerEntries(rows)
}

// GetByRelated returns every entry that refers to an object, oldest first
func (r *LedgerEntryRepository) GetByRelated(ctx context.Context, relatedType entities.RelatedType, relatedID int64) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE related_type = $1 AND related_id = $2
		ORDER BY id`

	rows, err := r.q.Query(ctx, query, relatedType, relatedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for %s %d: %w", relatedType, relatedID, err)
	}
	return collectLedgerEntries(rows)
}

// SumByAccount aggregates an account's entries for reconciliation
func (r *LedgerEntryRepository) SumByAccount(ctx context.Context, userID int64) (*entities.LedgerSums, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(blocked_delta), 0), COUNT(*)
		FROM ledger_entries
		WHERE user_id = $1`

	var sums entities.LedgerSums
	if err := r.q.QueryRow(ctx, query, userID).Scan(&sums.Total, &sums.Blocked, &sums.EntryCount); err != nil {
		return nil, fmt.Errorf("failed to sum ledger for %d: %w", userID, err)
	}
	return &sums, nil
}

func collectLedgerEntries(rows pgx.Rows) ([]*entities.LedgerEntry, error) {
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var e entities.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Amount,
			&e.BlockedDelta,
			&e.Kind,
			&e.AvailableAfter,
			&e.BlockedAfter,
			&e.RelatedID,
			&e.RelatedType,
			&e.Description,
			&e.Metadata,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}
