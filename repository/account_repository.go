package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `user_id, username, available_balance, blocked_balance, completed_events, created_at, updated_at`

// AccountRepository implements interfaces.AccountRepository
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a repository on the connection pool
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// NewAccountRepositoryScoped creates a repository bound to a transaction
func NewAccountRepositoryScoped(tx Queryable) interfaces.AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var a entities.Account
	err := row.Scan(
		&a.UserID,
		&a.Username,
		&a.AvailableBalance,
		&a.BlockedBalance,
		&a.CompletedEvents,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create opens an account with zero balances
func (r *AccountRepository) Create(ctx context.Context, userID int64, username string) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (user_id, username)
		VALUES ($1, $2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID, username))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %d", entities.ErrAccountExists, userID)
		}
		return nil, fmt.Errorf("failed to create account %d: %w", userID, err)
	}
	return account, nil
}

// GetByID retrieves an account without locking it
func (r *AccountRepository) GetByID(ctx context.Context, userID int64) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	return account, nil
}

// GetForUpdate retrieves an account and holds its row lock until the transaction ends
func (r *AccountRepository) GetForUpdate(ctx context.Context, userID int64) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", userID, err)
	}
	return account, nil
}

// LockAccounts row-locks the given accounts in ascending user ID order.
// Missing accounts are absent from the returned map.
func (r *AccountRepository) LockAccounts(ctx context.Context, userIDs []int64) (map[int64]*entities.Account, error) {
	ids := entities.UniqueSorted(userIDs)
	if len(ids) == 0 {
		return map[int64]*entities.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = ANY($1)
		ORDER BY user_id
		FOR UPDATE`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[int64]*entities.Account, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.UserID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// UpdateBalances writes both balances of an account
func (r *AccountRepository) UpdateBalances(ctx context.Context, userID int64, available, blocked int64) error {
	query := `
		UPDATE accounts
		SET available_balance = $2, blocked_balance = $3, updated_at = NOW()
		WHERE user_id = $1`

	tag, err := r.q.Exec(ctx, query, userID, available, blocked)
	if err != nil {
		return fmt.Errorf("failed to update balances for %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d", entities.ErrNotFound, userID)
	}
	return nil
}

// IncrementCompletedEvents bumps the organizer's finished event counter
func (r *AccountRepository) IncrementCompletedEvents(ctx context.Context, userID int64) error {
	query := `
		UPDATE accounts
		SET completed_events = completed_events + 1, updated_at = NOW()
		WHERE user_id = $1`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to increment completed events for %d: %w", userID, err)
	}
	return nil
}

// GetAll returns every account ordered by user ID
func (r *AccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY user_id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
