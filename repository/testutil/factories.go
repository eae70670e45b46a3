package testutil

import (
	"context"
	"testing"

	"github.com/arenaplay/arena/database"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// SeedAccount opens an account with the given available balance. The opening
// balance is recorded as an admin credit so the ledger reconciles.
func SeedAccount(t *testing.T, db *database.DB, userID, available int64) {
	t.Helper()
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO accounts (user_id, username, available_balance) VALUES ($1, $2, $3)`,
			userID, "user", available,
		); err != nil {
			return err
		}
		if available == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_entries (user_id, amount, kind, available_after, blocked_after, description)
			VALUES ($1, $2, 'admin_credit', $2, 0, 'seed')`,
			userID, available,
		)
		return err
	})
	require.NoError(t, err)
}

// SeedTicket queues a waiting ticket and returns its ID
func SeedTicket(t *testing.T, db *database.DB, userID, stake int64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO matchmaking_tickets (user_id, stake) VALUES ($1, $2) RETURNING id`,
		userID, stake,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
