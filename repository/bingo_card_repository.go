package repository

import (
	"context"
	"fmt"

	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// BingoCardRepository implements interfaces.BingoCardRepository
type BingoCardRepository struct {
	q Queryable
}

// NewBingoCardRepository creates a repository on the connection pool
func NewBingoCardRepository(db *database.DB) *BingoCardRepository {
	return &BingoCardRepository{q: db.Pool}
}

// NewBingoCardRepositoryScoped creates a repository bound to a transaction
func NewBingoCardRepositoryScoped(tx Queryable) interfaces.BingoCardRepository {
	return &BingoCardRepository{q: tx}
}

// Create stores a purchased card
func (r *BingoCardRepository) Create(ctx context.Context, card *entities.BingoCard) error {
	query := `
		INSERT INTO bingo_cards (game_id, user_id, numbers)
		VALUES ($1, $2, $3)
		RETURNING id, purchased_at`

	err := r.q.QueryRow(ctx, query, card.GameID, card.UserID, card.Numbers).Scan(&card.ID, &card.PurchasedAt)
	if err != nil {
		return fmt.Errorf("failed to create bingo card for user %d: %w", card.UserID, err)
	}
	return nil
}

// GetByGame returns every card sold in a game
func (r *BingoCardRepository) GetByGame(ctx context.Context, gameID int64) ([]*entities.BingoCard, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, game_id, user_id, numbers, purchased_at
		FROM bingo_cards
		WHERE game_id = $1
		ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for game %d: %w", gameID, err)
	}
	return collectCards(rows)
}

// GetByGameAndUser returns the cards one user holds in a game
func (r *BingoCardRepository) GetByGameAndUser(ctx context.Context, gameID, userID int64) ([]*entities.BingoCard, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, game_id, user_id, numbers, purchased_at
		FROM bingo_cards
		WHERE game_id = $1 AND user_id = $2
		ORDER BY id`, gameID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards of user %d in game %d: %w", userID, gameID, err)
	}
	return collectCards(rows)
}

func collectCards(rows pgx.Rows) ([]*entities.BingoCard, error) {
	defer rows.Close()

	var cards []*entities.BingoCard
	for rows.Next() {
		var c entities.BingoCard
		if err := rows.Scan(&c.ID, &c.GameID, &c.UserID, &c.Numbers, &c.PurchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bingo card: %w", err)
		}
		cards = append(cards, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bingo cards: %w", err)
	}
	return cards, nil
}
