package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"
	"github.com/arenaplay/arena/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const bingoGameColumns = `id, organizer_id, rule_set, pattern, state, price_per_unit, base_prize,
	held_balance, organizer_locked, units_sold, peak_units_sold, drawn_numbers,
	auto_draw_enabled, draw_interval_ms, commission_rate_bps, winner_ids,
	started_at, finished_at, created_at, updated_at`

// BingoGameRepository implements interfaces.BingoGameRepository
type BingoGameRepository struct {
	q Queryable
}

// NewBingoGameRepository creates a repository on the connection pool
func NewBingoGameRepository(db *database.DB) *BingoGameRepository {
	return &BingoGameRepository{q: db.Pool}
}

// NewBingoGameRepositoryScoped creates a repository bound to a transaction
func NewBingoGameRepositoryScoped(tx Queryable) interfaces.BingoGameRepository {
	return &BingoGameRepository{q: tx}
}

func scanBingoGame(row pgx.Row) (*entities.BingoGame, error) {
	var (
		g          entities.BingoGame
		ruleSet    int
		intervalMs int64
	)
	err := row.Scan(
		&g.ID,
		&g.OrganizerID,
		&ruleSet,
		&g.Pattern,
		&g.State,
		&g.PricePerUnit,
		&g.BasePrize,
		&g.HeldBalance,
		&g.OrganizerLocked,
		&g.UnitsSold,
		&g.PeakUnitsSold,
		&g.DrawnNumbers,
		&g.AutoDrawEnabled,
		&intervalMs,
		&g.CommissionRateBps,
		&g.WinnerIDs,
		&g.StartedAt,
		&g.FinishedAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.RuleSet = entities.BingoRuleSet(ruleSet)
	g.DrawInterval = time.Duration(intervalMs) * time.Millisecond
	return &g, nil
}

// Create inserts a game and its prize tiers
func (r *BingoGameRepository) Create(ctx context.Context, game *entities.BingoGame) error {
	query := `
		INSERT INTO bingo_games (
			organizer_id, rule_set, pattern, state, price_per_unit, base_prize,
			auto_draw_enabled, draw_interval_ms, commission_rate_bps
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		game.OrganizerID,
		int(game.RuleSet),
		game.Pattern,
		game.State,
		game.PricePerUnit,
		game.BasePrize,
		game.AutoDrawEnabled,
		game.DrawInterval.Milliseconds(),
		game.CommissionRateBps,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bingo game: %w", err)
	}

	for _, tier := range game.Tiers {
		_, err := r.q.Exec(ctx,
			`INSERT INTO bingo_prize_tiers (game_id, threshold, bonus) VALUES ($1, $2, $3)`,
			game.ID, tier.Threshold, tier.Bonus)
		if err != nil {
			return fmt.Errorf("failed to create prize tier %d for game %d: %w", tier.Threshold, game.ID, err)
		}
	}
	return nil
}

// GetByID retrieves a game and its tiers
func (r *BingoGameRepository) GetByID(ctx context.Context, id int64) (*entities.BingoGame, error) {
	return r.get(ctx, `SELECT `+bingoGameColumns+` FROM bingo_games WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a game and holds its row lock until the transaction ends
func (r *BingoGameRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.BingoGame, error) {
	return r.get(ctx, `SELECT `+bingoGameColumns+` FROM bingo_games WHERE id = $1 FOR UPDATE`, id)
}

func (r *BingoGameRepository) get(ctx context.Context, query string, id int64) (*entities.BingoGame, error) {
	game, err := scanBingoGame(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bingo game %d: %w", id, err)
	}

	tiers, err := r.getTiers(ctx, id)
	if err != nil {
		return nil, err
	}
	game.Tiers = tiers
	return game, nil
}

func (r *BingoGameRepository) getTiers(ctx context.Context, gameID int64) ([]entities.PrizeTier, error) {
	rows, err := r.q.Query(ctx,
		`SELECT threshold, bonus FROM bingo_prize_tiers WHERE game_id = $1 ORDER BY threshold`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prize tiers for game %d: %w", gameID, err)
	}
	defer rows.Close()

	var tiers []entities.PrizeTier
	for rows.Next() {
		var tier entities.PrizeTier
		if err := rows.Scan(&tier.Threshold, &tier.Bonus); err != nil {
			return nil, fmt.Errorf("failed to scan prize tier: %w", err)
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

// Update persists the mutable game and escrow fields
func (r *BingoGameRepository) Update(ctx context.Context, game *entities.BingoGame) error {
	query := `
		UPDATE bingo_games SET
			state = $2,
			held_balance = $3,
			organizer_locked = $4,
			units_sold = $5,
			peak_units_sold = $6,
			drawn_numbers = $7,
			auto_draw_enabled = $8,
			winner_ids = $9,
			started_at = $10,
			finished_at = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	drawn := game.DrawnNumbers
	if drawn == nil {
		drawn = []int64{}
	}
	winners := game.WinnerIDs
	if winners == nil {
		winners = []int64{}
	}

	err := r.q.QueryRow(ctx, query,
		game.ID,
		game.State,
		game.HeldBalance,
		game.OrganizerLocked,
		game.UnitsSold,
		game.PeakUnitsSold,
		drawn,
		game.AutoDrawEnabled,
		winners,
		game.StartedAt,
		game.FinishedAt,
	).Scan(&game.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: bingo game %d", entities.ErrNotFound, game.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update bingo game %d: %w", game.ID, err)
	}
	return nil
}

// GetAutoDrawGames returns started games with auto-draw enabled
func (r *BingoGameRepository) GetAutoDrawGames(ctx context.Context) ([]*entities.BingoGame, error) {
	query := `
		SELECT ` + bingoGameColumns + `
		FROM bingo_games
		WHERE state = $1 AND auto_draw_enabled = TRUE
		ORDER BY id`

	rows, err := r.q.Query(ctx, query, entities.BingoGameStateStarted)
	if err != nil {
		return nil, fmt.Errorf("failed to get auto-draw games: %w", err)
	}
	defer rows.Close()

	var games []*entities.BingoGame
	for rows.Next() {
		game, err := scanBingoGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bingo game: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}
