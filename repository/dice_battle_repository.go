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

const diceBattleColumns = `id, stake, base_prize, multiplier_bps, state, spin_ends_at,
	winner_id, finished_reason, created_at, updated_at, finished_at`

// DiceBattleRepository implements interfaces.DiceBattleRepository
type DiceBattleRepository struct {
	q Queryable
}

// NewDiceBattleRepository creates a repository on the connection pool
func NewDiceBattleRepository(db *database.DB) *DiceBattleRepository {
	return &DiceBattleRepository{q: db.Pool}
}

// NewDiceBattleRepositoryScoped creates a repository bound to a transaction
func NewDiceBattleRepositoryScoped(tx Queryable) interfaces.DiceBattleRepository {
	return &DiceBattleRepository{q: tx}
}

func scanDiceBattle(row pgx.Row) (*entities.DiceBattle, error) {
	var (
		b      entities.DiceBattle
		reason *string
	)
	err := row.Scan(
		&b.ID,
		&b.Stake,
		&b.BasePrize,
		&b.MultiplierBps,
		&b.State,
		&b.SpinEndsAt,
		&b.WinnerID,
		&reason,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	if reason != nil {
		r := entities.DiceFinishReason(*reason)
		b.FinishedReason = &r
	}
	return &b, nil
}

// Create inserts a battle and seats its players
func (r *DiceBattleRepository) Create(ctx context.Context, battle *entities.DiceBattle) error {
	query := `
		INSERT INTO dice_battles (stake, base_prize, multiplier_bps, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query, battle.Stake, battle.BasePrize, battle.MultiplierBps, battle.State).
		Scan(&battle.ID, &battle.CreatedAt, &battle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dice battle: %w", err)
	}

	for _, p := range battle.Players {
		p.BattleID = battle.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO dice_battle_players (battle_id, user_id, seat, lives, is_eliminated, stake)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.BattleID, p.UserID, p.Seat, p.Lives, p.IsEliminated, p.Stake)
		if err != nil {
			return fmt.Errorf("failed to seat user %d at battle %d: %w", p.UserID, battle.ID, err)
		}
	}
	return nil
}

// GetByID retrieves a battle with its players
func (r *DiceBattleRepository) GetByID(ctx context.Context, id int64) (*entities.DiceBattle, error) {
	return r.get(ctx, `SELECT `+diceBattleColumns+` FROM dice_battles WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a battle with its players and holds the battle row lock
func (r *DiceBattleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.DiceBattle, error) {
	return r.get(ctx, `SELECT `+diceBattleColumns+` FROM dice_battles WHERE id = $1 FOR UPDATE`, id)
}

func (r *DiceBattleRepository) get(ctx context.Context, query string, id int64) (*entities.DiceBattle, error) {
	battle, err := scanDiceBattle(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dice battle %d: %w", id, err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT battle_id, user_id, seat, lives, is_eliminated, stake
		FROM dice_battle_players
		WHERE battle_id = $1
		ORDER BY seat`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get players of battle %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p entities.DicePlayer
		if err := rows.Scan(&p.BattleID, &p.UserID, &p.Seat, &p.Lives, &p.IsEliminated, &p.Stake); err != nil {
			return nil, fmt.Errorf("failed to scan dice player: %w", err)
		}
		battle.Players = append(battle.Players, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dice players: %w", err)
	}
	return battle, nil
}

// Update persists state, spin deadline and result
func (r *DiceBattleRepository) Update(ctx context.Context, battle *entities.DiceBattle) error {
	query := `
		UPDATE dice_battles SET
			state = $2,
			spin_ends_at = $3,
			winner_id = $4,
			finished_reason = $5,
			finished_at = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	var reason *string
	if battle.FinishedReason != nil {
		s := string(*battle.FinishedReason)
		reason = &s
	}

	err := r.q.QueryRow(ctx, query,
		battle.ID,
		battle.State,
		battle.SpinEndsAt,
		battle.WinnerID,
		reason,
		battle.FinishedAt,
	).Scan(&battle.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: dice battle %d", entities.ErrNotFound, battle.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update dice battle %d: %w", battle.ID, err)
	}
	return nil
}

// UpdatePlayer persists a seat's lives and elimination flag
func (r *DiceBattleRepository) UpdatePlayer(ctx context.Context, player *entities.DicePlayer) error {
	_, err := r.q.Exec(ctx, `
		UPDATE dice_battle_players
		SET lives = $3, is_eliminated = $4
		WHERE battle_id = $1 AND user_id = $2`,
		player.BattleID, player.UserID, player.Lives, player.IsEliminated)
	if err != nil {
		return fmt.Errorf("failed to update player %d at battle %d: %w", player.UserID, player.BattleID, err)
	}
	return nil
}

// GetSpinningDue returns spinning battles whose reveal has ended
func (r *DiceBattleRepository) GetSpinningDue(ctx context.Context, now time.Time) ([]int64, error) {
	return r.ids(ctx, `
		SELECT id FROM dice_battles
		WHERE state = $1 AND spin_ends_at <= $2
		ORDER BY id`, entities.DiceBattleStateSpinning, now)
}

// GetStaleIDs returns unfinished battles created before cutoff
func (r *DiceBattleRepository) GetStaleIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	return r.ids(ctx, `
		SELECT id FROM dice_battles
		WHERE state <> $1 AND created_at < $2
		ORDER BY id`, entities.DiceBattleStateFinished, cutoff)
}

func (r *DiceBattleRepository) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query battle ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect battle ids: %w", err)
	}
	return ids, nil
}

// GetLatestRound returns the highest numbered round with its rolls, or nil before the first roll
func (r *DiceBattleRepository) GetLatestRound(ctx context.Context, battleID int64) (*entities.DiceRound, error) {
	var round entities.DiceRound
	err := r.q.QueryRow(ctx, `
		SELECT id, battle_id, round_number, loser_ids, voided, resolved_at, created_at
		FROM dice_rounds
		WHERE battle_id = $1
		ORDER BY round_number DESC
		LIMIT 1`, battleID).Scan(
		&round.ID,
		&round.BattleID,
		&round.RoundNumber,
		&round.LoserIDs,
		&round.Voided,
		&round.ResolvedAt,
		&round.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest round of battle %d: %w", battleID, err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, round_id, user_id, die1, die2, total, created_at
		FROM dice_rolls
		WHERE round_id = $1
		ORDER BY id`, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rolls of round %d: %w", round.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var roll entities.DiceRoll
		if err := rows.Scan(&roll.ID, &roll.RoundID, &roll.UserID, &roll.Die1, &roll.Die2, &roll.Total, &roll.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dice roll: %w", err)
		}
		round.Rolls = append(round.Rolls, &roll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dice rolls: %w", err)
	}
	return &round, nil
}

// CreateRound opens a numbered round. The (battle, round_number) unique
// constraint rejects a duplicate opened by a concurrent roll.
func (r *DiceBattleRepository) CreateRound(ctx context.Context, round *entities.DiceRound) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO dice_rounds (battle_id, round_number)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		round.BattleID, round.RoundNumber).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: round %d of battle %d already exists", entities.ErrConcurrencyConflict, round.RoundNumber, round.BattleID)
		}
		return fmt.Errorf("failed to create round %d of battle %d: %w", round.RoundNumber, round.BattleID, err)
	}
	return nil
}

// RecordRoll stores a roll; one per user per round
func (r *DiceBattleRepository) RecordRoll(ctx context.Context, roll *entities.DiceRoll) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO dice_rolls (round_id, user_id, die1, die2, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		roll.RoundID, roll.UserID, roll.Die1, roll.Die2, roll.Total).Scan(&roll.ID, &roll.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %d in round %d", entities.ErrAlreadyRolled, roll.UserID, roll.RoundID)
		}
		return fmt.Errorf("failed to record roll of user %d: %w", roll.UserID, err)
	}
	return nil
}

// ResolveRound stores the losers of a completed round
func (r *DiceBattleRepository) ResolveRound(ctx context.Context, round *entities.DiceRound) error {
	losers := round.LoserIDs
	if losers == nil {
		losers = []int64{}
	}
	_, err := r.q.Exec(ctx, `
		UPDATE dice_rounds
		SET loser_ids = $2, voided = $3, resolved_at = $4
		WHERE id = $1`,
		round.ID, losers, round.Voided, round.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve round %d: %w", round.ID, err)
	}
	return nil
}
