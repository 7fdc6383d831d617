package repository

import (
	"context"
	"fmt"
	"time"

	"sicbo/database"
	"sicbo/models"

	"github.com/jackc/pgx/v5"
)

const betColumns = `id, discord_id, round_id, category, value, stake, status, result, payout, placed_at, settled_at`

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBetInto(row pgx.Row, bet *models.Bet, extra ...any) error {
	dest := []any{
		&bet.ID,
		&bet.DiscordID,
		&bet.RoundID,
		&bet.Category,
		&bet.Value,
		&bet.Stake,
		&bet.Status,
		&bet.Result,
		&bet.Payout,
		&bet.PlacedAt,
		&bet.SettledAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *BetRepository) list(ctx context.Context, query string, args ...any) ([]*models.Bet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		if err := scanBetInto(rows, &bet); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// Create creates a new active bet
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (discord_id, round_id, category, value, stake, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING id, status, payout, placed_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.DiscordID,
		bet.RoundID,
		bet.Category,
		bet.Value,
		bet.Stake,
	).Scan(&bet.ID, &bet.Status, &bet.Payout, &bet.PlacedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet for user %d: %w", bet.DiscordID, err)
	}

	return nil
}

// GetActiveByRound returns every active bet of a round in placement order
func (r *BetRepository) GetActiveByRound(ctx context.Context, roundID string) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE round_id = $1 AND status = 'active' ORDER BY id`
	bets, err := r.list(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bets for round %s: %w", roundID, err)
	}
	return bets, nil
}

// GetActiveByRoundAndUser returns a user's active bets in a round in placement order
func (r *BetRepository) GetActiveByRoundAndUser(ctx context.Context, roundID string, discordID int64) ([]*models.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE round_id = $1 AND discord_id = $2 AND status = 'active'
		ORDER BY id
	`
	bets, err := r.list(ctx, query, roundID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bets for user %d in round %s: %w", discordID, roundID, err)
	}
	return bets, nil
}

// Cancel marks the given active, unsettled bets cancelled
func (r *BetRepository) Cancel(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE bets
		SET status = 'cancelled'
		WHERE id = ANY($1) AND status = 'active' AND result IS NULL
	`
	result, err := r.q.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel bets: %w", err)
	}
	return result.RowsAffected(), nil
}

// SetResult writes a bet's result and payout once
func (r *BetRepository) SetResult(ctx context.Context, id int64, result models.BetResult, payout int64, settledAt time.Time) error {
	query := `
		UPDATE bets
		SET result = $2, payout = $3, settled_at = $4
		WHERE id = $1 AND status = 'active' AND result IS NULL
	`
	tag, err := r.q.Exec(ctx, query, id, result, payout, settledAt)
	if err != nil {
		return fmt.Errorf("failed to set result for bet %d: %w", id, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("bet %d was already settled or is not active", id)
	}
	return nil
}

// GetByUserSince returns a user's bets placed since a time, newest first
func (r *BetRepository) GetByUserSince(ctx context.Context, discordID int64, since time.Time) ([]*models.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE discord_id = $1 AND placed_at >= $2
		ORDER BY id DESC
	`
	bets, err := r.list(ctx, query, discordID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %d: %w", discordID, err)
	}
	return bets, nil
}

// GetAllSince returns every bet placed since a time with the owner's username, newest first
func (r *BetRepository) GetAllSince(ctx context.Context, since time.Time) ([]*models.BetWithUser, error) {
	query := `
		SELECT b.id, b.discord_id, b.round_id, b.category, b.value, b.stake, b.status,
		       b.result, b.payout, b.placed_at, b.settled_at, u.username
		FROM bets b
		JOIN users u ON u.discord_id = b.discord_id
		WHERE b.placed_at >= $1
		ORDER BY b.id DESC
	`
	rows, err := r.q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var bets []*models.BetWithUser
	for rows.Next() {
		var bet models.BetWithUser
		if err := scanBetInto(rows, &bet.Bet, &bet.Username); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}
