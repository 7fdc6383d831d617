package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sicbo/database"
	"sicbo/models"

	"github.com/jackc/pgx/v5"
)

const roundColumns = `id, started_at, ended_at, status, outcome, settled_at`

// RoundRepository implements the RoundRepository interface
type RoundRepository struct {
	q queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// newRoundRepositoryWithTx creates a new round repository with a transaction
func newRoundRepositoryWithTx(tx queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

func scanRound(row pgx.Row) (*models.Round, error) {
	var round models.Round
	var outcome *string
	err := row.Scan(
		&round.ID,
		&round.StartedAt,
		&round.EndedAt,
		&round.Status,
		&outcome,
		&round.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		parsed, err := models.ParseOutcome(*outcome)
		if err != nil {
			return nil, fmt.Errorf("round %s has a corrupt outcome: %w", round.ID, err)
		}
		round.Outcome = &parsed
	}
	return &round, nil
}

func (r *RoundRepository) getOne(ctx context.Context, query string, args ...any) (*models.Round, error) {
	round, err := scanRound(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return round, err
}

// Create inserts a new open round
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (id, started_at, status)
		VALUES ($1, $2, 'open')
		RETURNING started_at, status
	`
	err := r.q.QueryRow(ctx, query, round.ID, round.StartedAt).Scan(&round.StartedAt, &round.Status)
	if err != nil {
		return fmt.Errorf("failed to create round %s: %w", round.ID, err)
	}
	return nil
}

// GetByID retrieves a round by its ID
func (r *RoundRepository) GetByID(ctx context.Context, id string) (*models.Round, error) {
	round, err := r.getOne(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %s: %w", id, err)
	}
	return round, nil
}

// GetByIDForUpdate retrieves a round and locks the row
func (r *RoundRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Round, error) {
	round, err := r.getOne(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock round %s: %w", id, err)
	}
	return round, nil
}

// GetOpen returns the most recent open round
func (r *RoundRepository) GetOpen(ctx context.Context) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE status = 'open' ORDER BY started_at DESC LIMIT 1`
	round, err := r.getOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get open round: %w", err)
	}
	return round, nil
}

// GetOpenForUpdate returns the open round locked for the transaction
func (r *RoundRepository) GetOpenForUpdate(ctx context.Context) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE status = 'open' ORDER BY started_at DESC LIMIT 1 FOR UPDATE`
	round, err := r.getOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to lock open round: %w", err)
	}
	return round, nil
}

// GetPendingSettlement returns the oldest closed round that has not been settled
func (r *RoundRepository) GetPendingSettlement(ctx context.Context) (*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE status = 'closed' AND settled_at IS NULL
		ORDER BY started_at
		LIMIT 1
	`
	round, err := r.getOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get round pending settlement: %w", err)
	}
	return round, nil
}

// CountByPrefix counts rounds whose ID starts with the given day prefix
func (r *RoundRepository) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM rounds WHERE id LIKE $1 || '%'`, prefix).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rounds for %s: %w", prefix, err)
	}
	return count, nil
}

// Close records the outcome of an open round
func (r *RoundRepository) Close(ctx context.Context, id string, outcome models.Outcome, endedAt time.Time) (bool, error) {
	query := `
		UPDATE rounds
		SET status = 'closed', outcome = $2, ended_at = $3
		WHERE id = $1 AND status = 'open' AND outcome IS NULL
	`
	result, err := r.q.Exec(ctx, query, id, outcome.String(), endedAt)
	if err != nil {
		return false, fmt.Errorf("failed to close round %s: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkSettled stamps settled_at once
func (r *RoundRepository) MarkSettled(ctx context.Context, id string, settledAt time.Time) (bool, error) {
	query := `
		UPDATE rounds
		SET settled_at = $2
		WHERE id = $1 AND status = 'closed' AND settled_at IS NULL
	`
	result, err := r.q.Exec(ctx, query, id, settledAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark round %s settled: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// GetRecentSettled returns the latest settled rounds, newest first
func (r *RoundRepository) GetRecentSettled(ctx context.Context, limit int) ([]*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE settled_at IS NOT NULL
		ORDER BY ended_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent results: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}
	return rounds, nil
}
