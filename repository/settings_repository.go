package repository

import (
	"context"
	"errors"
	"fmt"

	"sicbo/database"
	"sicbo/models"

	"github.com/jackc/pgx/v5"
)

const settingsColumns = `min_stake, max_stake, max_size_parity_bets, max_sum_bets, max_triple_bets,
	odds_size_parity, odds_sum, odds_triple, betting_enabled, allow_irrelevant, updated_at`

// SettingsRepository implements the SettingsRepository interface over the single game_settings row
type SettingsRepository struct {
	q queryable
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{q: db.Pool}
}

// newSettingsRepositoryWithTx creates a new settings repository with a transaction
func newSettingsRepositoryWithTx(tx queryable) *SettingsRepository {
	return &SettingsRepository{q: tx}
}

func (r *SettingsRepository) get(ctx context.Context, query string) (*models.GameSettings, error) {
	var s models.GameSettings
	err := r.q.QueryRow(ctx, query).Scan(
		&s.MinStake,
		&s.MaxStake,
		&s.MaxSizeParityBets,
		&s.MaxSumBets,
		&s.MaxTripleBets,
		&s.OddsSizeParity,
		&s.OddsSum,
		&s.OddsTriple,
		&s.BettingEnabled,
		&s.AllowIrrelevant,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns the stored settings
func (r *SettingsRepository) Get(ctx context.Context) (*models.GameSettings, error) {
	s, err := r.get(ctx, `SELECT `+settingsColumns+` FROM game_settings WHERE id = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get game settings: %w", err)
	}
	return s, nil
}

// GetForUpdate returns the stored settings locked for the transaction
func (r *SettingsRepository) GetForUpdate(ctx context.Context) (*models.GameSettings, error) {
	s, err := r.get(ctx, `SELECT `+settingsColumns+` FROM game_settings WHERE id = 1 FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("failed to lock game settings: %w", err)
	}
	return s, nil
}

// EnsureDefaults inserts the defaults when no settings exist
func (r *SettingsRepository) EnsureDefaults(ctx context.Context, defaults *models.GameSettings) (*models.GameSettings, error) {
	query := `
		INSERT INTO game_settings (id, min_stake, max_stake, max_size_parity_bets, max_sum_bets, max_triple_bets,
			odds_size_parity, odds_sum, odds_triple, betting_enabled, allow_irrelevant)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		defaults.MinStake,
		defaults.MaxStake,
		defaults.MaxSizeParityBets,
		defaults.MaxSumBets,
		defaults.MaxTripleBets,
		defaults.OddsSizeParity,
		defaults.OddsSum,
		defaults.OddsTriple,
		defaults.BettingEnabled,
		defaults.AllowIrrelevant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed game settings: %w", err)
	}
	return r.Get(ctx)
}

// Update overwrites the stored settings
func (r *SettingsRepository) Update(ctx context.Context, s *models.GameSettings) error {
	query := `
		UPDATE game_settings
		SET min_stake = $1, max_stake = $2, max_size_parity_bets = $3, max_sum_bets = $4,
			max_triple_bets = $5, odds_size_parity = $6, odds_sum = $7, odds_triple = $8,
			betting_enabled = $9, allow_irrelevant = $10, updated_at = NOW()
		WHERE id = 1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		s.MinStake,
		s.MaxStake,
		s.MaxSizeParityBets,
		s.MaxSumBets,
		s.MaxTripleBets,
		s.OddsSizeParity,
		s.OddsSum,
		s.OddsTriple,
		s.BettingEnabled,
		s.AllowIrrelevant,
	).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("game settings have not been seeded")
	}
	if err != nil {
		return fmt.Errorf("failed to update game settings: %w", err)
	}
	return nil
}
