package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sicbo/database"
	"sicbo/models"
)

// BalanceHistoryRepository implements the BalanceHistoryRepository interface
type BalanceHistoryRepository struct {
	q queryable
}

// NewBalanceHistoryRepository creates a new balance history repository
func NewBalanceHistoryRepository(db *database.DB) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: db.Pool}
}

// newBalanceHistoryRepositoryWithTx creates a new balance history repository with a transaction
func newBalanceHistoryRepositoryWithTx(tx queryable) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: tx}
}

// Record creates a new balance history entry
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	metadata := history.TransactionMetadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO balance_history
		(discord_id, actor_id, balance_before, balance_after, change_amount, transaction_type, transaction_metadata, related_id, related_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		history.DiscordID,
		history.ActorID,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		history.TransactionType,
		metadataJSON,
		history.RelatedID,
		history.RelatedType,
	).Scan(&history.ID, &history.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record balance history for user %d: %w", history.DiscordID, err)
	}

	return nil
}

// GetByUser returns the most recent balance history for a user
func (r *BalanceHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	query := `
		SELECT id, discord_id, actor_id, balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, related_id, related_type, created_at
		FROM balance_history
		WHERE discord_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, discordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history for user %d: %w", discordID, err)
	}
	defer rows.Close()

	var histories []*models.BalanceHistory
	for rows.Next() {
		var history models.BalanceHistory
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.DiscordID,
			&history.ActorID,
			&history.BalanceBefore,
			&history.BalanceAfter,
			&history.ChangeAmount,
			&history.TransactionType,
			&metadataJSON,
			&history.RelatedID,
			&history.RelatedType,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.TransactionMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance history: %w", err)
	}

	return histories, nil
}

// SumByUser returns the sum of all change amounts recorded for a user
func (r *BalanceHistoryRepository) SumByUser(ctx context.Context, discordID int64) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(change_amount), 0)::BIGINT FROM balance_history WHERE discord_id = $1`
	if err := r.q.QueryRow(ctx, query, discordID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum balance history for user %d: %w", discordID, err)
	}
	return sum, nil
}

// GetTotals aggregates change amounts by transaction type
func (r *BalanceHistoryRepository) GetTotals(ctx context.Context) (*models.LedgerTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(change_amount) FILTER (WHERE transaction_type = 'recharge'), 0)::BIGINT,
			COALESCE(-SUM(change_amount) FILTER (WHERE transaction_type = 'withdraw'), 0)::BIGINT,
			COALESCE(SUM(change_amount) FILTER (WHERE transaction_type = 'payout'), 0)::BIGINT,
			COALESCE(-SUM(change_amount) FILTER (WHERE transaction_type = 'bet'), 0)::BIGINT,
			COALESCE(SUM(change_amount) FILTER (WHERE transaction_type = 'refund'), 0)::BIGINT,
			COALESCE(-SUM(change_amount) FILTER (WHERE transaction_type = 'admin_clear'), 0)::BIGINT,
			COALESCE(SUM(change_amount), 0)::BIGINT
		FROM balance_history
	`

	var totals models.LedgerTotals
	err := r.q.QueryRow(ctx, query).Scan(
		&totals.Recharged,
		&totals.Withdrawn,
		&totals.PaidOut,
		&totals.Staked,
		&totals.Refunded,
		&totals.AdminCleared,
		&totals.Outstanding,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger totals: %w", err)
	}
	return &totals, nil
}
