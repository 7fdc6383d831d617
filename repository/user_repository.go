package repository

import (
	"context"
	"errors"
	"fmt"

	"sicbo/database"
	"sicbo/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `discord_id, username, balance, role, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.DiscordID,
		&user.Username,
		&user.Balance,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// GetByDiscordID retrieves a user by their Discord ID
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	user, err := r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE discord_id = $1`, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by discord ID %d: %w", discordID, err)
	}
	return user, nil
}

// GetByDiscordIDForUpdate retrieves a user and locks the row
func (r *UserRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*models.User, error) {
	user, err := r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE discord_id = $1 FOR UPDATE`, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", discordID, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by case-insensitive username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1) ORDER BY created_at LIMIT 1`
	user, err := r.getOne(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username %q: %w", username, err)
	}
	return user, nil
}

// Create creates a new user with a zero balance
func (r *UserRepository) Create(ctx context.Context, discordID int64, username string, role models.Role) (*models.User, error) {
	query := `
		INSERT INTO users (discord_id, username, balance, role)
		VALUES ($1, $2, 0, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, discordID, username, role))
	if err != nil {
		return nil, fmt.Errorf("failed to create user with discord ID %d: %w", discordID, err)
	}
	return user, nil
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UpdateUsername stores the latest display name for a user
func (r *UserRepository) UpdateUsername(ctx context.Context, discordID int64, username string) error {
	query := `UPDATE users SET username = $1, updated_at = NOW() WHERE discord_id = $2 AND username <> $1`
	if _, err := r.q.Exec(ctx, query, username, discordID); err != nil {
		return fmt.Errorf("failed to update username for user %d: %w", discordID, err)
	}
	return nil
}

// SetRole changes a user's role
func (r *UserRepository) SetRole(ctx context.Context, discordID int64, role models.Role) error {
	result, err := r.q.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE discord_id = $2`, role, discordID)
	if err != nil {
		return fmt.Errorf("failed to set role for user %d: %w", discordID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with discord ID %d not found", discordID)
	}
	return nil
}

// AddBalance adds to a user's balance atomically
func (r *UserRepository) AddBalance(ctx context.Context, discordID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE discord_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, discordID)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with discord ID %d not found", discordID)
	}

	return nil
}

// DeductBalance deducts from a user's balance atomically, failing if insufficient funds
func (r *UserRepository) DeductBalance(ctx context.Context, discordID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE discord_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, discordID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		user, err := r.GetByDiscordID(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user with discord ID %d not found", discordID)
		}
		return fmt.Errorf("insufficient balance: have %d available, need %d", user.Balance, amount)
	}

	return nil
}

// GetUsersWithPositiveBalance returns all users with balance > 0
func (r *UserRepository) GetUsersWithPositiveBalance(ctx context.Context) ([]*models.User, error) {
	users, err := r.list(ctx, `SELECT `+userColumns+` FROM users WHERE balance > 0 ORDER BY balance DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get users with positive balance: %w", err)
	}
	return users, nil
}

// GetByBalanceRange returns users whose balance lies in [min, max]
func (r *UserRepository) GetByBalanceRange(ctx context.Context, min, max int64) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE balance BETWEEN $1 AND $2 ORDER BY balance, discord_id`
	users, err := r.list(ctx, query, min, max)
	if err != nil {
		return nil, fmt.Errorf("failed to get users with balance between %d and %d: %w", min, max, err)
	}
	return users, nil
}

// TotalBalance returns the sum of all balances
func (r *UserRepository) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0)::BIGINT FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}
