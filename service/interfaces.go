package service

import (
	"context"
	"time"

	"sicbo/events"
	"sicbo/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByDiscordID retrieves a user by their Discord ID
	GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error)

	// GetByDiscordIDForUpdate retrieves a user and locks the row until the transaction ends
	GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*models.User, error)

	// GetByUsername retrieves a user by case-insensitive username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create creates a new user with a zero balance
	Create(ctx context.Context, discordID int64, username string, role models.Role) (*models.User, error)

	// Count returns the number of registered users
	Count(ctx context.Context) (int, error)

	// UpdateUsername stores the latest display name for a user
	UpdateUsername(ctx context.Context, discordID int64, username string) error

	// SetRole changes a user's role
	SetRole(ctx context.Context, discordID int64, role models.Role) error

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, discordID int64, amount int64) error

	// DeductBalance deducts from a user's balance atomically, failing if insufficient funds
	DeductBalance(ctx context.Context, discordID int64, amount int64) error

	// GetUsersWithPositiveBalance returns all users with balance > 0
	GetUsersWithPositiveBalance(ctx context.Context) ([]*models.User, error)

	// GetByBalanceRange returns users whose balance lies in [min, max]
	GetByBalanceRange(ctx context.Context, min, max int64) ([]*models.User, error)

	// TotalBalance returns the sum of all balances
	TotalBalance(ctx context.Context) (int64, error)
}

// BalanceHistoryRepository defines the interface for the append-only balance ledger
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent entries for a user
	GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error)

	// SumByUser returns the sum of all change amounts recorded for a user
	SumByUser(ctx context.Context, discordID int64) (int64, error)

	// GetTotals aggregates change amounts by transaction type
	GetTotals(ctx context.Context) (*models.LedgerTotals, error)
}

// RoundRepository defines the interface for round data access
type RoundRepository interface {
	// Create inserts a new open round
	Create(ctx context.Context, round *models.Round) error

	// GetByID retrieves a round by its ID
	GetByID(ctx context.Context, id string) (*models.Round, error)

	// GetByIDForUpdate retrieves a round and locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*models.Round, error)

	// GetOpen returns the most recent open round, or nil
	GetOpen(ctx context.Context) (*models.Round, error)

	// GetOpenForUpdate returns the open round locked for the transaction, or nil
	GetOpenForUpdate(ctx context.Context) (*models.Round, error)

	// GetPendingSettlement returns the oldest closed round that has not been settled, or nil
	GetPendingSettlement(ctx context.Context) (*models.Round, error)

	// CountByPrefix counts rounds whose ID starts with the given day prefix
	CountByPrefix(ctx context.Context, prefix string) (int, error)

	// Close records the outcome of an open round; returns false when the round was not open
	Close(ctx context.Context, id string, outcome models.Outcome, endedAt time.Time) (bool, error)

	// MarkSettled stamps settled_at once; returns false when the round was already settled
	MarkSettled(ctx context.Context, id string, settledAt time.Time) (bool, error)

	// GetRecentSettled returns the latest settled rounds, newest first
	GetRecentSettled(ctx context.Context, limit int) ([]*models.Round, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new bet record
	Create(ctx context.Context, bet *models.Bet) error

	// GetActiveByRound returns every active bet of a round in placement order
	GetActiveByRound(ctx context.Context, roundID string) ([]*models.Bet, error)

	// GetActiveByRoundAndUser returns a user's active bets in a round in placement order
	GetActiveByRoundAndUser(ctx context.Context, roundID string, discordID int64) ([]*models.Bet, error)

	// Cancel marks the given active bets cancelled and returns how many changed
	Cancel(ctx context.Context, ids []int64) (int64, error)

	// SetResult writes a bet's result and payout once
	SetResult(ctx context.Context, id int64, result models.BetResult, payout int64, settledAt time.Time) error

	// GetByUserSince returns a user's bets placed since a time, newest first
	GetByUserSince(ctx context.Context, discordID int64, since time.Time) ([]*models.Bet, error)

	// GetAllSince returns every bet placed since a time with the owner's username, newest first
	GetAllSince(ctx context.Context, since time.Time) ([]*models.BetWithUser, error)
}

// SettingsRepository defines the interface for the single game settings row
type SettingsRepository interface {
	// Get returns the stored settings, or nil when none have been seeded
	Get(ctx context.Context) (*models.GameSettings, error)

	// GetForUpdate returns the stored settings locked for the transaction
	GetForUpdate(ctx context.Context) (*models.GameSettings, error)

	// EnsureDefaults inserts the defaults when no settings exist and returns the stored row
	EnsureDefaults(ctx context.Context, defaults *models.GameSettings) (*models.GameSettings, error)

	// Update overwrites the stored settings
	Update(ctx context.Context, settings *models.GameSettings) error
}

// MediaRepository defines the interface for announcement media
type MediaRepository interface {
	// Get returns the media for a kind, or nil
	Get(ctx context.Context, kind models.MediaKind) (*models.AnnouncementMedia, error)

	// Set replaces the media for a kind
	Set(ctx context.Context, kind models.MediaKind, url string, addedBy int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	RoundRepository() RoundRepository
	BetRepository() BetRepository
	SettingsRepository() SettingsRepository
	MediaRepository() MediaRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}

// UserService defines the interface for player accounts
type UserService interface {
	// Register returns the user, creating it on first contact
	Register(ctx context.Context, discordID int64, username string) (*models.User, bool, error)

	// GetUser returns a registered user or ErrUnregistered
	GetUser(ctx context.Context, discordID int64) (*models.User, error)

	// SetRole grants or revokes admin by username; only a super admin may call it
	SetRole(ctx context.Context, actorID int64, username string, role models.Role) (*models.User, error)
}

// LedgerService defines the interface for operator balance management
type LedgerService interface {
	Adjust(ctx context.Context, actorID, targetID int64, delta int64) (*models.BalanceHistory, error)
	DeductByUsername(ctx context.Context, actorID int64, username string, amount int64) (*models.BalanceHistory, error)
	ClearAllBalances(ctx context.Context, actorID int64) (int, error)
	Balance(ctx context.Context, discordID int64) (int64, error)
	LowBalances(ctx context.Context) ([]*models.User, error)
	Totals(ctx context.Context) (*models.LedgerTotals, error)
}

// SettingsService defines the interface for operator-tunable game settings
type SettingsService interface {
	Get(ctx context.Context) (*models.GameSettings, error)
	EnsureDefaults(ctx context.Context, defaults *models.GameSettings) (*models.GameSettings, error)
	SetLimits(ctx context.Context, actorID int64, minStake, maxStake int64) (*models.GameSettings, error)
	SetOdds(ctx context.Context, actorID int64, name string, value int64) (*models.GameSettings, error)
	SetBettingEnabled(ctx context.Context, actorID int64, enabled bool) (*models.GameSettings, *models.Round, error)
	SetAllowIrrelevant(ctx context.Context, actorID int64, allow bool) (*models.GameSettings, error)
	SetMedia(ctx context.Context, actorID int64, kind models.MediaKind, url string) error
}

// RoundService defines the interface for the round registry
type RoundService interface {
	ActiveRound(ctx context.Context) (*models.Round, error)
	OpenNewRound(ctx context.Context, actorID int64) (*models.Round, error)
	CloseRound(ctx context.Context, id string, outcome models.Outcome) error
	RecentResults(ctx context.Context, limit int) ([]*models.Round, error)
}

// BettingService defines the interface for bet placement
type BettingService interface {
	PlaceBets(ctx context.Context, discordID int64, text string) (*models.PlacementResult, error)
}

// CancellationService defines the interface for withdrawing bets from an open round
type CancellationService interface {
	Cancel(ctx context.Context, discordID int64, roundID string, scope CancelScope) (*models.CancellationResult, error)
}

// SettlementService defines the interface for resolving a closed round
type SettlementService interface {
	Settle(ctx context.Context, roundID string) (*models.SettlementReport, error)
	SettlePending(ctx context.Context) (*models.SettlementReport, error)
}

// DrawService defines the interface for recording a dice outcome
type DrawService interface {
	SubmitOutcome(ctx context.Context, actorID int64, outcome models.Outcome) (*models.SettlementReport, error)
}

// HistoryService defines the interface for read-only bet and result listings
type HistoryService interface {
	MyBets(ctx context.Context, discordID int64) ([]*models.Bet, error)
	AllBets(ctx context.Context) ([]*models.BetWithUser, error)
	LatestResults(ctx context.Context) ([]*models.Round, error)
}
