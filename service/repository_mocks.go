package service

import (
	"context"
	"time"

	"sicbo/events"
	"sicbo/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, discordID int64, username string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, discordID, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) UpdateUsername(ctx context.Context, discordID int64, username string) error {
	args := m.Called(ctx, discordID, username)
	return args.Error(0)
}

func (m *MockUserRepository) SetRole(ctx context.Context, discordID int64, role models.Role) error {
	args := m.Called(ctx, discordID, role)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, discordID int64, amount int64) error {
	args := m.Called(ctx, discordID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, discordID int64, amount int64) error {
	args := m.Called(ctx, discordID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) GetUsersWithPositiveBalance(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByBalanceRange(ctx context.Context, min, max int64) ([]*models.User, error) {
	args := m.Called(ctx, min, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) TotalBalance(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

func (m *MockBalanceHistoryRepository) SumByUser(ctx context.Context, discordID int64) (int64, error) {
	args := m.Called(ctx, discordID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceHistoryRepository) GetTotals(ctx context.Context) (*models.LedgerTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerTotals), args.Error(1)
}

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) Create(ctx context.Context, round *models.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepository) GetByID(ctx context.Context, id string) (*models.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) GetOpen(ctx context.Context) (*models.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) GetOpenForUpdate(ctx context.Context) (*models.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) GetPendingSettlement(ctx context.Context) (*models.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}

func (m *MockRoundRepository) Close(ctx context.Context, id string, outcome models.Outcome, endedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, outcome, endedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) MarkSettled(ctx context.Context, id string, settledAt time.Time) (bool, error) {
	args := m.Called(ctx, id, settledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepository) GetRecentSettled(ctx context.Context, limit int) ([]*models.Round, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Round), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetActiveByRound(ctx context.Context, roundID string) ([]*models.Bet, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetActiveByRoundAndUser(ctx context.Context, roundID string, discordID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, roundID, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) Cancel(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBetRepository) SetResult(ctx context.Context, id int64, result models.BetResult, payout int64, settledAt time.Time) error {
	args := m.Called(ctx, id, result, payout, settledAt)
	return args.Error(0)
}

func (m *MockBetRepository) GetByUserSince(ctx context.Context, discordID int64, since time.Time) ([]*models.Bet, error) {
	args := m.Called(ctx, discordID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetAllSince(ctx context.Context, since time.Time) ([]*models.BetWithUser, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BetWithUser), args.Error(1)
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context) (*models.GameSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSettings), args.Error(1)
}

func (m *MockSettingsRepository) GetForUpdate(ctx context.Context) (*models.GameSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSettings), args.Error(1)
}

func (m *MockSettingsRepository) EnsureDefaults(ctx context.Context, defaults *models.GameSettings) (*models.GameSettings, error) {
	args := m.Called(ctx, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSettings), args.Error(1)
}

func (m *MockSettingsRepository) Update(ctx context.Context, settings *models.GameSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockMediaRepository is a mock implementation of MediaRepository
type MockMediaRepository struct {
	mock.Mock
}

func (m *MockMediaRepository) Get(ctx context.Context, kind models.MediaKind) (*models.AnnouncementMedia, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnnouncementMedia), args.Error(1)
}

func (m *MockMediaRepository) Set(ctx context.Context, kind models.MediaKind, url string, addedBy int64) error {
	args := m.Called(ctx, kind, url, addedBy)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever was handed to SetRepositories.
type MockUnitOfWork struct {
	mock.Mock

	userRepo           UserRepository
	balanceHistoryRepo BalanceHistoryRepository
	roundRepo          RoundRepository
	betRepo            BetRepository
	settingsRepo       SettingsRepository
	mediaRepo          MediaRepository
	eventBus           EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, balanceHistoryRepo BalanceHistoryRepository, roundRepo RoundRepository, betRepo BetRepository, settingsRepo SettingsRepository, mediaRepo MediaRepository) {
	m.userRepo = userRepo
	m.balanceHistoryRepo = balanceHistoryRepo
	m.roundRepo = roundRepo
	m.betRepo = betRepo
	m.settingsRepo = settingsRepo
	m.mediaRepo = mediaRepo
}

// SetEventBus wires the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository                     { return m.userRepo }
func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository { return m.balanceHistoryRepo }
func (m *MockUnitOfWork) RoundRepository() RoundRepository                   { return m.roundRepo }
func (m *MockUnitOfWork) BetRepository() BetRepository                       { return m.betRepo }
func (m *MockUnitOfWork) SettingsRepository() SettingsRepository             { return m.settingsRepo }
func (m *MockUnitOfWork) MediaRepository() MediaRepository                   { return m.mediaRepo }

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return events.NewTransactionalBus(events.NewBus())
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
