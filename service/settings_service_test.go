package service

import (
	"context"
	"testing"
	"time"

	"sicbo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stockSettings() *models.GameSettings {
	return &models.GameSettings{
		MinStake:          1000,
		MaxStake:          30000,
		MaxSizeParityBets: 2,
		MaxSumBets:        3,
		MaxTripleBets:     1,
		OddsSizeParity:    2,
		OddsSum:           7,
		OddsTriple:        11,
		BettingEnabled:    true,
	}
}

type settingsMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	users    *MockUserRepository
	rounds   *MockRoundRepository
	settings *MockSettingsRepository
	media    *MockMediaRepository
}

func setupSettingsServiceTest() (*settingsService, *settingsMocks) {
	m := &settingsMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		users:    new(MockUserRepository),
		rounds:   new(MockRoundRepository),
		settings: new(MockSettingsRepository),
		media:    new(MockMediaRepository),
	}
	m.uow.SetRepositories(m.users, nil, m.rounds, nil, m.settings, m.media)

	svc := NewSettingsService(m.factory, NewSerializer(), time.UTC).(*settingsService)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }
	return svc, m
}

func (m *settingsMocks) expectAdminTransaction(ctx context.Context, actor *models.User) {
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.users.On("GetByDiscordID", ctx, actor.DiscordID).Return(actor, nil)
}

func TestSettingsService_SetOdds(t *testing.T) {
	tests := []struct {
		name  string
		alias string
		check func(*models.GameSettings) int64
	}{
		{"pinyin size", "daxiao", func(s *models.GameSettings) int64 { return s.OddsSizeParity }},
		{"pinyin sum", "hezhi", func(s *models.GameSettings) int64 { return s.OddsSum }},
		{"pinyin triple", "baozi", func(s *models.GameSettings) int64 { return s.OddsTriple }},
		{"english sum mixed case", "Sum", func(s *models.GameSettings) int64 { return s.OddsSum }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, m := setupSettingsServiceTest()
			m.expectAdminTransaction(ctx, &models.User{DiscordID: 1, Role: models.RoleAdmin})
			m.settings.On("GetForUpdate", ctx).Return(stockSettings(), nil)
			m.settings.On("Update", ctx, mock.AnythingOfType("*models.GameSettings")).Return(nil)

			settings, err := svc.SetOdds(ctx, 1, tt.alias, 9)

			require.NoError(t, err)
			assert.Equal(t, int64(9), tt.check(settings))
			m.settings.AssertExpectations(t)
		})
	}
}

func TestSettingsService_SetOdds_Rejected(t *testing.T) {
	svc, m := setupSettingsServiceTest()

	_, err := svc.SetOdds(context.Background(), 1, "jackpot", 5)
	assert.ErrorIs(t, err, ErrInvalidSetting)

	_, err = svc.SetOdds(context.Background(), 1, "hezhi", 0)
	assert.ErrorIs(t, err, ErrInvalidSetting)

	m.factory.AssertNotCalled(t, "Create")
}

func TestSettingsService_SetLimits(t *testing.T) {
	t.Run("min above max", func(t *testing.T) {
		svc, _ := setupSettingsServiceTest()

		_, err := svc.SetLimits(context.Background(), 1, 5000, 1000)

		assert.ErrorIs(t, err, ErrInvalidSetting)
	})

	t.Run("non admin", func(t *testing.T) {
		ctx := context.Background()
		svc, m := setupSettingsServiceTest()
		m.factory.On("Create").Return(m.uow)
		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.users.On("GetByDiscordID", ctx, int64(7)).Return(&models.User{DiscordID: 7, Role: models.RoleNone}, nil)

		_, err := svc.SetLimits(ctx, 7, 500, 50000)

		assert.ErrorIs(t, err, ErrNotAuthorized)
		m.settings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("admin", func(t *testing.T) {
		ctx := context.Background()
		svc, m := setupSettingsServiceTest()
		m.expectAdminTransaction(ctx, &models.User{DiscordID: 1, Role: models.RoleSuperAdmin})
		m.settings.On("GetForUpdate", ctx).Return(stockSettings(), nil)
		m.settings.On("Update", ctx, mock.MatchedBy(func(s *models.GameSettings) bool {
			return s.MinStake == 500 && s.MaxStake == 50000
		})).Return(nil)

		settings, err := svc.SetLimits(ctx, 1, 500, 50000)

		require.NoError(t, err)
		assert.Equal(t, int64(500), settings.MinStake)
		m.settings.AssertExpectations(t)
	})
}

func TestSettingsService_SetBettingEnabled(t *testing.T) {
	t.Run("opening starts a round", func(t *testing.T) {
		ctx := context.Background()
		svc, m := setupSettingsServiceTest()
		m.expectAdminTransaction(ctx, &models.User{DiscordID: 1, Role: models.RoleAdmin})
		disabled := stockSettings()
		disabled.BettingEnabled = false
		m.settings.On("GetForUpdate", ctx).Return(disabled, nil)
		m.settings.On("Update", ctx, mock.AnythingOfType("*models.GameSettings")).Return(nil)
		m.rounds.On("GetOpen", ctx).Return(nil, nil)
		m.rounds.On("GetPendingSettlement", ctx).Return(nil, nil)
		m.rounds.On("CountByPrefix", ctx, "20250314").Return(2, nil)
		m.rounds.On("Create", ctx, mock.AnythingOfType("*models.Round")).Return(nil)

		settings, round, err := svc.SetBettingEnabled(ctx, 1, true)

		require.NoError(t, err)
		assert.True(t, settings.BettingEnabled)
		require.NotNil(t, round)
		assert.Equal(t, "20250314003", round.ID)
		assert.True(t, round.IsOpen())
	})

	t.Run("opening keeps the current round", func(t *testing.T) {
		ctx := context.Background()
		svc, m := setupSettingsServiceTest()
		m.expectAdminTransaction(ctx, &models.User{DiscordID: 1, Role: models.RoleAdmin})
		m.settings.On("GetForUpdate", ctx).Return(stockSettings(), nil)
		m.settings.On("Update", ctx, mock.AnythingOfType("*models.GameSettings")).Return(nil)
		m.rounds.On("GetOpen", ctx).Return(&models.Round{ID: "20250314001", Status: models.RoundStatusOpen}, nil)

		_, round, err := svc.SetBettingEnabled(ctx, 1, true)

		require.NoError(t, err)
		assert.Nil(t, round)
		m.uow.AssertCalled(t, "Commit")
	})

	t.Run("stopping leaves rounds alone", func(t *testing.T) {
		ctx := context.Background()
		svc, m := setupSettingsServiceTest()
		m.expectAdminTransaction(ctx, &models.User{DiscordID: 1, Role: models.RoleAdmin})
		m.settings.On("GetForUpdate", ctx).Return(stockSettings(), nil)
		m.settings.On("Update", ctx, mock.MatchedBy(func(s *models.GameSettings) bool {
			return !s.BettingEnabled
		})).Return(nil)

		settings, round, err := svc.SetBettingEnabled(ctx, 1, false)

		require.NoError(t, err)
		assert.False(t, settings.BettingEnabled)
		assert.Nil(t, round)
		m.rounds.AssertNotCalled(t, "GetOpen", mock.Anything)
	})
}

func TestSettingsService_SetMedia(t *testing.T) {
	svc, m := setupSettingsServiceTest()

	err := svc.SetMedia(context.Background(), 1, models.MediaKind("draw"), "https://example.com/a.gif")
	assert.ErrorIs(t, err, ErrInvalidSetting)

	err = svc.SetMedia(context.Background(), 1, models.MediaKindWin, "   ")
	assert.ErrorIs(t, err, ErrInvalidSetting)

	ctx := context.Background()
	m.expectAdminTransaction(ctx, &models.User{DiscordID: 1, Role: models.RoleAdmin})
	m.media.On("Set", ctx, models.MediaKindWin, "https://example.com/win.gif", int64(1)).Return(nil)

	require.NoError(t, svc.SetMedia(ctx, 1, models.MediaKindWin, " https://example.com/win.gif "))
	m.media.AssertExpectations(t)
}
