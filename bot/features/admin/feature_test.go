package admin

import (
	"context"
	"testing"

	"sicbo/models"
	"sicbo/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSettingsService struct {
	mock.Mock
	service.SettingsService
}

func (m *mockSettingsService) Get(ctx context.Context) (*models.GameSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSettings), args.Error(1)
}

func (m *mockSettingsService) SetBettingEnabled(ctx context.Context, actorID int64, enabled bool) (*models.GameSettings, *models.Round, error) {
	args := m.Called(ctx, actorID, enabled)
	var round *models.Round
	if args.Get(1) != nil {
		round = args.Get(1).(*models.Round)
	}
	return args.Get(0).(*models.GameSettings), round, args.Error(2)
}

func (m *mockSettingsService) SetOdds(ctx context.Context, actorID int64, name string, value int64) (*models.GameSettings, error) {
	args := m.Called(ctx, actorID, name, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSettings), args.Error(1)
}

type mockLedgerService struct {
	mock.Mock
	service.LedgerService
}

func (m *mockLedgerService) DeductByUsername(ctx context.Context, actorID int64, username string, amount int64) (*models.BalanceHistory, error) {
	args := m.Called(ctx, actorID, username, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BalanceHistory), args.Error(1)
}

func (m *mockLedgerService) Totals(ctx context.Context) (*models.LedgerTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(*models.LedgerTotals), args.Error(1)
}

func testSettings() *models.GameSettings {
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

var (
	adminUser  = &models.User{DiscordID: 999999, Username: "dealer", Role: models.RoleAdmin}
	playerUser = &models.User{DiscordID: 100, Username: "alice", Role: models.RoleNone}
)

func TestSetBetting(t *testing.T) {
	ctx := context.Background()

	t.Run("opening reports the new round", func(t *testing.T) {
		settings := new(mockSettingsService)
		f := NewFeature(nil, nil, settings)
		settings.On("SetBettingEnabled", ctx, adminUser.DiscordID, true).
			Return(testSettings(), &models.Round{ID: "20250314003"}, nil)

		msg, err := f.setBetting(ctx, adminUser, true)
		require.NoError(t, err)
		assert.Equal(t, "Betting opened. Round **20250314003** is accepting bets.", msg)
	})

	t.Run("opening with a round already running", func(t *testing.T) {
		settings := new(mockSettingsService)
		f := NewFeature(nil, nil, settings)
		settings.On("SetBettingEnabled", ctx, adminUser.DiscordID, true).Return(testSettings(), nil, nil)

		msg, err := f.setBetting(ctx, adminUser, true)
		require.NoError(t, err)
		assert.Equal(t, "Betting opened.", msg)
	})

	t.Run("service rejection is returned", func(t *testing.T) {
		settings := new(mockSettingsService)
		f := NewFeature(nil, nil, settings)
		settings.On("SetBettingEnabled", ctx, playerUser.DiscordID, false).
			Return((*models.GameSettings)(nil), nil, service.ErrNotAuthorized)

		_, err := f.setBetting(ctx, playerUser, false)
		assert.ErrorIs(t, err, service.ErrNotAuthorized)
	})
}

func TestSetOdds(t *testing.T) {
	ctx := context.Background()
	settings := new(mockSettingsService)
	f := NewFeature(nil, nil, settings)

	updated := testSettings()
	updated.OddsSum = 9
	settings.On("SetOdds", ctx, adminUser.DiscordID, "hezhi", int64(9)).Return(updated, nil)

	msg, err := f.setOdds(ctx, adminUser, "hezhi", 9)
	require.NoError(t, err)
	assert.Equal(t, "Odds updated. Big/small/odd/even pays 2x, sum pays 9x, triple pays 11x.", msg)
}

func TestDeduct(t *testing.T) {
	ctx := context.Background()
	ledger := new(mockLedgerService)
	f := NewFeature(nil, ledger, nil)

	ledger.On("DeductByUsername", ctx, adminUser.DiscordID, "alice", int64(2500)).
		Return(&models.BalanceHistory{BalanceBefore: 10000, BalanceAfter: 7500, ChangeAmount: -2500}, nil)

	msg, err := f.deduct(ctx, adminUser, "alice", 2500)
	require.NoError(t, err)
	assert.Equal(t, "Deducted 2,500 from alice. Balance now 7,500.", msg)
}

func TestReportsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	ledger := new(mockLedgerService)
	settings := new(mockSettingsService)
	f := NewFeature(nil, ledger, settings)

	_, err := f.totalsEmbed(ctx, playerUser)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)
	_, err = f.lowBalancesEmbed(ctx, playerUser)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)
	_, err = f.settingsEmbed(ctx, playerUser)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	ledger.On("Totals", ctx).Return(&models.LedgerTotals{Recharged: 70000, Staked: 3500, PaidOut: 11000, Outstanding: 77500}, nil)
	embed, err := f.totalsEmbed(ctx, adminUser)
	require.NoError(t, err)
	assert.Equal(t, "77,500", embed.Fields[2].Value)
	assert.Equal(t, "-7,500", embed.Fields[5].Value)

	ledger.AssertExpectations(t)
	settings.AssertNotCalled(t, "Get", mock.Anything)
}

func TestBuildSettingsEmbed(t *testing.T) {
	embed := buildSettingsEmbed(testSettings())
	require.Len(t, embed.Fields, 6)
	assert.Equal(t, "1,000 to 30,000", embed.Fields[0].Value)
	assert.Equal(t, "on", embed.Fields[1].Value)
	assert.Equal(t, "off", embed.Fields[2].Value)
	assert.Equal(t, "big/small/odd/even 2, sum 3, triple 1", embed.Fields[3].Value)
	assert.Equal(t, "big/small/odd/even 97.2%, triple 30.6%, sum 87.5% at best (10)", embed.Fields[5].Value)
}

func TestBuildLowBalancesEmbed(t *testing.T) {
	assert.Equal(t, "Nobody is running low.", buildLowBalancesEmbed(nil).Description)

	embed := buildLowBalancesEmbed([]*models.User{{DiscordID: 100, Username: "alice", Balance: 50}})
	assert.Equal(t, "alice (`100`): 50", embed.Description)
}
