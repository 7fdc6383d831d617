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

type bettingMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	users    *MockUserRepository
	history  *MockBalanceHistoryRepository
	rounds   *MockRoundRepository
	bets     *MockBetRepository
	settings *MockSettingsRepository
}

func setupBettingServiceTest(ctx context.Context) (BettingService, *bettingMocks) {
	m := &bettingMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		users:    new(MockUserRepository),
		history:  new(MockBalanceHistoryRepository),
		rounds:   new(MockRoundRepository),
		bets:     new(MockBetRepository),
		settings: new(MockSettingsRepository),
	}
	m.uow.SetRepositories(m.users, m.history, m.rounds, m.bets, m.settings, nil)

	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)

	svc := NewBettingService(m.factory, NewSerializer(), time.UTC).(*bettingService)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return svc, m
}

// expectOpenRound primes settings, the bettor and an open round with the given existing bets
func (m *bettingMocks) expectOpenRound(ctx context.Context, balance int64, existing []*models.Bet) *models.Round {
	round := &models.Round{ID: "20250314001", Status: models.RoundStatusOpen}
	m.settings.On("Get", ctx).Return(stockSettings(), nil)
	m.users.On("GetByDiscordIDForUpdate", ctx, int64(100)).
		Return(&models.User{DiscordID: 100, Username: "player", Balance: balance}, nil)
	m.rounds.On("GetOpenForUpdate", ctx).Return(round, nil)
	m.bets.On("GetActiveByRoundAndUser", ctx, round.ID, int64(100)).Return(existing, nil)
	return round
}

func TestBettingService_PlaceBets_Success(t *testing.T) {
	ctx := context.Background()
	svc, m := setupBettingServiceTest(ctx)
	round := m.expectOpenRound(ctx, 10000, nil)

	nextID := int64(0)
	m.users.On("DeductBalance", ctx, int64(100), int64(3000)).Return(nil)
	m.bets.On("Create", ctx, mock.AnythingOfType("*models.Bet")).Run(func(args mock.Arguments) {
		nextID++
		args.Get(1).(*models.Bet).ID = nextID
	}).Return(nil)
	var recorded []*models.BalanceHistory
	m.history.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Run(func(args mock.Arguments) {
		recorded = append(recorded, args.Get(1).(*models.BalanceHistory))
	}).Return(nil)
	m.uow.On("Commit").Return(nil)

	result, err := svc.PlaceBets(ctx, 100, "big 1000 11 2000")

	require.NoError(t, err)
	assert.Equal(t, round, result.Round)
	assert.False(t, result.OpenedNow)
	assert.Equal(t, int64(3000), result.TotalStake)
	assert.Equal(t, int64(7000), result.NewBalance)
	require.Len(t, result.Bets, 2)
	assert.Equal(t, models.CategoryBig, result.Bets[0].Category)
	assert.Equal(t, models.CategorySum, result.Bets[1].Category)
	assert.Equal(t, "11", result.Bets[1].Value)

	// One ledger row per bet with running balance snapshots
	require.Len(t, recorded, 2)
	assert.Equal(t, int64(10000), recorded[0].BalanceBefore)
	assert.Equal(t, int64(9000), recorded[0].BalanceAfter)
	assert.Equal(t, int64(9000), recorded[1].BalanceBefore)
	assert.Equal(t, int64(7000), recorded[1].BalanceAfter)
	assert.Equal(t, models.TransactionTypeBet, recorded[1].TransactionType)
	require.NotNil(t, recorded[1].RelatedID)
	assert.Equal(t, int64(2), *recorded[1].RelatedID)
}

func TestBettingService_PlaceBets_OpensRound(t *testing.T) {
	ctx := context.Background()
	svc, m := setupBettingServiceTest(ctx)

	m.settings.On("Get", ctx).Return(stockSettings(), nil)
	m.users.On("GetByDiscordIDForUpdate", ctx, int64(100)).
		Return(&models.User{DiscordID: 100, Balance: 5000}, nil)
	m.rounds.On("GetOpenForUpdate", ctx).Return(nil, nil)
	m.rounds.On("GetOpen", ctx).Return(nil, nil)
	m.rounds.On("GetPendingSettlement", ctx).Return(nil, nil)
	m.rounds.On("CountByPrefix", ctx, "20250314").Return(0, nil)
	m.rounds.On("Create", ctx, mock.AnythingOfType("*models.Round")).Return(nil)
	m.bets.On("GetActiveByRoundAndUser", ctx, "20250314001", int64(100)).Return(nil, nil)
	m.users.On("DeductBalance", ctx, int64(100), int64(1000)).Return(nil)
	m.bets.On("Create", ctx, mock.AnythingOfType("*models.Bet")).Return(nil)
	m.history.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Return(nil)
	m.uow.On("Commit").Return(nil)

	result, err := svc.PlaceBets(ctx, 100, "odd 1000")

	require.NoError(t, err)
	assert.True(t, result.OpenedNow)
	assert.Equal(t, "20250314001", result.Round.ID)
}

func TestBettingService_PlaceBets_PendingRoundBlocks(t *testing.T) {
	ctx := context.Background()
	svc, m := setupBettingServiceTest(ctx)

	m.settings.On("Get", ctx).Return(stockSettings(), nil)
	m.users.On("GetByDiscordIDForUpdate", ctx, int64(100)).
		Return(&models.User{DiscordID: 100, Balance: 5000}, nil)
	m.rounds.On("GetOpenForUpdate", ctx).Return(nil, nil)
	m.rounds.On("GetPendingSettlement", ctx).
		Return(&models.Round{ID: "20250314001", Status: models.RoundStatusClosed}, nil)

	_, err := svc.PlaceBets(ctx, 100, "odd 1000")

	assert.ErrorIs(t, err, ErrRoundClosed)
	m.rounds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBettingService_PlaceBets_Rejections(t *testing.T) {
	existingBig := &models.Bet{ID: 1, DiscordID: 100, Category: models.CategoryBig, Stake: 1000, Status: models.BetStatusActive}
	existingOdd := &models.Bet{ID: 2, DiscordID: 100, Category: models.CategoryOdd, Stake: 1000, Status: models.BetStatusActive}
	existingTriple := &models.Bet{ID: 3, DiscordID: 100, Category: models.CategoryTriple, Stake: 1000, Status: models.BetStatusActive}

	tests := []struct {
		name     string
		text     string
		balance  int64
		existing []*models.Bet
		wantErr  error
	}{
		{"opposite size in one message", "big 1000 small 1000", 10000, nil, ErrConflictingSides},
		{"opposite to an earlier bet", "small 1000", 10000, []*models.Bet{existingBig}, ErrConflictingSides},
		{"size parity ceiling", "even 1000", 10000, []*models.Bet{existingBig, existingOdd}, ErrLimitExceeded},
		{"triple ceiling", "triple 2000", 10000, []*models.Bet{existingTriple}, ErrLimitExceeded},
		{"stake below minimum", "big 500", 10000, nil, ErrStakeOutOfRange},
		{"stake above maximum", "big 40000", 100000, nil, ErrStakeOutOfRange},
		{"insufficient funds", "big 1000 odd 1000", 1500, nil, ErrInsufficientFunds},
		{"no bets", "good luck everyone", 10000, nil, ErrNoBetsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, m := setupBettingServiceTest(ctx)
			m.expectOpenRound(ctx, tt.balance, tt.existing)

			_, err := svc.PlaceBets(ctx, 100, tt.text)

			assert.ErrorIs(t, err, tt.wantErr)
			m.users.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
			m.bets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			m.uow.AssertNotCalled(t, "Commit")
		})
	}
}

func TestBettingService_PlaceBets_LimitErrorDetail(t *testing.T) {
	ctx := context.Background()
	svc, m := setupBettingServiceTest(ctx)
	m.expectOpenRound(ctx, 100000, nil)

	_, err := svc.PlaceBets(ctx, 100, "4 1000 5 1000 6 1000 7 1000")

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, models.BucketSum, limitErr.Bucket)
	assert.Equal(t, 3, limitErr.Ceiling)
	assert.Equal(t, 4, limitErr.New)
}

func TestBettingService_PlaceBets_Disabled(t *testing.T) {
	ctx := context.Background()
	svc, m := setupBettingServiceTest(ctx)
	disabled := stockSettings()
	disabled.BettingEnabled = false
	m.settings.On("Get", ctx).Return(disabled, nil)

	_, err := svc.PlaceBets(ctx, 100, "big 1000")

	assert.ErrorIs(t, err, ErrBettingDisabled)
	m.users.AssertNotCalled(t, "GetByDiscordIDForUpdate", mock.Anything, mock.Anything)
}

func TestBettingService_PlaceBets_Unregistered(t *testing.T) {
	ctx := context.Background()
	svc, m := setupBettingServiceTest(ctx)
	m.settings.On("Get", ctx).Return(stockSettings(), nil)
	m.users.On("GetByDiscordIDForUpdate", ctx, int64(100)).Return(nil, nil)

	_, err := svc.PlaceBets(ctx, 100, "big 1000")

	assert.ErrorIs(t, err, ErrUnregistered)
}

func TestBettingService_PlaceBets_MissingSettings(t *testing.T) {
	ctx := context.Background()
	svc, m := setupBettingServiceTest(ctx)
	m.settings.On("Get", ctx).Return(nil, nil)

	_, err := svc.PlaceBets(ctx, 100, "big 1000")

	assert.ErrorIs(t, err, ErrIntegrity)
}
