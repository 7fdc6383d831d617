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

func TestEvaluateBet(t *testing.T) {
	settings := stockSettings()

	tests := []struct {
		name       string
		category   models.BetCategory
		value      string
		outcome    models.Outcome
		wantResult models.BetResult
		wantPayout int64
	}{
		{"big wins on 11", models.CategoryBig, "", models.Outcome{5, 4, 2}, models.BetResultWin, 2000},
		{"big loses on 10", models.CategoryBig, "", models.Outcome{5, 3, 2}, models.BetResultLose, 0},
		{"small wins on 10", models.CategorySmall, "", models.Outcome{5, 3, 2}, models.BetResultWin, 2000},
		{"odd wins on 9", models.CategoryOdd, "", models.Outcome{1, 3, 5}, models.BetResultWin, 2000},
		{"even loses on 9", models.CategoryEven, "", models.Outcome{1, 3, 5}, models.BetResultLose, 0},
		{"sum hit", models.CategorySum, "11", models.Outcome{6, 4, 1}, models.BetResultWin, 7000},
		{"sum miss", models.CategorySum, "12", models.Outcome{6, 4, 1}, models.BetResultLose, 0},
		{"triple hit", models.CategoryTriple, "", models.Outcome{4, 4, 4}, models.BetResultWin, 11000},
		{"triple miss", models.CategoryTriple, "", models.Outcome{4, 4, 3}, models.BetResultLose, 0},
		{"big loses on a triple", models.CategoryBig, "", models.Outcome{6, 6, 6}, models.BetResultLose, 0},
		{"even loses on a triple", models.CategoryEven, "", models.Outcome{2, 2, 2}, models.BetResultLose, 0},
		{"sum loses on a triple", models.CategorySum, "9", models.Outcome{3, 3, 3}, models.BetResultLose, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bet := &models.Bet{Category: tt.category, Value: tt.value, Stake: 1000}

			result, payout := EvaluateBet(bet, tt.outcome, settings)

			assert.Equal(t, tt.wantResult, result)
			assert.Equal(t, tt.wantPayout, payout)
		})
	}
}

type settlementMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	users    *MockUserRepository
	history  *MockBalanceHistoryRepository
	rounds   *MockRoundRepository
	bets     *MockBetRepository
	settings *MockSettingsRepository
	media    *MockMediaRepository
}

func setupSettlementServiceTest(ctx context.Context) (*settlementService, *settlementMocks, time.Time) {
	m := &settlementMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		users:    new(MockUserRepository),
		history:  new(MockBalanceHistoryRepository),
		rounds:   new(MockRoundRepository),
		bets:     new(MockBetRepository),
		settings: new(MockSettingsRepository),
		media:    new(MockMediaRepository),
	}
	m.uow.SetRepositories(m.users, m.history, m.rounds, m.bets, m.settings, m.media)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)

	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	svc := NewSettlementService(m.factory, NewSerializer()).(*settlementService)
	svc.now = func() time.Time { return now }
	return svc, m, now
}

func closedRound(id string, outcome models.Outcome) *models.Round {
	return &models.Round{ID: id, Status: models.RoundStatusClosed, Outcome: &outcome}
}

func TestSettlementService_Settle_TriplePays(t *testing.T) {
	ctx := context.Background()
	svc, m, now := setupSettlementServiceTest(ctx)

	round := closedRound("20250314001", models.Outcome{2, 2, 2})
	bets := []*models.Bet{
		{ID: 1, DiscordID: 100, RoundID: round.ID, Category: models.CategoryTriple, Stake: 1000, Status: models.BetStatusActive},
		{ID: 2, DiscordID: 100, RoundID: round.ID, Category: models.CategorySmall, Stake: 2000, Status: models.BetStatusActive},
		{ID: 3, DiscordID: 200, RoundID: round.ID, Category: models.CategoryEven, Stake: 1000, Status: models.BetStatusActive},
	}

	m.rounds.On("GetByIDForUpdate", ctx, round.ID).Return(round, nil)
	m.rounds.On("MarkSettled", ctx, round.ID, now).Return(true, nil)
	m.settings.On("Get", ctx).Return(stockSettings(), nil)
	m.bets.On("GetActiveByRound", ctx, round.ID).Return(bets, nil)
	m.users.On("GetByDiscordIDForUpdate", ctx, int64(100)).
		Return(&models.User{DiscordID: 100, Username: "lucky", Balance: 7000}, nil)
	m.users.On("GetByDiscordIDForUpdate", ctx, int64(200)).
		Return(&models.User{DiscordID: 200, Username: "unlucky", Balance: 500}, nil)
	m.bets.On("SetResult", ctx, int64(1), models.BetResultWin, int64(11000), now).Return(nil)
	m.bets.On("SetResult", ctx, int64(2), models.BetResultLose, int64(0), now).Return(nil)
	m.bets.On("SetResult", ctx, int64(3), models.BetResultLose, int64(0), now).Return(nil)
	m.users.On("AddBalance", ctx, int64(100), int64(11000)).Return(nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.DiscordID == 100 &&
			h.ChangeAmount == 11000 &&
			h.BalanceBefore == 7000 &&
			h.TransactionType == models.TransactionTypePayout &&
			h.ActorID == models.SystemActorID
	})).Return(nil)
	media := &models.AnnouncementMedia{Kind: models.MediaKindWin, URL: "https://example.com/win.gif"}
	m.media.On("Get", ctx, models.MediaKindWin).Return(media, nil)
	m.uow.On("Commit").Return(nil)

	report, err := svc.Settle(ctx, round.ID)

	require.NoError(t, err)
	assert.True(t, report.IsTriple)
	assert.True(t, report.HasWinners)
	assert.Equal(t, int64(4000), report.TotalStaked)
	assert.Equal(t, int64(11000), report.TotalPayout)
	assert.Equal(t, media, report.Media)

	require.Len(t, report.Users, 2)
	assert.Equal(t, int64(100), report.Users[0].DiscordID)
	assert.Equal(t, int64(18000), report.Users[0].NewBalance)
	assert.True(t, report.Users[0].IsWinner())
	assert.Equal(t, int64(500), report.Users[1].NewBalance)
	assert.False(t, report.Users[1].IsWinner())
	require.Len(t, report.Winners(), 1)

	m.history.AssertNumberOfCalls(t, "Record", 1)
	m.bets.AssertExpectations(t)
}

func TestSettlementService_Settle_NoBets(t *testing.T) {
	ctx := context.Background()
	svc, m, now := setupSettlementServiceTest(ctx)

	round := closedRound("20250314002", models.Outcome{1, 2, 3})
	m.rounds.On("GetByIDForUpdate", ctx, round.ID).Return(round, nil)
	m.rounds.On("MarkSettled", ctx, round.ID, now).Return(true, nil)
	m.settings.On("Get", ctx).Return(stockSettings(), nil)
	m.bets.On("GetActiveByRound", ctx, round.ID).Return([]*models.Bet{}, nil)
	m.media.On("Get", ctx, models.MediaKindLose).Return(nil, nil)
	m.uow.On("Commit").Return(nil)

	report, err := svc.Settle(ctx, round.ID)

	require.NoError(t, err)
	assert.False(t, report.HasWinners)
	assert.Empty(t, report.Users)
	assert.Nil(t, report.Media)
}

func TestSettlementService_Settle_Rejections(t *testing.T) {
	t.Run("already settled", func(t *testing.T) {
		ctx := context.Background()
		svc, m, _ := setupSettlementServiceTest(ctx)
		round := closedRound("20250314001", models.Outcome{1, 2, 3})
		settledAt := time.Now()
		round.SettledAt = &settledAt
		m.rounds.On("GetByIDForUpdate", ctx, round.ID).Return(round, nil)

		_, err := svc.Settle(ctx, round.ID)

		assert.ErrorIs(t, err, ErrAlreadySettled)
		m.rounds.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost the settle race", func(t *testing.T) {
		ctx := context.Background()
		svc, m, now := setupSettlementServiceTest(ctx)
		round := closedRound("20250314001", models.Outcome{1, 2, 3})
		m.rounds.On("GetByIDForUpdate", ctx, round.ID).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, round.ID, now).Return(false, nil)

		_, err := svc.Settle(ctx, round.ID)

		assert.ErrorIs(t, err, ErrAlreadySettled)
		m.bets.AssertNotCalled(t, "GetActiveByRound", mock.Anything, mock.Anything)
	})

	t.Run("still open", func(t *testing.T) {
		ctx := context.Background()
		svc, m, _ := setupSettlementServiceTest(ctx)
		m.rounds.On("GetByIDForUpdate", ctx, "20250314003").
			Return(&models.Round{ID: "20250314003", Status: models.RoundStatusOpen}, nil)

		_, err := svc.Settle(ctx, "20250314003")

		assert.ErrorIs(t, err, ErrRoundNotClosed)
	})

	t.Run("unknown round", func(t *testing.T) {
		ctx := context.Background()
		svc, m, _ := setupSettlementServiceTest(ctx)
		m.rounds.On("GetByIDForUpdate", ctx, "nope").Return(nil, nil)

		_, err := svc.Settle(ctx, "nope")

		assert.ErrorIs(t, err, ErrRoundNotFound)
	})
}

func TestSettlementService_SettlePending(t *testing.T) {
	t.Run("nothing pending", func(t *testing.T) {
		ctx := context.Background()
		svc, m, _ := setupSettlementServiceTest(ctx)
		m.rounds.On("GetPendingSettlement", ctx).Return(nil, nil)

		report, err := svc.SettlePending(ctx)

		require.NoError(t, err)
		assert.Nil(t, report)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("settles the stranded round", func(t *testing.T) {
		ctx := context.Background()
		svc, m, now := setupSettlementServiceTest(ctx)
		round := closedRound("20250314004", models.Outcome{6, 5, 4})
		m.rounds.On("GetPendingSettlement", ctx).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, round.ID, now).Return(true, nil)
		m.settings.On("Get", ctx).Return(stockSettings(), nil)
		m.bets.On("GetActiveByRound", ctx, round.ID).Return([]*models.Bet{}, nil)
		m.media.On("Get", ctx, models.MediaKindLose).Return(nil, nil)
		m.uow.On("Commit").Return(nil)

		report, err := svc.SettlePending(ctx)

		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, round.ID, report.RoundID)
		m.uow.AssertCalled(t, "Commit")
	})
}
