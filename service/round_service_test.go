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

func setupRoundServiceTest(ctx context.Context, now time.Time) (*roundService, *MockUnitOfWork, *MockRoundRepository) {
	uow := new(MockUnitOfWork)
	factory := new(MockUnitOfWorkFactory)
	rounds := new(MockRoundRepository)
	uow.SetRepositories(nil, nil, rounds, nil, nil, nil)
	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)

	svc := NewRoundService(factory, NewSerializer(), time.FixedZone("UTC+8", 8*60*60)).(*roundService)
	svc.now = func() time.Time { return now }
	return svc, uow, rounds
}

func TestRoundService_OpenNewRound_UsesLocalDay(t *testing.T) {
	ctx := context.Background()
	// 20:00 UTC on the 14th is already the 15th at UTC+8
	now := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)
	svc, uow, rounds := setupRoundServiceTest(ctx, now)

	rounds.On("GetOpen", ctx).Return(nil, nil)
	rounds.On("GetPendingSettlement", ctx).Return(nil, nil)
	rounds.On("CountByPrefix", ctx, "20250315").Return(2, nil)
	rounds.On("Create", ctx, mock.MatchedBy(func(r *models.Round) bool {
		return r.ID == "20250315003" && r.Status == models.RoundStatusOpen
	})).Return(nil)
	uow.On("Commit").Return(nil)

	round, err := svc.OpenNewRound(ctx, 999999)

	require.NoError(t, err)
	assert.Equal(t, "20250315003", round.ID)
	assert.Equal(t, now, round.StartedAt)
}

func TestRoundService_OpenNewRound_Blocked(t *testing.T) {
	t.Run("round already open", func(t *testing.T) {
		ctx := context.Background()
		svc, uow, rounds := setupRoundServiceTest(ctx, time.Now())
		rounds.On("GetOpen", ctx).Return(&models.Round{ID: "20250314001", Status: models.RoundStatusOpen}, nil)

		_, err := svc.OpenNewRound(ctx, 999999)

		assert.ErrorIs(t, err, ErrRoundAlreadyOpen)
		uow.AssertNotCalled(t, "Commit")
	})

	t.Run("previous round awaiting settlement", func(t *testing.T) {
		ctx := context.Background()
		svc, _, rounds := setupRoundServiceTest(ctx, time.Now())
		rounds.On("GetOpen", ctx).Return(nil, nil)
		rounds.On("GetPendingSettlement", ctx).Return(closedRound("20250314001", models.Outcome{1, 2, 3}), nil)

		_, err := svc.OpenNewRound(ctx, 999999)

		assert.ErrorIs(t, err, ErrRoundAlreadyOpen)
		rounds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestRoundService_OpenNewRound_DailyLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 2, 0, 0, 0, time.UTC)
	svc, uow, rounds := setupRoundServiceTest(ctx, now)

	rounds.On("GetOpen", ctx).Return(nil, nil)
	rounds.On("GetPendingSettlement", ctx).Return(nil, nil)
	rounds.On("CountByPrefix", ctx, "20250314").Return(MaxRoundsPerDay, nil)

	_, err := svc.OpenNewRound(ctx, 999999)

	assert.ErrorIs(t, err, ErrDailyRoundLimit)
	assert.ErrorIs(t, err, ErrConflict)
	rounds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit")
}

func TestRoundService_CloseRound(t *testing.T) {
	t.Run("records the outcome", func(t *testing.T) {
		ctx := context.Background()
		now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
		svc, uow, rounds := setupRoundServiceTest(ctx, now)
		outcome := models.Outcome{3, 5, 6}
		rounds.On("GetByIDForUpdate", ctx, "20250314001").
			Return(&models.Round{ID: "20250314001", Status: models.RoundStatusOpen}, nil)
		rounds.On("Close", ctx, "20250314001", outcome, now).Return(true, nil)
		uow.On("Commit").Return(nil)

		require.NoError(t, svc.CloseRound(ctx, "20250314001", outcome))
		uow.AssertCalled(t, "Commit")
	})

	t.Run("rejects an impossible die", func(t *testing.T) {
		ctx := context.Background()
		svc, _, rounds := setupRoundServiceTest(ctx, time.Now())

		err := svc.CloseRound(ctx, "20250314001", models.Outcome{1, 7, 2})

		assert.ErrorIs(t, err, ErrInvalidDieValue)
		rounds.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("outcome cannot be replaced", func(t *testing.T) {
		ctx := context.Background()
		svc, _, rounds := setupRoundServiceTest(ctx, time.Now())
		rounds.On("GetByIDForUpdate", ctx, "20250314001").
			Return(closedRound("20250314001", models.Outcome{2, 2, 2}), nil)

		err := svc.CloseRound(ctx, "20250314001", models.Outcome{1, 2, 3})

		assert.ErrorIs(t, err, ErrRoundAlreadyClosed)
		rounds.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
