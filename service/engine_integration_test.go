package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"sicbo/config"
	"sicbo/events"
	"sicbo/models"
	"sicbo/repository"
	"sicbo/repository/testutil"
	"sicbo/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := config.NewTestConfig()
	config.SetTestConfig(cfg)
	defer config.ResetConfig()

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	settled := make(chan events.RoundSettledEvent, 4)
	bus.Subscribe(events.EventTypeRoundSettled, func(ctx context.Context, event events.Event) {
		settled <- event.(events.RoundSettledEvent)
	})

	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, bus)
	serializer := service.NewSerializer()
	users := service.NewUserService(uowFactory, serializer)
	ledger := service.NewLedgerService(uowFactory, serializer)
	settings := service.NewSettingsService(uowFactory, serializer, time.UTC)
	betting := service.NewBettingService(uowFactory, serializer, time.UTC)
	cancellation := service.NewCancellationService(uowFactory, serializer)
	draw := service.NewDrawService(uowFactory, serializer)
	settlement := service.NewSettlementService(uowFactory, serializer)
	history := service.NewHistoryService(uowFactory)
	ledgerRepo := repository.NewBalanceHistoryRepository(testDB.DB)

	_, err := settings.EnsureDefaults(ctx, testutil.CreateTestSettings())
	require.NoError(t, err)

	dealer, created, err := users.Register(ctx, 1, "dealer")
	require.NoError(t, err)
	require.True(t, created)
	require.True(t, dealer.IsSuperAdmin())

	_, _, err = users.Register(ctx, 100, "alice")
	require.NoError(t, err)
	_, _, err = users.Register(ctx, 200, "bob")
	require.NoError(t, err)

	_, err = ledger.Adjust(ctx, 1, 100, 50000)
	require.NoError(t, err)
	_, err = ledger.Adjust(ctx, 1, 200, 20000)
	require.NoError(t, err)

	// Players cannot fund themselves
	_, err = ledger.Adjust(ctx, 100, 100, 1000)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	first, err := betting.PlaceBets(ctx, 100, "big 1000 5 2000")
	require.NoError(t, err)
	assert.True(t, first.OpenedNow)
	assert.True(t, strings.HasSuffix(first.Round.ID, "001"))
	assert.Equal(t, int64(47000), first.NewBalance)

	second, err := betting.PlaceBets(ctx, 200, "small 1500 triple 1000")
	require.NoError(t, err)
	assert.False(t, second.OpenedNow)
	assert.Equal(t, first.Round.ID, second.Round.ID)

	_, err = betting.PlaceBets(ctx, 200, "big 1000")
	assert.ErrorIs(t, err, service.ErrConflictingSides)

	cancelled, err := cancellation.Cancel(ctx, 100, "", service.CancelMatching(service.ParseBets("5 2000")))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), cancelled.Refund)
	assert.Equal(t, int64(49000), cancelled.NewBalance)

	// Players cannot roll
	_, err = draw.SubmitOutcome(ctx, 100, models.Outcome{6, 6, 6})
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	report, err := draw.SubmitOutcome(ctx, 1, models.Outcome{6, 6, 6})
	require.NoError(t, err)
	assert.Equal(t, first.Round.ID, report.RoundID)
	assert.True(t, report.IsTriple)
	assert.Equal(t, int64(1), report.DrawnBy)
	assert.Equal(t, int64(3500), report.TotalStaked)
	assert.Equal(t, int64(11000), report.TotalPayout)
	require.Len(t, report.Winners(), 1)
	assert.Equal(t, int64(200), report.Winners()[0].DiscordID)
	assert.Equal(t, int64(28500), report.Winners()[0].NewBalance)

	select {
	case event := <-settled:
		assert.Equal(t, first.Round.ID, event.RoundID)
		assert.Equal(t, 1, event.WinnerCount)
	case <-time.After(2 * time.Second):
		t.Fatal("round settled event was not delivered")
	}

	_, err = settlement.Settle(ctx, first.Round.ID)
	assert.ErrorIs(t, err, service.ErrAlreadySettled)

	_, err = cancellation.Cancel(ctx, 100, first.Round.ID, service.CancelAll())
	assert.ErrorIs(t, err, service.ErrRoundClosed)

	// Every balance equals the sum of its ledger rows
	for id, want := range map[int64]int64{100: 49000, 200: 28500} {
		balance, err := ledger.Balance(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, balance)

		sum, err := ledgerRepo.SumByUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, sum)
	}

	totals, err := ledger.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(49000+28500), totals.Outstanding)

	next, err := betting.PlaceBets(ctx, 100, "odd 1000")
	require.NoError(t, err)
	assert.True(t, next.OpenedNow)
	assert.True(t, strings.HasSuffix(next.Round.ID, "002"))

	mine, err := history.MyBets(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	results, err := history.LatestResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, first.Round.ID, results[0].ID)
}

func TestConcurrentPlacement_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := config.NewTestConfig()
	config.SetTestConfig(cfg)
	defer config.ResetConfig()

	testDB := testutil.SetupTestDatabase(t)
	testDB.SeedSettings(t)
	testDB.SeedUser(t, 100, "alice", 5000)
	ctx := context.Background()

	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	betting := service.NewBettingService(uowFactory, service.NewSerializer(), time.UTC)

	// The size and parity ceiling caps the user at two bets however the calls interleave
	errs := make(chan error, 10)
	texts := []string{"big 1000", "odd 1000"}
	for i := 0; i < 10; i++ {
		text := texts[i%2]
		go func() {
			_, err := betting.PlaceBets(ctx, 100, text)
			errs <- err
		}()
	}

	successes := 0
	for i := 0; i < 10; i++ {
		if err := <-errs; err == nil {
			successes++
		}
	}
	assert.Equal(t, 2, successes)

	balance, err := repository.NewBalanceHistoryRepository(testDB.DB).SumByUser(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), balance)
}

func TestSettlementScenario_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := config.NewTestConfig()
	config.SetTestConfig(cfg)
	defer config.ResetConfig()

	testDB := testutil.SetupTestDatabase(t)
	testDB.SeedSettings(t)
	testDB.SeedUser(t, 100, "alice", 10000)
	testDB.SeedUser(t, 200, "bob", 10000)
	ctx := context.Background()

	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	serializer := service.NewSerializer()
	betting := service.NewBettingService(uowFactory, serializer, time.UTC)
	rounds := service.NewRoundService(uowFactory, serializer, time.UTC)
	settlement := service.NewSettlementService(uowFactory, serializer)

	placedA, err := betting.PlaceBets(ctx, 100, "big 1000")
	require.NoError(t, err)
	placedB, err := betting.PlaceBets(ctx, 200, "11 2000")
	require.NoError(t, err)
	require.Equal(t, placedA.Round.ID, placedB.Round.ID)

	roundID := placedA.Round.ID
	require.NoError(t, rounds.CloseRound(ctx, roundID, models.Outcome{3, 4, 5}))

	report, err := settlement.Settle(ctx, roundID)
	require.NoError(t, err)

	assert.Equal(t, 12, report.Total)
	assert.Equal(t, models.CategoryBig, report.Size)
	assert.Equal(t, models.CategoryEven, report.Parity)
	assert.False(t, report.IsTriple)
	assert.True(t, report.HasWinners)
	assert.Equal(t, int64(3000), report.TotalStaked)
	assert.Equal(t, int64(2000), report.TotalPayout)

	require.Len(t, report.Users, 2)
	alice, bob := report.Users[0], report.Users[1]

	assert.Equal(t, int64(100), alice.DiscordID)
	assert.Equal(t, int64(2000), alice.TotalPayout)
	assert.Equal(t, int64(11000), alice.NewBalance)
	require.Len(t, alice.Bets, 1)
	assert.Equal(t, models.BetResultWin, *alice.Bets[0].Result)

	assert.Equal(t, int64(200), bob.DiscordID)
	assert.Equal(t, int64(0), bob.TotalPayout)
	assert.Equal(t, int64(8000), bob.NewBalance)
	require.Len(t, bob.Bets, 1)
	assert.Equal(t, models.BetResultLose, *bob.Bets[0].Result)
	assert.Equal(t, int64(0), bob.Bets[0].Payout)

	require.Len(t, report.Winners(), 1)
	assert.Equal(t, int64(100), report.Winners()[0].DiscordID)

	ledgerRepo := repository.NewBalanceHistoryRepository(testDB.DB)
	for id, want := range map[int64]int64{100: 11000, 200: 8000} {
		sum, err := ledgerRepo.SumByUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, sum)
	}
}
