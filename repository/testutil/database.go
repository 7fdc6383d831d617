package testutil

import (
	"context"
	"testing"
	"time"

	"sicbo/database"
	"sicbo/models"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestDatabase represents a migrated PostgreSQL test container
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
	URL       string
}

// SetupTestDatabase creates a new PostgreSQL test container and runs migrations
func SetupTestDatabase(t *testing.T) *TestDatabase {
	ctx := context.Background()

	labels := map[string]string{
		"test":      "sicbo-repository",
		"test-name": t.Name(),
		"timestamp": time.Now().Format("20060102-150405"),
		"cleanup":   "auto",
	}

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sicbo_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(labels),
	)
	require.NoError(t, err)

	testDB := &TestDatabase{
		Container: postgresContainer,
	}
	t.Cleanup(func() {
		testDB.robustCleanup(t)
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.RunMigrationsWithURL(connStr))

	db, err := database.NewConnection(ctx, connStr)
	require.NoError(t, err)

	testDB.DB = db
	testDB.URL = connStr

	return testDB
}

// SeedUser inserts a user and, for a positive balance, the matching recharge ledger row
func (td *TestDatabase) SeedUser(t *testing.T, discordID int64, username string, balance int64) {
	ctx := context.Background()

	_, err := td.DB.Exec(ctx,
		`INSERT INTO users (discord_id, username, balance) VALUES ($1, $2, $3)`,
		discordID, username, balance)
	require.NoError(t, err)

	if balance > 0 {
		_, err = td.DB.Exec(ctx, `
			INSERT INTO balance_history (discord_id, actor_id, balance_before, balance_after, change_amount, transaction_type)
			VALUES ($1, 0, 0, $2, $2, $3)`,
			discordID, balance, models.TransactionTypeRecharge)
		require.NoError(t, err)
	}
}

// SeedSettings stores the stock game settings
func (td *TestDatabase) SeedSettings(t *testing.T) *models.GameSettings {
	settings := CreateTestSettings()
	_, err := td.DB.Exec(context.Background(), `
		INSERT INTO game_settings (id, min_stake, max_stake, max_size_parity_bets, max_sum_bets, max_triple_bets,
			odds_size_parity, odds_sum, odds_triple, betting_enabled, allow_irrelevant)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		settings.MinStake, settings.MaxStake, settings.MaxSizeParityBets, settings.MaxSumBets,
		settings.MaxTripleBets, settings.OddsSizeParity, settings.OddsSum, settings.OddsTriple,
		settings.BettingEnabled, settings.AllowIrrelevant)
	require.NoError(t, err)
	return settings
}

// robustCleanup closes the pool and terminates the container, recovering from panics
func (td *TestDatabase) robustCleanup(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Logf("Panic during container cleanup (recovered): %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if td.DB != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Logf("Panic closing database connection (recovered): %v", r)
				}
			}()
			td.DB.Close()
		}()
	}

	if td.Container != nil {
		if err := td.Container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate test container: %v", err)
		} else {
			t.Logf("Successfully cleaned up test container")
		}
	}
}
