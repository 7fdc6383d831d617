package repository

import (
	"context"
	"testing"

	"sicbo/models"
	"sicbo/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing user is nil", func(t *testing.T) {
		user, err := repo.GetByDiscordID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	user, err := repo.Create(ctx, 111, "Alice", models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.Balance)
	assert.True(t, user.IsSuperAdmin())

	t.Run("lookup by username ignores case", func(t *testing.T) {
		found, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, int64(111), found.DiscordID)
	})

	t.Run("balance changes are conditional", func(t *testing.T) {
		require.NoError(t, repo.AddBalance(ctx, 111, 5000))
		require.NoError(t, repo.DeductBalance(ctx, 111, 2000))

		err := repo.DeductBalance(ctx, 111, 3001)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance: have 3000 available, need 3001")

		found, err := repo.GetByDiscordID(ctx, 111)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), found.Balance)

		assert.Error(t, repo.AddBalance(ctx, 999, 10))
		assert.Error(t, repo.AddBalance(ctx, 111, 0))
	})

	t.Run("role and username updates", func(t *testing.T) {
		_, err := repo.Create(ctx, 222, "bob", models.RoleNone)
		require.NoError(t, err)

		require.NoError(t, repo.SetRole(ctx, 222, models.RoleAdmin))
		require.NoError(t, repo.UpdateUsername(ctx, 222, "bobby"))

		found, err := repo.GetByDiscordID(ctx, 222)
		require.NoError(t, err)
		assert.True(t, found.IsAdmin())
		assert.Equal(t, "bobby", found.Username)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("balance queries", func(t *testing.T) {
		require.NoError(t, repo.AddBalance(ctx, 222, 50))

		low, err := repo.GetByBalanceRange(ctx, 10, 99)
		require.NoError(t, err)
		require.Len(t, low, 1)
		assert.Equal(t, int64(222), low[0].DiscordID)

		positive, err := repo.GetUsersWithPositiveBalance(ctx)
		require.NoError(t, err)
		assert.Len(t, positive, 2)

		total, err := repo.TotalBalance(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3050), total)
	})
}
