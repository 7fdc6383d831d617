package service

import (
	"context"
	"testing"

	"sicbo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDrawService_SubmitOutcome_Rejections(t *testing.T) {
	t.Run("die out of range", func(t *testing.T) {
		mockFactory := new(MockUnitOfWorkFactory)
		svc := NewDrawService(mockFactory, NewSerializer())

		_, err := svc.SubmitOutcome(context.Background(), 1, models.Outcome{1, 7, 3})

		assert.ErrorIs(t, err, ErrInvalidDieValue)
		mockFactory.AssertNotCalled(t, "Create")
	})

	t.Run("player cannot roll", func(t *testing.T) {
		ctx := context.Background()
		mockFactory := new(MockUnitOfWorkFactory)
		mockUoW := new(MockUnitOfWork)
		mockUserRepo := new(MockUserRepository)
		mockRoundRepo := new(MockRoundRepository)
		mockUoW.SetRepositories(mockUserRepo, nil, mockRoundRepo, nil, nil, nil)

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUserRepo.On("GetByDiscordID", ctx, int64(42)).
			Return(&models.User{DiscordID: 42, Role: models.RoleNone}, nil)

		_, err := NewDrawService(mockFactory, NewSerializer()).SubmitOutcome(ctx, 42, models.Outcome{1, 2, 3})

		assert.ErrorIs(t, err, ErrNotAuthorized)
		mockRoundRepo.AssertNotCalled(t, "GetOpenForUpdate", mock.Anything)
		mockUoW.AssertNotCalled(t, "Commit")
	})

	t.Run("no active round", func(t *testing.T) {
		ctx := context.Background()
		mockFactory := new(MockUnitOfWorkFactory)
		mockUoW := new(MockUnitOfWork)
		mockUserRepo := new(MockUserRepository)
		mockRoundRepo := new(MockRoundRepository)
		mockUoW.SetRepositories(mockUserRepo, nil, mockRoundRepo, nil, nil, nil)

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUserRepo.On("GetByDiscordID", ctx, int64(1)).
			Return(&models.User{DiscordID: 1, Role: models.RoleAdmin}, nil)
		mockRoundRepo.On("GetOpenForUpdate", ctx).Return(nil, nil)

		_, err := NewDrawService(mockFactory, NewSerializer()).SubmitOutcome(ctx, 1, models.Outcome{6, 6, 6})

		assert.ErrorIs(t, err, ErrNoActiveRound)
		assert.ErrorIs(t, err, ErrConflict)
	})
}
