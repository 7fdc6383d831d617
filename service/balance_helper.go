package service

import (
	"context"
	"fmt"

	"sicbo/events"
	"sicbo/models"
)

// RecordBalanceChange records a balance history entry and emits the balance change event.
// This is the single entry point for all ledger writes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := history.ValidateTransaction(); err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		DiscordID:       history.DiscordID,
		ActorID:         history.ActorID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

// credit adds amount to the user's balance and writes the matching ledger row
func credit(ctx context.Context, uow UnitOfWork, user *models.User, amount int64, txType models.TransactionType,
	actorID int64, related *int64, relatedType models.RelatedType, metadata map[string]any) (*models.BalanceHistory, error) {
	if err := uow.UserRepository().AddBalance(ctx, user.DiscordID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit user %d: %w", user.DiscordID, err)
	}
	return recordDelta(ctx, uow, user, amount, txType, actorID, related, relatedType, metadata)
}

// debit removes amount from the user's balance and writes the matching ledger row
func debit(ctx context.Context, uow UnitOfWork, user *models.User, amount int64, txType models.TransactionType,
	actorID int64, related *int64, relatedType models.RelatedType, metadata map[string]any) (*models.BalanceHistory, error) {
	if amount > user.Balance {
		return nil, &InsufficientFundsError{Balance: user.Balance, Required: amount}
	}
	if err := uow.UserRepository().DeductBalance(ctx, user.DiscordID, amount); err != nil {
		return nil, fmt.Errorf("failed to debit user %d: %w", user.DiscordID, err)
	}
	return recordDelta(ctx, uow, user, -amount, txType, actorID, related, relatedType, metadata)
}

// recordDelta writes a ledger row for a balance change already applied in storage
// and advances user.Balance to the new snapshot
func recordDelta(ctx context.Context, uow UnitOfWork, user *models.User, delta int64, txType models.TransactionType,
	actorID int64, related *int64, relatedType models.RelatedType, metadata map[string]any) (*models.BalanceHistory, error) {
	history := &models.BalanceHistory{
		DiscordID:           user.DiscordID,
		ActorID:             actorID,
		BalanceBefore:       user.Balance,
		BalanceAfter:        user.Balance + delta,
		ChangeAmount:        delta,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		RelatedID:           related,
	}
	if related != nil {
		rt := relatedType
		history.RelatedType = &rt
	}

	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}
	user.Balance = history.BalanceAfter
	return history, nil
}
