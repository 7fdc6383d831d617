package service

import (
	"context"
	"fmt"
	"strings"

	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

// Range used by the low balance report
const (
	LowBalanceMin int64 = 10
	LowBalanceMax int64 = 99
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
}

// NewLedgerService creates a new ledger service for operator balance management
func NewLedgerService(uowFactory UnitOfWorkFactory, serializer *Serializer) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		serializer: serializer,
	}
}

// Adjust credits (recharge) or debits (withdraw) a user's balance on behalf of an admin
func (s *ledgerService) Adjust(ctx context.Context, actorID, targetID int64, delta int64) (*models.BalanceHistory, error) {
	if delta == 0 {
		return nil, ErrInvalidAmount
	}

	var entry *models.BalanceHistory
	err := s.withAdmin(ctx, actorID, models.RoleAdmin, func(ctx context.Context, uow UnitOfWork) error {
		target, err := uow.UserRepository().GetByDiscordIDForUpdate(ctx, targetID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if target == nil {
			return fmt.Errorf("%w: %d", ErrUserNotFound, targetID)
		}

		metadata := map[string]any{"source": "admin_adjust"}
		if delta > 0 {
			entry, err = credit(ctx, uow, target, delta, models.TransactionTypeRecharge, actorID, nil, "", metadata)
		} else {
			entry, err = debit(ctx, uow, target, -delta, models.TransactionTypeWithdraw, actorID, nil, "", metadata)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"actor":      actorID,
		"target":     targetID,
		"delta":      delta,
		"newBalance": entry.BalanceAfter,
	}).Info("Balance adjusted")
	return entry, nil
}

// DeductByUsername withdraws amount from the named user
func (s *ledgerService) DeductByUsername(ctx context.Context, actorID int64, username string, amount int64) (*models.BalanceHistory, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	var entry *models.BalanceHistory
	err := s.withAdmin(ctx, actorID, models.RoleAdmin, func(ctx context.Context, uow UnitOfWork) error {
		found, err := uow.UserRepository().GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
		if found == nil {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		target, err := uow.UserRepository().GetByDiscordIDForUpdate(ctx, found.DiscordID)
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		metadata := map[string]any{"source": "admin_deduct"}
		entry, err = debit(ctx, uow, target, amount, models.TransactionTypeWithdraw, actorID, nil, "", metadata)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearAllBalances zeroes every positive balance, one admin_clear entry per user
func (s *ledgerService) ClearAllBalances(ctx context.Context, actorID int64) (int, error) {
	cleared := 0
	err := s.withAdmin(ctx, actorID, models.RoleSuperAdmin, func(ctx context.Context, uow UnitOfWork) error {
		users, err := uow.UserRepository().GetUsersWithPositiveBalance(ctx)
		if err != nil {
			return err
		}
		for _, listed := range users {
			user, err := uow.UserRepository().GetByDiscordIDForUpdate(ctx, listed.DiscordID)
			if err != nil {
				return fmt.Errorf("failed to lock user: %w", err)
			}
			if user.Balance == 0 {
				continue
			}
			metadata := map[string]any{"source": "admin_clear"}
			if _, err := debit(ctx, uow, user, user.Balance, models.TransactionTypeAdminClear, actorID, nil, "", metadata); err != nil {
				return err
			}
			cleared++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"actor":   actorID,
		"cleared": cleared,
	}).Warn("All balances cleared")
	return cleared, nil
}

// Balance returns the current balance of a registered user
func (s *ledgerService) Balance(ctx context.Context, discordID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, ErrUnregistered
	}
	return user.Balance, nil
}

// LowBalances lists users whose balance is nearly exhausted
func (s *ledgerService) LowBalances(ctx context.Context) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.UserRepository().GetByBalanceRange(ctx, LowBalanceMin, LowBalanceMax)
}

// Totals aggregates the ledger; Outstanding is taken from the live balances
func (s *ledgerService) Totals(ctx context.Context) (*models.LedgerTotals, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	totals, err := uow.BalanceHistoryRepository().GetTotals(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := uow.UserRepository().TotalBalance(ctx)
	if err != nil {
		return nil, err
	}
	if outstanding != totals.Outstanding {
		log.WithFields(log.Fields{
			"ledger":   totals.Outstanding,
			"balances": outstanding,
		}).Error("Ledger does not match balances")
	}
	totals.Outstanding = outstanding
	return totals, nil
}

// withAdmin runs fn in a serialized unit of work after checking the actor's role
func (s *ledgerService) withAdmin(ctx context.Context, actorID int64, role models.Role, fn func(ctx context.Context, uow UnitOfWork) error) error {
	return s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		if err := requireRole(ctx, uow, actorID, role); err != nil {
			return err
		}
		if err := fn(ctx, uow); err != nil {
			return err
		}
		return uow.Commit()
	})
}
