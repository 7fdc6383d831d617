package service

import (
	"context"
	"fmt"
	"time"

	"sicbo/models"
)

type drawService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
	now        func() time.Time
}

// NewDrawService creates a service that turns a complete dice outcome into a settled round
func NewDrawService(uowFactory UnitOfWorkFactory, serializer *Serializer) DrawService {
	return &drawService{
		uowFactory: uowFactory,
		serializer: serializer,
		now:        time.Now,
	}
}

// SubmitOutcome closes the active round with outcome and settles it in the same transaction.
// Only admins may submit dice.
func (s *drawService) SubmitOutcome(ctx context.Context, actorID int64, outcome models.Outcome) (*models.SettlementReport, error) {
	if err := outcome.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDieValue, err)
	}

	var report *models.SettlementReport
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		actor, err := uow.UserRepository().GetByDiscordID(ctx, actorID)
		if err != nil {
			return fmt.Errorf("failed to get actor: %w", err)
		}
		if actor == nil {
			return ErrUnregistered
		}
		if !actor.IsAdmin() {
			return fmt.Errorf("%w: only admins can roll the dice", ErrNotAuthorized)
		}

		round, err := uow.RoundRepository().GetOpenForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to get open round: %w", err)
		}
		if round == nil {
			return ErrNoActiveRound
		}

		now := s.now()
		if err := closeRound(ctx, uow, round.ID, outcome, now); err != nil {
			return err
		}

		endedAt := now.UTC()
		round.Status = models.RoundStatusClosed
		round.Outcome = &outcome
		round.EndedAt = &endedAt

		report, err = settleRound(ctx, uow, round, now)
		if err != nil {
			return err
		}
		report.DrawnBy = actorID

		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
