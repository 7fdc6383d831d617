package service

import (
	"context"
	"fmt"
	"time"

	"sicbo/events"
	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

type roundService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
	loc        *time.Location
	now        func() time.Time
}

// NewRoundService creates a new round registry. Round IDs use the day in loc.
func NewRoundService(uowFactory UnitOfWorkFactory, serializer *Serializer, loc *time.Location) RoundService {
	return &roundService{
		uowFactory: uowFactory,
		serializer: serializer,
		loc:        loc,
		now:        time.Now,
	}
}

// ActiveRound returns the open round, or nil. Always read from storage.
func (s *roundService) ActiveRound(ctx context.Context) (*models.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	return round, nil
}

// OpenNewRound starts a round unless one is open or awaiting settlement
func (s *roundService) OpenNewRound(ctx context.Context, actorID int64) (*models.Round, error) {
	var round *models.Round
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		var err error
		round, err = openRound(ctx, uow, s.now(), s.loc, actorID)
		if err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// CloseRound records the outcome of the open round
func (s *roundService) CloseRound(ctx context.Context, id string, outcome models.Outcome) error {
	return s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		if err := closeRound(ctx, uow, id, outcome, s.now()); err != nil {
			return err
		}
		return uow.Commit()
	})
}

// RecentResults returns the latest settled rounds, newest first
func (s *roundService) RecentResults(ctx context.Context, limit int) ([]*models.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rounds, err := uow.RoundRepository().GetRecentSettled(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent results: %w", err)
	}
	return rounds, nil
}

// openRound allocates the next daily sequence and inserts an open round inside uow
func openRound(ctx context.Context, uow UnitOfWork, now time.Time, loc *time.Location, actorID int64) (*models.Round, error) {
	rounds := uow.RoundRepository()

	open, err := rounds.GetOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check open round: %w", err)
	}
	if open != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoundAlreadyOpen, open.ID)
	}

	pending, err := rounds.GetPendingSettlement(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending round: %w", err)
	}
	if pending != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoundAlreadyOpen, pending.ID)
	}

	prefix := RoundDayPrefix(now, loc)
	count, err := rounds.CountByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate round sequence: %w", err)
	}
	if count >= MaxRoundsPerDay {
		return nil, fmt.Errorf("%w: %s already has %d rounds", ErrDailyRoundLimit, prefix, count)
	}

	round := &models.Round{
		ID:        FormatRoundID(prefix, count+1),
		StartedAt: now.UTC(),
		Status:    models.RoundStatusOpen,
	}
	if err := rounds.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to open round: %w", err)
	}

	uow.EventBus().Publish(events.RoundOpenedEvent{RoundID: round.ID, OpenedBy: actorID})

	log.WithFields(log.Fields{
		"round": round.ID,
		"actor": actorID,
	}).Info("Round opened")

	return round, nil
}

// closeRound records an outcome on an open round inside uow
func closeRound(ctx context.Context, uow UnitOfWork, id string, outcome models.Outcome, now time.Time) error {
	if err := outcome.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDieValue, err)
	}

	rounds := uow.RoundRepository()
	round, err := rounds.GetByIDForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, id)
	}
	if round.Outcome != nil {
		return fmt.Errorf("%w: %s is %s", ErrRoundAlreadyClosed, id, round.Outcome)
	}
	if !round.IsOpen() {
		return fmt.Errorf("%w: %s", ErrRoundNotOpen, id)
	}

	closed, err := rounds.Close(ctx, id, outcome, now.UTC())
	if err != nil {
		return fmt.Errorf("failed to close round: %w", err)
	}
	if !closed {
		return fmt.Errorf("%w: %s", ErrRoundAlreadyClosed, id)
	}

	log.WithFields(log.Fields{
		"round":   id,
		"outcome": outcome.String(),
	}).Info("Round closed")

	return nil
}
