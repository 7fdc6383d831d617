package service

import (
	"context"
	"fmt"

	"sicbo/events"
	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

// CancelScope selects which of a user's active bets to cancel
type CancelScope struct {
	all     bool
	intents []models.BetIntent
}

// CancelAll cancels every active bet of the user in the round
func CancelAll() CancelScope {
	return CancelScope{all: true}
}

// CancelMatching cancels one active bet per intent with the same category, value and stake
func CancelMatching(intents []models.BetIntent) CancelScope {
	return CancelScope{intents: intents}
}

// IsAll returns true for the cancel-everything scope
func (c CancelScope) IsAll() bool {
	return c.all
}

// selectBets picks the bets the scope covers, in placement order
func (c CancelScope) selectBets(active []*models.Bet) []*models.Bet {
	if c.all {
		return active
	}

	taken := make(map[int64]bool)
	var selected []*models.Bet
	for _, intent := range c.intents {
		for _, bet := range active {
			if !taken[bet.ID] && intent.Matches(bet) {
				taken[bet.ID] = true
				selected = append(selected, bet)
				break
			}
		}
	}
	return selected
}

type cancellationService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
}

// NewCancellationService creates a new cancellation engine
func NewCancellationService(uowFactory UnitOfWorkFactory, serializer *Serializer) CancellationService {
	return &cancellationService{
		uowFactory: uowFactory,
		serializer: serializer,
	}
}

// Cancel withdraws bets from an open round and refunds their stakes in one ledger entry.
// An empty roundID means the active round.
func (s *cancellationService) Cancel(ctx context.Context, discordID int64, roundID string, scope CancelScope) (*models.CancellationResult, error) {
	var result *models.CancellationResult
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		var err error
		result, err = s.cancel(ctx, uow, discordID, roundID, scope)
		if err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":      discordID,
		"round":     result.RoundID,
		"cancelled": len(result.Cancelled),
		"refund":    result.Refund,
	}).Info("Bets cancelled")

	return result, nil
}

func (s *cancellationService) cancel(ctx context.Context, uow UnitOfWork, discordID int64, roundID string, scope CancelScope) (*models.CancellationResult, error) {
	user, err := uow.UserRepository().GetByDiscordIDForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUnregistered
	}

	var round *models.Round
	if roundID == "" {
		round, err = uow.RoundRepository().GetOpenForUpdate(ctx)
	} else {
		round, err = uow.RoundRepository().GetByIDForUpdate(ctx, roundID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		if roundID == "" {
			return nil, ErrNoActiveRound
		}
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	if !round.IsOpen() {
		return nil, fmt.Errorf("%w: %s", ErrRoundClosed, round.ID)
	}

	active, err := uow.BetRepository().GetActiveByRoundAndUser(ctx, round.ID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active bets: %w", err)
	}

	selected := scope.selectBets(active)
	if len(selected) == 0 {
		return nil, ErrNothingToCancel
	}

	ids := make([]int64, len(selected))
	var refund int64
	for i, bet := range selected {
		ids[i] = bet.ID
		refund += bet.Stake
	}

	changed, err := uow.BetRepository().Cancel(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel bets: %w", err)
	}
	if changed != int64(len(ids)) {
		return nil, integrityError("cancelled %d of %d bets in round %s", changed, len(ids), round.ID)
	}

	metadata := map[string]any{
		"round_id": round.ID,
		"bet_ids":  ids,
	}
	if _, err := credit(ctx, uow, user, refund, models.TransactionTypeRefund, discordID, nil, models.RelatedTypeRound, metadata); err != nil {
		return nil, err
	}

	for _, bet := range selected {
		bet.Status = models.BetStatusCancelled
	}

	uow.EventBus().Publish(events.BetsCancelledEvent{
		RoundID:   round.ID,
		DiscordID: discordID,
		BetIDs:    ids,
		Refund:    refund,
	})

	return &models.CancellationResult{
		RoundID:    round.ID,
		Cancelled:  selected,
		Refund:     refund,
		NewBalance: user.Balance,
		AllActive:  len(selected) == len(active),
	}, nil
}
