package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"sicbo/events"
	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
	now        func() time.Time
}

// NewSettlementService creates a new settlement engine
func NewSettlementService(uowFactory UnitOfWorkFactory, serializer *Serializer) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		serializer: serializer,
		now:        time.Now,
	}
}

// Settle resolves every active bet of a closed round. It runs at most once per round.
func (s *settlementService) Settle(ctx context.Context, roundID string) (*models.SettlementReport, error) {
	var report *models.SettlementReport
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		round, err := uow.RoundRepository().GetByIDForUpdate(ctx, roundID)
		if err != nil {
			return fmt.Errorf("failed to get round: %w", err)
		}
		if round == nil {
			return fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
		}

		report, err = settleRound(ctx, uow, round, s.now())
		if err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// SettlePending settles a round left closed but unsettled, returning nil when there is none
func (s *settlementService) SettlePending(ctx context.Context) (*models.SettlementReport, error) {
	var report *models.SettlementReport
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		round, err := uow.RoundRepository().GetPendingSettlement(ctx)
		if err != nil {
			return fmt.Errorf("failed to get pending round: %w", err)
		}
		if round == nil {
			return nil
		}

		report, err = settleRound(ctx, uow, round, s.now())
		if err != nil {
			return err
		}
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// EvaluateBet returns the result and payout of a bet for an outcome
func EvaluateBet(bet *models.Bet, outcome models.Outcome, settings *models.GameSettings) (models.BetResult, int64) {
	won := false
	switch {
	case outcome.IsTriple():
		won = bet.Category == models.CategoryTriple
	case bet.Category == models.CategoryBig || bet.Category == models.CategorySmall:
		won = bet.Category == outcome.Size()
	case bet.Category == models.CategoryOdd || bet.Category == models.CategoryEven:
		won = bet.Category == outcome.Parity()
	case bet.Category == models.CategorySum:
		won = bet.Value == strconv.Itoa(outcome.Total())
	}

	if !won {
		return models.BetResultLose, 0
	}
	return models.BetResultWin, bet.Stake * settings.Multiplier(bet.Category)
}

// settleRound writes results and payouts for a closed round inside uow
func settleRound(ctx context.Context, uow UnitOfWork, round *models.Round, now time.Time) (*models.SettlementReport, error) {
	if round.Outcome == nil || round.Status != models.RoundStatusClosed {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotClosed, round.ID)
	}
	if round.SettledAt != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySettled, round.ID)
	}

	marked, err := uow.RoundRepository().MarkSettled(ctx, round.ID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to mark round settled: %w", err)
	}
	if !marked {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySettled, round.ID)
	}

	settings, err := loadSettings(ctx, uow)
	if err != nil {
		return nil, err
	}

	outcome := *round.Outcome
	report := &models.SettlementReport{
		RoundID:  round.ID,
		Outcome:  outcome,
		Total:    outcome.Total(),
		Size:     outcome.Size(),
		Parity:   outcome.Parity(),
		IsTriple: outcome.IsTriple(),
	}

	bets, err := uow.BetRepository().GetActiveByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for settlement: %w", err)
	}

	summaries := make(map[int64]*models.UserSettlement)
	owners := make(map[int64]*models.User)
	for _, bet := range bets {
		summary, ok := summaries[bet.DiscordID]
		if !ok {
			owner, err := uow.UserRepository().GetByDiscordIDForUpdate(ctx, bet.DiscordID)
			if err != nil {
				return nil, fmt.Errorf("failed to get bettor: %w", err)
			}
			if owner == nil {
				return nil, integrityError("bet %d belongs to unknown user %d", bet.ID, bet.DiscordID)
			}
			owners[bet.DiscordID] = owner
			summary = &models.UserSettlement{DiscordID: owner.DiscordID, Username: owner.Username}
			summaries[bet.DiscordID] = summary
			report.Users = append(report.Users, summary)
		}

		result, payout := EvaluateBet(bet, outcome, settings)
		if err := uow.BetRepository().SetResult(ctx, bet.ID, result, payout, now.UTC()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		bet.Result = &result
		bet.Payout = payout

		if payout > 0 {
			betID := bet.ID
			metadata := map[string]any{
				"round_id": round.ID,
				"outcome":  outcome.String(),
				"stake":    bet.Stake,
			}
			if _, err := credit(ctx, uow, owners[bet.DiscordID], payout, models.TransactionTypePayout,
				models.SystemActorID, &betID, models.RelatedTypeBet, metadata); err != nil {
				return nil, err
			}
			report.HasWinners = true
		}

		summary.Bets = append(summary.Bets, bet)
		summary.TotalStaked += bet.Stake
		summary.TotalPayout += payout
		report.TotalStaked += bet.Stake
		report.TotalPayout += payout
	}

	for _, summary := range report.Users {
		summary.NewBalance = owners[summary.DiscordID].Balance
	}

	kind := models.MediaKindLose
	if report.HasWinners {
		kind = models.MediaKindWin
	}
	report.Media, err = uow.MediaRepository().Get(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get announcement media: %w", err)
	}

	uow.EventBus().Publish(events.RoundSettledEvent{
		RoundID:     round.ID,
		Outcome:     outcome,
		BetCount:    len(bets),
		WinnerCount: len(report.Winners()),
		TotalStaked: report.TotalStaked,
		TotalPayout: report.TotalPayout,
	})

	log.WithFields(log.Fields{
		"round":       round.ID,
		"outcome":     outcome.String(),
		"bets":        len(bets),
		"totalStaked": report.TotalStaked,
		"totalPayout": report.TotalPayout,
	}).Info("Round settled")

	return report, nil
}
