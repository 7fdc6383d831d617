package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"sicbo/events"
	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

type bettingService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
	loc        *time.Location
	now        func() time.Time
}

// NewBettingService creates a new betting engine
func NewBettingService(uowFactory UnitOfWorkFactory, serializer *Serializer, loc *time.Location) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
		serializer: serializer,
		loc:        loc,
		now:        time.Now,
	}
}

// PlaceBets parses text and, when every check passes, debits the stakes and records the bets
// in one transaction. A round is opened when none is active.
func (s *bettingService) PlaceBets(ctx context.Context, discordID int64, text string) (*models.PlacementResult, error) {
	var result *models.PlacementResult
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		var err error
		result, err = s.placeBets(ctx, uow, discordID, text)
		if err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit bets: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":       discordID,
		"round":      result.Round.ID,
		"bets":       len(result.Bets),
		"totalStake": result.TotalStake,
		"newBalance": result.NewBalance,
	}).Info("Bets placed")

	return result, nil
}

func (s *bettingService) placeBets(ctx context.Context, uow UnitOfWork, discordID int64, text string) (*models.PlacementResult, error) {
	settings, err := loadSettings(ctx, uow)
	if err != nil {
		return nil, err
	}
	if !settings.BettingEnabled {
		return nil, ErrBettingDisabled
	}

	user, err := uow.UserRepository().GetByDiscordIDForUpdate(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUnregistered
	}

	round, openedNow, err := s.resolveRound(ctx, uow, discordID)
	if err != nil {
		return nil, err
	}

	intents := ParseBets(text)
	if len(intents) == 0 {
		if LooksLikeBet(text) {
			return nil, ErrMalformedBet
		}
		return nil, ErrNoBetsFound
	}

	existing, err := uow.BetRepository().GetActiveByRoundAndUser(ctx, round.ID, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing bets: %w", err)
	}

	if err := checkBucketLimits(settings, existing, intents); err != nil {
		return nil, err
	}
	if err := checkOpposingSides(existing, intents); err != nil {
		return nil, err
	}

	total, err := totalStake(intents)
	if err != nil || total > user.Balance {
		return nil, &InsufficientFundsError{Balance: user.Balance, Required: total}
	}
	for _, intent := range intents {
		if intent.Stake < settings.MinStake || intent.Stake > settings.MaxStake {
			return nil, &StakeOutOfRangeError{Stake: intent.Stake, Min: settings.MinStake, Max: settings.MaxStake}
		}
	}

	if err := uow.UserRepository().DeductBalance(ctx, discordID, total); err != nil {
		return nil, fmt.Errorf("failed to debit stakes: %w", err)
	}

	result := &models.PlacementResult{
		Round:      round,
		TotalStake: total,
		OpenedNow:  openedNow,
	}
	for _, intent := range intents {
		bet := &models.Bet{
			DiscordID: discordID,
			RoundID:   round.ID,
			Category:  intent.Category,
			Value:     intent.Value,
			Stake:     intent.Stake,
		}
		if err := uow.BetRepository().Create(ctx, bet); err != nil {
			return nil, fmt.Errorf("failed to record bet: %w", err)
		}

		metadata := map[string]any{
			"round_id": round.ID,
			"category": string(intent.Category),
		}
		if intent.Value != "" {
			metadata["value"] = intent.Value
		}
		betID := bet.ID
		if _, err := recordDelta(ctx, uow, user, -intent.Stake, models.TransactionTypeBet,
			discordID, &betID, models.RelatedTypeBet, metadata); err != nil {
			return nil, err
		}

		uow.EventBus().Publish(events.BetPlacedEvent{
			BetID:     bet.ID,
			RoundID:   round.ID,
			DiscordID: discordID,
			Category:  bet.Category,
			Value:     bet.Value,
			Stake:     bet.Stake,
		})
		result.Bets = append(result.Bets, bet)
	}
	result.NewBalance = user.Balance

	return result, nil
}

// resolveRound returns the open round locked for this transaction, opening one if none exists
func (s *bettingService) resolveRound(ctx context.Context, uow UnitOfWork, actorID int64) (*models.Round, bool, error) {
	round, err := uow.RoundRepository().GetOpenForUpdate(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get open round: %w", err)
	}
	if round != nil {
		return round, false, nil
	}

	pending, err := uow.RoundRepository().GetPendingSettlement(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check pending round: %w", err)
	}
	if pending != nil {
		return nil, false, fmt.Errorf("%w: %s is awaiting settlement", ErrRoundClosed, pending.ID)
	}

	round, err = openRound(ctx, uow, s.now(), s.loc, actorID)
	if err != nil {
		return nil, false, err
	}
	return round, true, nil
}

func checkBucketLimits(settings *models.GameSettings, existing []*models.Bet, intents []models.BetIntent) error {
	existingCounts := make(map[models.BetBucket]int)
	for _, bet := range existing {
		existingCounts[bet.Category.Bucket()]++
	}
	newCounts := make(map[models.BetBucket]int)
	for _, intent := range intents {
		newCounts[intent.Category.Bucket()]++
	}

	for _, bucket := range []models.BetBucket{models.BucketSizeParity, models.BucketSum, models.BucketTriple} {
		ceiling := settings.Ceiling(bucket)
		if existingCounts[bucket]+newCounts[bucket] > ceiling {
			return &LimitExceededError{
				Bucket:   bucket,
				Ceiling:  ceiling,
				Existing: existingCounts[bucket],
				New:      newCounts[bucket],
			}
		}
	}
	return nil
}

func checkOpposingSides(existing []*models.Bet, intents []models.BetIntent) error {
	sides := make(map[models.BetCategory]bool)
	for _, bet := range existing {
		sides[bet.Category] = true
	}
	for _, intent := range intents {
		sides[intent.Category] = true
	}

	if (sides[models.CategoryBig] && sides[models.CategorySmall]) || (sides[models.CategoryOdd] && sides[models.CategoryEven]) {
		return ErrConflictingSides
	}
	return nil
}

func totalStake(intents []models.BetIntent) (int64, error) {
	var total int64
	for _, intent := range intents {
		if intent.Stake > math.MaxInt64-total {
			return math.MaxInt64, fmt.Errorf("stake total overflows")
		}
		total += intent.Stake
	}
	return total, nil
}

// loadSettings reads the settings row, which must have been seeded at startup
func loadSettings(ctx context.Context, uow UnitOfWork) (*models.GameSettings, error) {
	settings, err := uow.SettingsRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get game settings: %w", err)
	}
	if settings == nil {
		return nil, integrityError("game settings have not been seeded")
	}
	return settings, nil
}
