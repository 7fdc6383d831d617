package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

// Odds names accepted by SetOdds, including the original pinyin names
var oddsAliases = map[string]models.BetBucket{
	"daxiao":      models.BucketSizeParity,
	"size":        models.BucketSizeParity,
	"size_parity": models.BucketSizeParity,
	"hezhi":       models.BucketSum,
	"sum":         models.BucketSum,
	"baozi":       models.BucketTriple,
	"triple":      models.BucketTriple,
}

type settingsService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
	loc        *time.Location
	now        func() time.Time
}

// NewSettingsService creates a new settings service
func NewSettingsService(uowFactory UnitOfWorkFactory, serializer *Serializer, loc *time.Location) SettingsService {
	return &settingsService{
		uowFactory: uowFactory,
		serializer: serializer,
		loc:        loc,
		now:        time.Now,
	}
}

// Get returns the current settings
func (s *settingsService) Get(ctx context.Context) (*models.GameSettings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return loadSettings(ctx, uow)
}

// EnsureDefaults seeds the settings row on first start and returns what is stored
func (s *settingsService) EnsureDefaults(ctx context.Context, defaults *models.GameSettings) (*models.GameSettings, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}

	var stored *models.GameSettings
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		var err error
		stored, err = uow.SettingsRepository().EnsureDefaults(ctx, defaults)
		if err != nil {
			return err
		}
		return uow.Commit()
	})
	return stored, err
}

// SetLimits changes the stake bounds
func (s *settingsService) SetLimits(ctx context.Context, actorID int64, minStake, maxStake int64) (*models.GameSettings, error) {
	if minStake <= 0 || maxStake < minStake {
		return nil, fmt.Errorf("%w: stake limits must satisfy 0 < min <= max", ErrInvalidSetting)
	}
	return s.update(ctx, actorID, func(settings *models.GameSettings) {
		settings.MinStake = minStake
		settings.MaxStake = maxStake
	})
}

// SetOdds changes one payout multiplier
func (s *settingsService) SetOdds(ctx context.Context, actorID int64, name string, value int64) (*models.GameSettings, error) {
	bucket, ok := oddsAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown odds %q, use daxiao, hezhi or baozi", ErrInvalidSetting, name)
	}
	if value <= 0 {
		return nil, fmt.Errorf("%w: odds must be a positive integer", ErrInvalidSetting)
	}

	return s.update(ctx, actorID, func(settings *models.GameSettings) {
		switch bucket {
		case models.BucketSum:
			settings.OddsSum = value
		case models.BucketTriple:
			settings.OddsTriple = value
		default:
			settings.OddsSizeParity = value
		}
	})
}

// SetAllowIrrelevant toggles whether unrelated chat is kept in the game channel
func (s *settingsService) SetAllowIrrelevant(ctx context.Context, actorID int64, allow bool) (*models.GameSettings, error) {
	return s.update(ctx, actorID, func(settings *models.GameSettings) {
		settings.AllowIrrelevant = allow
	})
}

// SetBettingEnabled opens or stops betting. Opening also starts a round when none is
// open or awaiting settlement; the new round is returned.
func (s *settingsService) SetBettingEnabled(ctx context.Context, actorID int64, enabled bool) (*models.GameSettings, *models.Round, error) {
	var settings *models.GameSettings
	var opened *models.Round
	err := s.withAdmin(ctx, actorID, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		settings, err = lockSettings(ctx, uow)
		if err != nil {
			return err
		}
		settings.BettingEnabled = enabled
		if err := uow.SettingsRepository().Update(ctx, settings); err != nil {
			return err
		}

		if !enabled {
			return nil
		}
		opened, err = openRound(ctx, uow, s.now(), s.loc, actorID)
		if err != nil && errors.Is(err, ErrRoundAlreadyOpen) {
			opened = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"actor":   actorID,
		"enabled": enabled,
	}).Info("Betting toggled")
	return settings, opened, nil
}

// SetMedia stores the announcement media for wins or losses
func (s *settingsService) SetMedia(ctx context.Context, actorID int64, kind models.MediaKind, url string) error {
	if kind != models.MediaKindWin && kind != models.MediaKindLose {
		return fmt.Errorf("%w: media kind must be win or lose", ErrInvalidSetting)
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: media url is required", ErrInvalidSetting)
	}

	return s.withAdmin(ctx, actorID, func(ctx context.Context, uow UnitOfWork) error {
		return uow.MediaRepository().Set(ctx, kind, url, actorID)
	})
}

func (s *settingsService) update(ctx context.Context, actorID int64, mutate func(*models.GameSettings)) (*models.GameSettings, error) {
	var settings *models.GameSettings
	err := s.withAdmin(ctx, actorID, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		settings, err = lockSettings(ctx, uow)
		if err != nil {
			return err
		}
		mutate(settings)
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
		}
		return uow.SettingsRepository().Update(ctx, settings)
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) withAdmin(ctx context.Context, actorID int64, fn func(ctx context.Context, uow UnitOfWork) error) error {
	return s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		if err := requireRole(ctx, uow, actorID, models.RoleAdmin); err != nil {
			return err
		}
		if err := fn(ctx, uow); err != nil {
			return err
		}
		return uow.Commit()
	})
}

func lockSettings(ctx context.Context, uow UnitOfWork) (*models.GameSettings, error) {
	settings, err := uow.SettingsRepository().GetForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, integrityError("game settings have not been seeded")
	}
	return settings, nil
}
