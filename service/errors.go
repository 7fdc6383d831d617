package service

import (
	"errors"
	"fmt"

	"sicbo/models"
)

// Error classes. Every error returned by the engines wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("state conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrIntegrity         = errors.New("integrity violation")
)

var (
	ErrUnregistered     = fmt.Errorf("%w: user is not registered", ErrValidation)
	ErrNotAuthorized    = fmt.Errorf("%w: permission denied", ErrValidation)
	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidSetting   = fmt.Errorf("%w: invalid setting", ErrValidation)
	ErrMalformedBet     = fmt.Errorf("%w: bet could not be understood", ErrValidation)
	ErrNoBetsFound      = fmt.Errorf("%w: no bets found", ErrValidation)
	ErrConflictingSides = fmt.Errorf("%w: cannot bet on both big and small or both odd and even", ErrValidation)
	ErrStakeOutOfRange  = fmt.Errorf("%w: stake out of range", ErrValidation)
	ErrLimitExceeded    = fmt.Errorf("%w: bet limit exceeded", ErrValidation)
	ErrInvalidDieValue  = fmt.Errorf("%w: die value must be between 1 and 6", ErrValidation)
	ErrDiceSymbolCount  = fmt.Errorf("%w: exactly three dice are required", ErrValidation)
	ErrNothingToCancel  = fmt.Errorf("%w: no matching bets to cancel", ErrValidation)

	ErrBettingDisabled    = fmt.Errorf("%w: betting is disabled", ErrConflict)
	ErrNoActiveRound      = fmt.Errorf("%w: no active round", ErrConflict)
	ErrRoundClosed        = fmt.Errorf("%w: round is closed", ErrConflict)
	ErrRoundAlreadyOpen   = fmt.Errorf("%w: a round is already open or awaiting settlement", ErrConflict)
	ErrRoundNotFound      = fmt.Errorf("%w: round not found", ErrConflict)
	ErrRoundNotOpen       = fmt.Errorf("%w: round is not open", ErrConflict)
	ErrRoundAlreadyClosed = fmt.Errorf("%w: round already has an outcome", ErrConflict)
	ErrRoundNotClosed     = fmt.Errorf("%w: round has no outcome yet", ErrConflict)
	ErrAlreadySettled     = fmt.Errorf("%w: round already settled", ErrConflict)
	ErrDailyRoundLimit    = fmt.Errorf("%w: no round numbers left today", ErrConflict)
)

// LimitExceededError reports which bucket ceiling a placement would break
type LimitExceededError struct {
	Bucket   models.BetBucket
	Ceiling  int
	Existing int
	New      int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s bets limited to %d per round (already have %d, adding %d)",
		e.Bucket, e.Ceiling, e.Existing, e.New)
}

func (e *LimitExceededError) Unwrap() error {
	return ErrLimitExceeded
}

// StakeOutOfRangeError reports a stake outside the configured bounds
type StakeOutOfRangeError struct {
	Stake int64
	Min   int64
	Max   int64
}

func (e *StakeOutOfRangeError) Error() string {
	return fmt.Sprintf("stake %d must be between %d and %d", e.Stake, e.Min, e.Max)
}

func (e *StakeOutOfRangeError) Unwrap() error {
	return ErrStakeOutOfRange
}

// InsufficientFundsError reports the shortfall for a debit
type InsufficientFundsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Balance, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// integrityError wraps an unexpected storage state so the unit of work is rolled back
func integrityError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

