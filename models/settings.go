package models

import (
	"errors"
	"fmt"
	"time"
)

// GameSettings are the operator-tunable parameters of the game
type GameSettings struct {
	MinStake          int64     `db:"min_stake"`
	MaxStake          int64     `db:"max_stake"`
	MaxSizeParityBets int       `db:"max_size_parity_bets"`
	MaxSumBets        int       `db:"max_sum_bets"`
	MaxTripleBets     int       `db:"max_triple_bets"`
	OddsSizeParity    int64     `db:"odds_size_parity"`
	OddsSum           int64     `db:"odds_sum"`
	OddsTriple        int64     `db:"odds_triple"`
	BettingEnabled    bool      `db:"betting_enabled"`
	AllowIrrelevant   bool      `db:"allow_irrelevant"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Ceiling returns the per-user, per-round bet count limit for a bucket
func (s *GameSettings) Ceiling(bucket BetBucket) int {
	switch bucket {
	case BucketSum:
		return s.MaxSumBets
	case BucketTriple:
		return s.MaxTripleBets
	default:
		return s.MaxSizeParityBets
	}
}

// Multiplier returns the payout multiplier for a category
func (s *GameSettings) Multiplier(category BetCategory) int64 {
	switch category {
	case CategorySum:
		return s.OddsSum
	case CategoryTriple:
		return s.OddsTriple
	default:
		return s.OddsSizeParity
	}
}

// Validate checks the settings are internally consistent
func (s *GameSettings) Validate() error {
	if s.MinStake <= 0 {
		return errors.New("minimum stake must be positive")
	}
	if s.MaxStake < s.MinStake {
		return fmt.Errorf("maximum stake %d is below minimum stake %d", s.MaxStake, s.MinStake)
	}
	if s.MaxSizeParityBets < 0 || s.MaxSumBets < 0 || s.MaxTripleBets < 0 {
		return errors.New("bet limits cannot be negative")
	}
	if s.OddsSizeParity <= 0 || s.OddsSum <= 0 || s.OddsTriple <= 0 {
		return errors.New("odds must be positive")
	}
	return nil
}

// MediaKind selects which announcement media to show
type MediaKind string

const (
	MediaKindWin  MediaKind = "win"
	MediaKindLose MediaKind = "lose"
)

// AnnouncementMedia is an image or animation shown with a settlement announcement
type AnnouncementMedia struct {
	ID        int64     `db:"id"`
	Kind      MediaKind `db:"kind"`
	URL       string    `db:"url"`
	AddedBy   int64     `db:"added_by"`
	CreatedAt time.Time `db:"created_at"`
}
