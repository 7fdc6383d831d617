package models

import "time"

// BetCategory is what a bet wagers on
type BetCategory string

const (
	CategoryBig    BetCategory = "big"
	CategorySmall  BetCategory = "small"
	CategoryOdd    BetCategory = "odd"
	CategoryEven   BetCategory = "even"
	CategorySum    BetCategory = "sum"
	CategoryTriple BetCategory = "triple"
)

// BetBucket groups categories that share a per-round ceiling
type BetBucket string

const (
	BucketSizeParity BetBucket = "size_parity"
	BucketSum        BetBucket = "sum"
	BucketTriple     BetBucket = "triple"
)

// Bucket returns the limit bucket for the category
func (c BetCategory) Bucket() BetBucket {
	switch c {
	case CategorySum:
		return BucketSum
	case CategoryTriple:
		return BucketTriple
	default:
		return BucketSizeParity
	}
}

// IsSizeOrParity returns true for big, small, odd and even
func (c BetCategory) IsSizeOrParity() bool {
	return c == CategoryBig || c == CategorySmall || c == CategoryOdd || c == CategoryEven
}

// BetStatus is the placement state of a bet
type BetStatus string

const (
	BetStatusActive    BetStatus = "active"
	BetStatusCancelled BetStatus = "cancelled"
)

// BetResult is the settlement result of a bet
type BetResult string

const (
	BetResultWin  BetResult = "win"
	BetResultLose BetResult = "lose"
)

// BetIntent is a parsed bet declaration not yet bound to a round
type BetIntent struct {
	Category BetCategory
	Value    string // Target sum for sum bets, empty otherwise
	Stake    int64
}

// Matches reports whether the bet was declared with exactly this intent
func (i BetIntent) Matches(b *Bet) bool {
	return b.Category == i.Category && b.Value == i.Value && b.Stake == i.Stake
}

// Bet represents a bet on a round
type Bet struct {
	ID        int64       `db:"id"`
	DiscordID int64       `db:"discord_id"`
	RoundID   string      `db:"round_id"`
	Category  BetCategory `db:"category"`
	Value     string      `db:"value"`
	Stake     int64       `db:"stake"`
	Status    BetStatus   `db:"status"`
	Result    *BetResult  `db:"result"`
	Payout    int64       `db:"payout"`
	PlacedAt  time.Time   `db:"placed_at"`
	SettledAt *time.Time  `db:"settled_at"`
}

// Intent returns the declaration the bet was placed with
func (b *Bet) Intent() BetIntent {
	return BetIntent{Category: b.Category, Value: b.Value, Stake: b.Stake}
}

// IsActive returns true while the bet has not been cancelled
func (b *Bet) IsActive() bool {
	return b.Status == BetStatusActive
}

// IsWin returns true once the bet has been settled as a win
func (b *Bet) IsWin() bool {
	return b.Result != nil && *b.Result == BetResultWin
}

// BetWithUser is a bet joined with its owner's display name for history listings
type BetWithUser struct {
	Bet
	Username string `db:"username"`
}

// PlacementResult is returned to the transport after bets are accepted
type PlacementResult struct {
	Round      *Round
	Bets       []*Bet
	TotalStake int64
	NewBalance int64
	OpenedNow  bool // The placement opened the round
}
