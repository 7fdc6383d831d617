package models

// UserSettlement aggregates one user's bets in a settled round
type UserSettlement struct {
	DiscordID   int64
	Username    string
	Bets        []*Bet
	TotalStaked int64
	TotalPayout int64
	NewBalance  int64
}

// IsWinner returns true when any of the user's bets paid out
func (u *UserSettlement) IsWinner() bool {
	return u.TotalPayout > 0
}

// SettlementReport is handed to the transport for the outcome announcement
type SettlementReport struct {
	RoundID     string
	DrawnBy     int64 // Discord ID of the admin who submitted the dice, 0 when settled directly
	Outcome     Outcome
	Total       int
	Size        BetCategory
	Parity      BetCategory
	IsTriple    bool
	HasWinners  bool
	Users       []*UserSettlement // Every bettor, in first-bet order
	TotalStaked int64
	TotalPayout int64
	Media       *AnnouncementMedia
}

// Winners returns the users who received a payout
func (r *SettlementReport) Winners() []*UserSettlement {
	var winners []*UserSettlement
	for _, u := range r.Users {
		if u.IsWinner() {
			winners = append(winners, u)
		}
	}
	return winners
}

// CancellationResult describes a successful cancellation
type CancellationResult struct {
	RoundID    string
	Cancelled  []*Bet
	Refund     int64
	NewBalance int64
	AllActive  bool
}
