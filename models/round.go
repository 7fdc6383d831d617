package models

import "time"

// RoundStatus represents the lifecycle state of a round
type RoundStatus string

const (
	RoundStatusOpen   RoundStatus = "open"
	RoundStatusClosed RoundStatus = "closed"
)

// Round is one betting cycle ending in a single dice outcome
type Round struct {
	ID        string      `db:"id"` // YYYYMMDD + 3-digit daily sequence
	StartedAt time.Time   `db:"started_at"`
	EndedAt   *time.Time  `db:"ended_at"`
	Status    RoundStatus `db:"status"`
	Outcome   *Outcome    `db:"outcome"`
	SettledAt *time.Time  `db:"settled_at"`
}

// IsOpen returns true while bets may be placed or cancelled
func (r *Round) IsOpen() bool {
	return r.Status == RoundStatusOpen
}

// IsPendingSettlement returns true for a closed round whose settlement has not run
func (r *Round) IsPendingSettlement() bool {
	return r.Status == RoundStatusClosed && r.SettledAt == nil
}
