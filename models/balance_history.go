package models

import (
	"errors"
	"time"
)

// TransactionType is the reason tag of a ledger entry
type TransactionType string

const (
	TransactionTypeRecharge   TransactionType = "recharge"
	TransactionTypeWithdraw   TransactionType = "withdraw"
	TransactionTypeBet        TransactionType = "bet"
	TransactionTypePayout     TransactionType = "payout"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdminClear TransactionType = "admin_clear"
)

// IsCredit returns true for reasons that add to a balance
func (tt TransactionType) IsCredit() bool {
	return tt == TransactionTypeRecharge ||
		tt == TransactionTypePayout ||
		tt == TransactionTypeRefund
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeBet   RelatedType = "bet"
	RelatedTypeRound RelatedType = "round"
)

// SystemActorID is the actor recorded for changes not made by a person
const SystemActorID int64 = 0

// BalanceHistory is an append-only ledger entry. The sum of ChangeAmount over a
// user's entries equals that user's balance.
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	DiscordID           int64           `db:"discord_id"`
	ActorID             int64           `db:"actor_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

// ValidateTransaction performs basic validation on the entry
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.ChangeAmount == 0 {
		return errors.New("change amount cannot be zero")
	}

	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}

	if bh.BalanceAfter < 0 {
		return errors.New("balance cannot go negative")
	}

	if bh.TransactionType.IsCredit() && bh.ChangeAmount < 0 {
		return errors.New("credit entry with negative amount")
	}

	return nil
}

// LedgerTotals aggregates the ledger across all users
type LedgerTotals struct {
	Recharged    int64
	Withdrawn    int64
	Outstanding  int64 // Sum of all current balances
	PaidOut      int64
	Staked       int64
	Refunded     int64
	AdminCleared int64
}
