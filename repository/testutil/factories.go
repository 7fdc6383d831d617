package testutil

import (
	"time"

	"sicbo/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(discordID int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		DiscordID: discordID,
		Username:  username,
		Balance:   100000,
		Role:      models.RoleNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(discordID int64, username string, balance int64) *models.User {
	user := CreateTestUser(discordID, username)
	user.Balance = balance
	return user
}

// CreateTestAdmin creates a test user holding the admin role
func CreateTestAdmin(discordID int64, username string) *models.User {
	user := CreateTestUser(discordID, username)
	user.Role = models.RoleAdmin
	return user
}

// CreateTestSettings returns the stock game settings
func CreateTestSettings() *models.GameSettings {
	return &models.GameSettings{
		MinStake:          1000,
		MaxStake:          30000,
		MaxSizeParityBets: 2,
		MaxSumBets:        3,
		MaxTripleBets:     1,
		OddsSizeParity:    2,
		OddsSum:           7,
		OddsTriple:        11,
		BettingEnabled:    true,
		AllowIrrelevant:   false,
		UpdatedAt:         time.Now(),
	}
}

// CreateTestRound creates an open round with the given ID
func CreateTestRound(id string) *models.Round {
	return &models.Round{
		ID:        id,
		StartedAt: time.Now(),
		Status:    models.RoundStatusOpen,
	}
}

// CreateTestClosedRound creates a closed, unsettled round with an outcome
func CreateTestClosedRound(id string, outcome models.Outcome) *models.Round {
	round := CreateTestRound(id)
	now := time.Now()
	round.Status = models.RoundStatusClosed
	round.Outcome = &outcome
	round.EndedAt = &now
	return round
}

// CreateTestBet creates an active bet
func CreateTestBet(id, discordID int64, roundID string, category models.BetCategory, value string, stake int64) *models.Bet {
	return &models.Bet{
		ID:        id,
		DiscordID: discordID,
		RoundID:   roundID,
		Category:  category,
		Value:     value,
		Stake:     stake,
		Status:    models.BetStatusActive,
		PlacedAt:  time.Now(),
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistoryWithAmounts(discordID int64, before, after, change int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		DiscordID:       discordID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    change,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}
