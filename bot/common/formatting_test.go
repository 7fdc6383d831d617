package common

import (
	"testing"

	"sicbo/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		balance  int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{30000, "30,000"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBalance(tt.balance))
		})
	}
}

func TestFormatSignedAmount(t *testing.T) {
	assert.Equal(t, "+5,000", FormatSignedAmount(5000))
	assert.Equal(t, "-1,000", FormatSignedAmount(-1000))
}

func TestFormatOutcome(t *testing.T) {
	assert.Equal(t, "1️⃣2️⃣3️⃣ = 6 (small, even)", FormatOutcome(models.Outcome{1, 2, 3}))
	assert.Equal(t, "4️⃣5️⃣6️⃣ = 15 (big, odd)", FormatOutcome(models.Outcome{4, 5, 6}))
	assert.Equal(t, "2️⃣2️⃣2️⃣ = 6 (triple)", FormatOutcome(models.Outcome{2, 2, 2}))
}

func TestFormatBet(t *testing.T) {
	assert.Equal(t, "big · 1,000", FormatBet(models.CategoryBig, "", 1000))
	assert.Equal(t, "sum 11 · 2,000", FormatBet(models.CategorySum, "11", 2000))
}

func TestFormatBetResult(t *testing.T) {
	win := models.BetResultWin
	lose := models.BetResultLose

	assert.Equal(t, "pending", FormatBetResult(&models.Bet{Status: models.BetStatusActive}))
	assert.Equal(t, "cancelled", FormatBetResult(&models.Bet{Status: models.BetStatusCancelled}))
	assert.Equal(t, "won 2,000", FormatBetResult(&models.Bet{Status: models.BetStatusActive, Result: &win, Payout: 2000}))
	assert.Equal(t, "lost", FormatBetResult(&models.Bet{Status: models.BetStatusActive, Result: &lose}))
}
