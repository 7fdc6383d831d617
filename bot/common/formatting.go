package common

import (
	"fmt"
	"strings"
	"time"

	"sicbo/models"
)

var dieFaces = [...]string{"", "1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣"}

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance int64) string {
	if balance < 0 {
		return "-" + FormatBalance(-balance)
	}

	str := fmt.Sprintf("%d", balance)

	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatSignedAmount formats a ledger change with an explicit sign
func FormatSignedAmount(amount int64) string {
	if amount > 0 {
		return "+" + FormatBalance(amount)
	}
	return FormatBalance(amount)
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatDie returns the keycap emoji for a face
func FormatDie(face int) string {
	if face < 1 || face > 6 {
		return "?"
	}
	return dieFaces[face]
}

// FormatOutcome renders an outcome as keycaps followed by its total and classification
func FormatOutcome(o models.Outcome) string {
	faces := FormatDie(o[0]) + FormatDie(o[1]) + FormatDie(o[2])
	if o.IsTriple() {
		return fmt.Sprintf("%s = %d (triple)", faces, o.Total())
	}
	return fmt.Sprintf("%s = %d (%s, %s)", faces, o.Total(), o.Size(), o.Parity())
}

// FormatBet renders a bet the way players type it, e.g. "big 1,000" or "11 2,000"
func FormatBet(category models.BetCategory, value string, stake int64) string {
	if category == models.CategorySum {
		return fmt.Sprintf("sum %s · %s", value, FormatBalance(stake))
	}
	return fmt.Sprintf("%s · %s", category, FormatBalance(stake))
}

// FormatBetResult renders a settled bet's result
func FormatBetResult(b *models.Bet) string {
	switch {
	case b.Status == models.BetStatusCancelled:
		return "cancelled"
	case b.Result == nil:
		return "pending"
	case *b.Result == models.BetResultWin:
		return "won " + FormatBalance(b.Payout)
	default:
		return "lost"
	}
}

func bucketLabel(bucket models.BetBucket) string {
	switch bucket {
	case models.BucketSum:
		return "sum"
	case models.BucketTriple:
		return "triple"
	default:
		return "big/small/odd/even"
	}
}
