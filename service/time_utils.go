package service

import (
	"fmt"
	"time"
)

// HistoryWindow is how far back bet listings reach
const HistoryWindow = 24 * time.Hour

// MaxRoundsPerDay is the largest daily sequence that fits the three-digit suffix
const MaxRoundsPerDay = 999

// RoundDayPrefix returns the YYYYMMDD part of a round ID for the given instant in loc
func RoundDayPrefix(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("20060102")
}

// FormatRoundID joins the day prefix and a 1-based daily sequence
func FormatRoundID(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// HistoryWindowStart returns the start of the rolling bet history window
func HistoryWindowStart(now time.Time) time.Time {
	return now.Add(-HistoryWindow)
}
