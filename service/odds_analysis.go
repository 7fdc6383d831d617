package service

import (
	"strconv"

	"sicbo/models"
)

// OddsAnalysis is the expected return per unit staked under the current odds
type OddsAnalysis struct {
	SizeParity float64
	Triple     float64
	SumBest    float64
	SumWorst   float64
	BestSum    int
}

// ReturnToPlayer enumerates all 216 outcomes and returns the mean payout of a
// one-unit bet, stake included
func ReturnToPlayer(category models.BetCategory, value string, settings *models.GameSettings) float64 {
	bet := &models.Bet{Category: category, Value: value, Stake: 1}
	var paid int64
	outcomes := 0
	for a := 1; a <= 6; a++ {
		for b := 1; b <= 6; b++ {
			for c := 1; c <= 6; c++ {
				_, payout := EvaluateBet(bet, models.Outcome{a, b, c}, settings)
				paid += payout
				outcomes++
			}
		}
	}
	return float64(paid) / float64(outcomes)
}

// AnalyzeOdds summarises the return of every bet class
func AnalyzeOdds(settings *models.GameSettings) OddsAnalysis {
	analysis := OddsAnalysis{
		SizeParity: ReturnToPlayer(models.CategoryBig, "", settings),
		Triple:     ReturnToPlayer(models.CategoryTriple, "", settings),
		SumWorst:   -1,
	}
	for target := minSumTarget; target <= maxSumTarget; target++ {
		rtp := ReturnToPlayer(models.CategorySum, strconv.Itoa(target), settings)
		if rtp > analysis.SumBest {
			analysis.SumBest = rtp
			analysis.BestSum = target
		}
		if analysis.SumWorst < 0 || rtp < analysis.SumWorst {
			analysis.SumWorst = rtp
		}
	}
	return analysis
}
