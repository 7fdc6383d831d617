package service

import (
	"regexp"
	"strconv"
	"strings"

	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

const (
	minSumTarget = 3
	maxSumTarget = 18
)

// Longer keywords come first so leftmost-first matching prefers "big-odd" over "big"
// and "大单" over "大".
var betPattern = regexp.MustCompile(
	`(?i)(big-odd|big-even|small-odd|small-even|big|small|odd|even|triple|大单|大双|小单|小双|豹子|大|小|单|双)\s*(\d+)` +
		`|\b(\d{1,2})\s+(\d+)`)

var looksLikeBetPattern = regexp.MustCompile(`(?i)(big|small|odd|even|triple|大|小|单|双|豹子|\d+)\s*\d+`)

var keywordCategories = map[string][]models.BetCategory{
	"big":        {models.CategoryBig},
	"small":      {models.CategorySmall},
	"odd":        {models.CategoryOdd},
	"even":       {models.CategoryEven},
	"triple":     {models.CategoryTriple},
	"big-odd":    {models.CategoryBig, models.CategoryOdd},
	"big-even":   {models.CategoryBig, models.CategoryEven},
	"small-odd":  {models.CategorySmall, models.CategoryOdd},
	"small-even": {models.CategorySmall, models.CategoryEven},
	"大":          {models.CategoryBig},
	"小":          {models.CategorySmall},
	"单":          {models.CategoryOdd},
	"双":          {models.CategoryEven},
	"豹子":         {models.CategoryTriple},
	"大单":         {models.CategoryBig, models.CategoryOdd},
	"大双":         {models.CategoryBig, models.CategoryEven},
	"小单":         {models.CategorySmall, models.CategoryOdd},
	"小双":         {models.CategorySmall, models.CategoryEven},
}

// Span is a piece of the normalised input that was recognised as a bet
type Span struct {
	Start int
	End   int
	Text  string
}

// ParseResult holds everything the parser recognised in one message
type ParseResult struct {
	Intents  []models.BetIntent
	Spans    []Span
	Leftover string // Normalised text outside every span
}

// ParseBets extracts bet intents from free text. It never fails; unrecognised text yields no intents.
func ParseBets(text string) []models.BetIntent {
	return Parse(text).Intents
}

// Parse extracts bet intents together with the spans they came from
func Parse(text string) ParseResult {
	normalized := strings.Join(strings.Fields(text), " ")

	var result ParseResult
	seen := make(map[models.BetIntent]bool)
	add := func(intent models.BetIntent) {
		if seen[intent] {
			return
		}
		seen[intent] = true
		result.Intents = append(result.Intents, intent)
	}

	var leftover strings.Builder
	last := 0
	for _, m := range betPattern.FindAllStringSubmatchIndex(normalized, -1) {
		leftover.WriteString(normalized[last:m[0]])
		last = m[1]
		result.Spans = append(result.Spans, Span{Start: m[0], End: m[1], Text: normalized[m[0]:m[1]]})

		if m[2] >= 0 {
			keyword := strings.ToLower(normalized[m[2]:m[3]])
			stake, ok := parseStake(normalized[m[4]:m[5]])
			if !ok {
				continue
			}
			for _, category := range keywordCategories[keyword] {
				add(models.BetIntent{Category: category, Stake: stake})
			}
			continue
		}

		target, err := strconv.Atoi(normalized[m[6]:m[7]])
		if err != nil || target < minSumTarget || target > maxSumTarget {
			continue
		}
		stake, ok := parseStake(normalized[m[8]:m[9]])
		if !ok {
			continue
		}
		add(models.BetIntent{Category: models.CategorySum, Value: strconv.Itoa(target), Stake: stake})
	}
	leftover.WriteString(normalized[last:])
	result.Leftover = strings.Join(strings.Fields(leftover.String()), " ")

	if len(result.Intents) > 0 {
		log.WithFields(log.Fields{
			"input":   normalized,
			"intents": len(result.Intents),
		}).Debug("Parsed bet intents")
	}

	return result
}

// LooksLikeBet reports whether text resembles a bet, even if it does not parse into one
func LooksLikeBet(text string) bool {
	return looksLikeBetPattern.MatchString(text)
}

func parseStake(s string) (int64, bool) {
	stake, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return stake, true
}
