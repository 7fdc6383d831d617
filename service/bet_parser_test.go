package service

import (
	"testing"

	"sicbo/models"

	"github.com/stretchr/testify/assert"
)

func TestParseBets(t *testing.T) {
	big := func(stake int64) models.BetIntent { return models.BetIntent{Category: models.CategoryBig, Stake: stake} }
	small := func(stake int64) models.BetIntent { return models.BetIntent{Category: models.CategorySmall, Stake: stake} }
	odd := func(stake int64) models.BetIntent { return models.BetIntent{Category: models.CategoryOdd, Stake: stake} }
	even := func(stake int64) models.BetIntent { return models.BetIntent{Category: models.CategoryEven, Stake: stake} }
	triple := func(stake int64) models.BetIntent { return models.BetIntent{Category: models.CategoryTriple, Stake: stake} }
	sum := func(value string, stake int64) models.BetIntent {
		return models.BetIntent{Category: models.CategorySum, Value: value, Stake: stake}
	}

	tests := []struct {
		name    string
		content string
		want    []models.BetIntent
	}{
		{
			name:    "compound keyword expands to two intents",
			content: "big-odd 2000",
			want:    []models.BetIntent{big(2000), odd(2000)},
		},
		{
			name:    "keyword and sum in one message",
			content: "small 1000 11 500",
			want:    []models.BetIntent{small(1000), sum("11", 500)},
		},
		{
			name:    "sum outside range is skipped",
			content: "2 1000",
			want:    nil,
		},
		{
			name:    "sum above range is skipped",
			content: "19 1000",
			want:    nil,
		},
		{
			name:    "unrelated text",
			content: "hello",
			want:    nil,
		},
		{
			name:    "duplicates collapse",
			content: "big 1000 big 1000 big 2000",
			want:    []models.BetIntent{big(1000), big(2000)},
		},
		{
			name:    "keyword without space and mixed case",
			content: "BIG1000   Even3000",
			want:    []models.BetIntent{big(1000), even(3000)},
		},
		{
			name:    "chat aliases",
			content: "大单1000 豹子 500 小2000",
			want:    []models.BetIntent{big(1000), odd(1000), triple(500), small(2000)},
		},
		{
			name:    "compound alias",
			content: "小双 1500",
			want:    []models.BetIntent{small(1500), even(1500)},
		},
		{
			name:    "triple and sum bounds",
			content: "triple 1000 3 1000 18 1000",
			want:    []models.BetIntent{triple(1000), sum("3", 1000), sum("18", 1000)},
		},
		{
			name:    "sum needs a space",
			content: "111000",
			want:    nil,
		},
		{
			name:    "sum does not start inside a longer number",
			content: "115 1000",
			want:    nil,
		},
		{
			name:    "overflowing stake is skipped",
			content: "big 99999999999999999999 odd 1000",
			want:    []models.BetIntent{odd(1000)},
		},
		{
			name:    "newlines are whitespace",
			content: "big 1000\n\n9 2000",
			want:    []models.BetIntent{big(1000), sum("9", 2000)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBets(tt.content))
		})
	}
}

func TestParse_SpansAndLeftover(t *testing.T) {
	result := Parse("  please   big 1000 and 11 500 thanks ")

	assert.Len(t, result.Intents, 2)
	assert.Len(t, result.Spans, 2)
	assert.Equal(t, "big 1000", result.Spans[0].Text)
	assert.Equal(t, "11 500", result.Spans[1].Text)
	assert.Equal(t, "please and thanks", result.Leftover)
}

func TestLooksLikeBet(t *testing.T) {
	assert.True(t, LooksLikeBet("big 20x"))
	assert.True(t, LooksLikeBet("2 1000"))
	assert.True(t, LooksLikeBet("大 0"))
	assert.False(t, LooksLikeBet("hello there"))
	assert.False(t, LooksLikeBet("big"))
}
