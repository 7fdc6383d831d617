package history

import (
	"fmt"
	"strings"

	"sicbo/bot/common"
	"sicbo/models"

	"github.com/bwmarrin/discordgo"
)

func buildMyBetsEmbed(username string, bets []*models.Bet) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📜 %s's bets (last 24h)", username),
		Color: common.ColorInfo,
	}
	if len(bets) == 0 {
		embed.Description = "No bets in the last 24 hours."
		return embed
	}

	var staked, paid int64
	var lines []string
	for i, b := range bets {
		if b.Status == models.BetStatusActive {
			staked += b.Stake
			paid += b.Payout
		}
		if i < common.MaxHistoryEntries {
			lines = append(lines, formatBetLine(b))
		}
	}
	embed.Description = strings.Join(lines, "\n")
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Bets", Value: fmt.Sprintf("%d", len(bets)), Inline: true},
		{Name: "Staked", Value: common.FormatBalance(staked), Inline: true},
		{Name: "Net", Value: common.FormatSignedAmount(paid - staked), Inline: true},
	}
	return embed
}

func buildAllBetsEmbed(bets []*models.BetWithUser) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📒 All bets (last 24h)",
		Color: common.ColorInfo,
	}
	if len(bets) == 0 {
		embed.Description = "No bets in the last 24 hours."
		return embed
	}

	var lines []string
	for i, b := range bets {
		if i == common.MaxHistoryEntries {
			lines = append(lines, fmt.Sprintf("…and %d more", len(bets)-common.MaxHistoryEntries))
			break
		}
		lines = append(lines, fmt.Sprintf("**%s** %s", b.Username, formatBetLine(&b.Bet)))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

func buildResultsEmbed(rounds []*models.Round) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎲 Latest results",
		Color: common.ColorPrimary,
	}
	if len(rounds) == 0 {
		embed.Description = "No rounds have been settled yet."
		return embed
	}

	var lines []string
	for _, r := range rounds {
		if r.Outcome == nil {
			continue
		}
		line := fmt.Sprintf("`%s` %s", r.ID, common.FormatOutcome(*r.Outcome))
		if r.EndedAt != nil {
			line += " " + common.FormatDiscordTimestamp(*r.EndedAt, "R")
		}
		lines = append(lines, line)
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

func formatBetLine(b *models.Bet) string {
	return fmt.Sprintf("`%s` %s: %s", b.RoundID, common.FormatBet(b.Category, b.Value, b.Stake), common.FormatBetResult(b))
}
