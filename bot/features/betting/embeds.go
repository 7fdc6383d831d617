package betting

import (
	"fmt"
	"strings"

	"sicbo/bot/common"
	"sicbo/models"

	"github.com/bwmarrin/discordgo"
)

func buildPlacementEmbed(name string, result *models.PlacementResult) *discordgo.MessageEmbed {
	var lines []string
	for _, bet := range result.Bets {
		lines = append(lines, "• "+common.FormatBet(bet.Category, bet.Value, bet.Stake))
	}

	description := strings.Join(lines, "\n")
	if result.OpenedNow {
		description = fmt.Sprintf("🎲 Round **%s** is now open.\n\n%s", result.Round.ID, description)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("✅ %s placed %d bet(s)", name, len(result.Bets)),
		Description: description,
		Color:       common.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Round", Value: result.Round.ID, Inline: true},
			{Name: "Staked", Value: common.FormatBalance(result.TotalStake), Inline: true},
			{Name: "Balance", Value: common.FormatBalance(result.NewBalance), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Reply cancel to withdraw: " + betText(result.Bets),
		},
	}
}

// betText writes bets back in the chat syntax the parser reads
func betText(bets []*models.Bet) string {
	parts := make([]string, 0, len(bets))
	for _, bet := range bets {
		if bet.Category == models.CategorySum {
			parts = append(parts, fmt.Sprintf("%s %d", bet.Value, bet.Stake))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", bet.Category, bet.Stake))
	}
	return strings.Join(parts, ", ")
}

func buildCancellationEmbed(name string, result *models.CancellationResult) *discordgo.MessageEmbed {
	var lines []string
	for _, bet := range result.Cancelled {
		lines = append(lines, "• "+common.FormatBet(bet.Category, bet.Value, bet.Stake))
	}

	title := fmt.Sprintf("↩️ %s cancelled %d bet(s)", name, len(result.Cancelled))
	if result.AllActive {
		title = fmt.Sprintf("↩️ %s cancelled all bets", name)
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.Join(lines, "\n"),
		Color:       common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Round", Value: result.RoundID, Inline: true},
			{Name: "Refund", Value: common.FormatBalance(result.Refund), Inline: true},
			{Name: "Balance", Value: common.FormatBalance(result.NewBalance), Inline: true},
		},
	}
}
