package dice

import (
	"fmt"
	"strings"

	"sicbo/bot/common"
	"sicbo/models"

	"github.com/bwmarrin/discordgo"
)

const maxListedBettors = 15

func buildSettlementEmbed(report *models.SettlementReport) *discordgo.MessageEmbed {
	color := common.ColorDanger
	title := fmt.Sprintf("🎲 Round %s: no winners", report.RoundID)
	if report.HasWinners {
		color = common.ColorSuccess
		title = fmt.Sprintf("🎉 Round %s: %d winner(s)", report.RoundID, len(report.Winners()))
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: common.FormatOutcome(report.Outcome),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Staked", Value: common.FormatBalance(report.TotalStaked), Inline: true},
			{Name: "Paid out", Value: common.FormatBalance(report.TotalPayout), Inline: true},
		},
	}

	if len(report.Users) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Results",
			Value: formatBettors(report.Users),
		})
	}

	if report.DrawnBy != 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Rolled by", Value: common.GetUserMention(report.DrawnBy), Inline: true,
		})
	}

	if report.Media != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: report.Media.URL}
	}

	return embed
}

// attachCard shows the rendered outcome card; media takes the main image slot when present
func attachCard(embed *discordgo.MessageEmbed, url string) {
	if embed.Image == nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: url}
		return
	}
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
}

func formatBettors(users []*models.UserSettlement) string {
	var lines []string
	for i, u := range users {
		if i == maxListedBettors {
			lines = append(lines, fmt.Sprintf("…and %d more", len(users)-maxListedBettors))
			break
		}
		line := fmt.Sprintf("%s staked %s", u.Username, common.FormatBalance(u.TotalStaked))
		if u.IsWinner() {
			line = fmt.Sprintf("🏆 %s won %s (balance %s)", u.Username,
				common.FormatBalance(u.TotalPayout), common.FormatBalance(u.NewBalance))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
