package admin

import (
	"fmt"
	"strings"

	"sicbo/bot/common"
	"sicbo/models"
	"sicbo/service"

	"github.com/bwmarrin/discordgo"
)

func formatOdds(s *models.GameSettings) string {
	return fmt.Sprintf("Big/small/odd/even pays %dx, sum pays %dx, triple pays %dx.",
		s.OddsSizeParity, s.OddsSum, s.OddsTriple)
}

func formatReturn(a service.OddsAnalysis) string {
	return fmt.Sprintf("big/small/odd/even %.1f%%, triple %.1f%%, sum %.1f%% at best (%d)",
		a.SizeParity*100, a.Triple*100, a.SumBest*100, a.BestSum)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func buildSettingsEmbed(s *models.GameSettings) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "⚙️ Game settings",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stake", Value: fmt.Sprintf("%s to %s", common.FormatBalance(s.MinStake), common.FormatBalance(s.MaxStake)), Inline: true},
			{Name: "Betting", Value: onOff(s.BettingEnabled), Inline: true},
			{Name: "Chat", Value: onOff(s.AllowIrrelevant), Inline: true},
			{Name: "Limits per round", Value: fmt.Sprintf("big/small/odd/even %d, sum %d, triple %d",
				s.MaxSizeParityBets, s.MaxSumBets, s.MaxTripleBets)},
			{Name: "Odds", Value: formatOdds(s)},
			{Name: "Return to player", Value: formatReturn(service.AnalyzeOdds(s))},
		},
	}
}

func buildTotalsEmbed(t *models.LedgerTotals) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Ledger totals",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Recharged", Value: common.FormatBalance(t.Recharged), Inline: true},
			{Name: "Withdrawn", Value: common.FormatBalance(t.Withdrawn), Inline: true},
			{Name: "Outstanding", Value: common.FormatBalance(t.Outstanding), Inline: true},
			{Name: "Staked", Value: common.FormatBalance(t.Staked), Inline: true},
			{Name: "Paid out", Value: common.FormatBalance(t.PaidOut), Inline: true},
			{Name: "House net", Value: common.FormatSignedAmount(t.Staked - t.PaidOut), Inline: true},
		},
	}
}

func buildLowBalancesEmbed(users []*models.User) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🪫 Low balances",
		Color: common.ColorWarning,
	}
	if len(users) == 0 {
		embed.Description = "Nobody is running low."
		return embed
	}

	var lines []string
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("%s (`%d`): %s", u.Username, u.DiscordID, common.FormatBalance(u.Balance)))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}
