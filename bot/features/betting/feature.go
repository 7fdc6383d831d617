package betting

import (
	"context"
	"strings"

	"sicbo/bot/common"
	"sicbo/models"
	"sicbo/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature places and cancels bets written as chat messages
type Feature struct {
	betting      service.BettingService
	cancellation service.CancellationService
	rounds       service.RoundService
}

// New creates a new betting feature instance
func New(betting service.BettingService, cancellation service.CancellationService, rounds service.RoundService) *Feature {
	return &Feature{
		betting:      betting,
		cancellation: cancellation,
		rounds:       rounds,
	}
}

// HandleBetMessage places every bet in the message for its author
func (f *Feature) HandleBetMessage(s *discordgo.Session, m *discordgo.MessageCreate, actor *models.User) {
	ctx := context.Background()

	result, err := f.betting.PlaceBets(ctx, actor.DiscordID, m.Content)
	if err != nil {
		common.ReplyWithError(s, m, err, "Bet placement rejected")
		return
	}

	log.WithFields(log.Fields{
		"user_id":     actor.DiscordID,
		"round_id":    result.Round.ID,
		"bets":        len(result.Bets),
		"total_stake": result.TotalStake,
		"opened_now":  result.OpenedNow,
	}).Info("Bets placed")

	common.ReplyWithEmbed(s, m, buildPlacementEmbed(common.AuthorName(m.Message), result))
}

// HandleCancelMessage withdraws bets from the active round. A cancel sent as a reply withdraws
// only the bets quoted by the replied-to message; a plain cancel withdraws everything.
func (f *Feature) HandleCancelMessage(s *discordgo.Session, m *discordgo.MessageCreate, actor *models.User) {
	ctx := context.Background()

	scope, err := cancelScope(m.Message)
	if err != nil {
		common.ReplyWithError(s, m, err, "Cancel reply quotes no bets")
		return
	}

	round, err := f.rounds.ActiveRound(ctx)
	if err != nil {
		common.ReplyWithError(s, m, err, "Failed to load active round")
		return
	}
	if round == nil {
		common.ReplyWithError(s, m, service.ErrNoActiveRound, "Cancel without active round")
		return
	}

	result, err := f.cancellation.Cancel(ctx, actor.DiscordID, round.ID, scope)
	if err != nil {
		common.ReplyWithError(s, m, err, "Cancellation rejected")
		return
	}

	log.WithFields(log.Fields{
		"user_id":   actor.DiscordID,
		"round_id":  round.ID,
		"cancelled": len(result.Cancelled),
		"refund":    result.Refund,
		"all":       scope.IsAll(),
	}).Info("Bets cancelled")

	common.ReplyWithEmbed(s, m, buildCancellationEmbed(common.AuthorName(m.Message), result))
}

var errQuotedBetUnrecognized = common.NewUserError(
	"Could not identify the bet in the quoted message.",
	"Cancel reply quotes no bets",
)

// cancelScope picks the bets a cancel message refers to. Replies only ever cancel the
// quoted bets, matched against the sender's own active bets.
func cancelScope(m *discordgo.Message) (service.CancelScope, error) {
	ref := m.ReferencedMessage
	if ref == nil {
		return service.CancelAll(), nil
	}
	intents := service.ParseBets(quotedBetText(ref))
	if len(intents) == 0 {
		return service.CancelScope{}, errQuotedBetUnrecognized
	}
	return service.CancelMatching(intents), nil
}

// quotedBetText collects the bet text of a message: its content plus the embed footers
// the bot writes on placement confirmations
func quotedBetText(m *discordgo.Message) string {
	parts := []string{m.Content}
	for _, embed := range m.Embeds {
		if embed.Footer != nil {
			parts = append(parts, embed.Footer.Text)
		}
	}
	return strings.Join(parts, "\n")
}
