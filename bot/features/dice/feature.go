package dice

import (
	"bytes"
	"context"
	"fmt"

	"sicbo/bot/common"
	"sicbo/bot/render"
	"sicbo/models"
	"sicbo/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature turns admin dice into round outcomes and announces the settlement
type Feature struct {
	aggregator *service.DiceAggregator
	draw       service.DrawService
	rounds     service.RoundService
	cards      *render.OutcomeCardGenerator
}

// NewFeature creates a new dice feature instance
func NewFeature(aggregator *service.DiceAggregator, draw service.DrawService, rounds service.RoundService) *Feature {
	return &Feature{
		aggregator: aggregator,
		draw:       draw,
		rounds:     rounds,
		cards:      render.NewOutcomeCardGenerator(),
	}
}

// HandleSymbolsMessage reads three die symbols from an admin's message and settles the round
func (f *Feature) HandleSymbolsMessage(s *discordgo.Session, m *discordgo.MessageCreate, actor *models.User) {
	if !actor.IsAdmin() {
		log.WithField("user_id", actor.DiscordID).Debug("Ignoring dice symbols from non-admin")
		return
	}

	progress, err := f.aggregator.SubmitSymbols(actor.DiscordID, m.Content)
	if err != nil {
		common.ReplyWithError(s, m, err, "Dice symbols rejected")
		return
	}

	report, err := f.draw.SubmitOutcome(context.Background(), actor.DiscordID, *progress.Outcome)
	if err != nil {
		common.ReplyWithError(s, m, err, "Failed to settle round from dice symbols")
		return
	}

	f.Announce(s, m.ChannelID, report)
}

// HandleRollCommand handles /roll: one server-side die per invocation, three settle the round
func (f *Feature) HandleRollCommand(s *discordgo.Session, i *discordgo.InteractionCreate, actor *models.User) {
	ctx := context.Background()

	if !actor.IsAdmin() {
		common.HandleError(s, i, service.ErrNotAuthorized, false)
		return
	}

	round, err := f.rounds.ActiveRound(ctx)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to load active round"), false)
		return
	}
	if round == nil {
		common.HandleError(s, i, service.ErrNoActiveRound, false)
		return
	}

	value := f.aggregator.Roll()
	progress, err := f.aggregator.SubmitRoll(actor.DiscordID, round.ID, value)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if !progress.Ready() {
		content := fmt.Sprintf("🎲 Rolled %s for round **%s**. %d more to go.",
			common.FormatDie(value), round.ID, progress.Remaining)
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: content},
		}); err != nil {
			log.Errorf("Error responding to roll command: %v", err)
		}
		return
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring roll response: %v", err)
		return
	}

	report, err := f.draw.SubmitOutcome(ctx, actor.DiscordID, *progress.Outcome)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	common.FollowUpWithSuccess(s, i, fmt.Sprintf("Rolled %s. Round **%s** is closed.", common.FormatDie(value), round.ID), false)

	f.Announce(s, i.ChannelID, report)
}

// Announce posts the settlement of a round with its outcome card and media
func (f *Feature) Announce(s *discordgo.Session, channelID string, report *models.SettlementReport) {
	msg := &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{buildSettlementEmbed(report)},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}

	card, err := f.cards.Generate(report)
	if err != nil {
		log.WithError(err).WithField("round_id", report.RoundID).Warn("Failed to render outcome card")
	} else {
		name := fmt.Sprintf("round_%s.png", report.RoundID)
		msg.Files = []*discordgo.File{{
			Name:        name,
			ContentType: "image/png",
			Reader:      bytes.NewReader(card),
		}}
		attachCard(msg.Embeds[0], "attachment://"+name)
	}

	if _, err := s.ChannelMessageSendComplex(channelID, msg); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"channel_id": channelID,
			"round_id":   report.RoundID,
		}).Error("Failed to announce settlement")
	}
}
