package admin

import (
	"context"
	"fmt"

	"sicbo/bot/common"
	"sicbo/models"
	"sicbo/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles operator commands: game settings, roles and balances
type Feature struct {
	users    service.UserService
	ledger   service.LedgerService
	settings service.SettingsService
}

// NewFeature creates a new admin feature instance
func NewFeature(users service.UserService, ledger service.LedgerService, settings service.SettingsService) *Feature {
	return &Feature{
		users:    users,
		ledger:   ledger,
		settings: settings,
	}
}

// HandleCommand routes /admin subcommands. Permission checks happen in the services.
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate, actor *models.User) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}
	sub := options[0]
	opts := optionMap(sub.Options)
	ctx := context.Background()

	var (
		message string
		embed   *discordgo.MessageEmbed
		err     error
	)

	switch sub.Name {
	case "open":
		message, err = f.setBetting(ctx, actor, true)
	case "stop":
		message, err = f.setBetting(ctx, actor, false)
	case "limits":
		message, err = f.setLimits(ctx, actor, opts["min"].IntValue(), opts["max"].IntValue())
	case "odds":
		message, err = f.setOdds(ctx, actor, opts["name"].StringValue(), opts["value"].IntValue())
	case "chat":
		message, err = f.setChat(ctx, actor, opts["allow"].BoolValue())
	case "grant":
		message, err = f.setRole(ctx, actor, opts["username"].StringValue(), models.RoleAdmin)
	case "revoke":
		message, err = f.setRole(ctx, actor, opts["username"].StringValue(), models.RoleNone)
	case "clear":
		message, err = f.clearBalances(ctx, actor)
	case "deduct":
		message, err = f.deduct(ctx, actor, opts["username"].StringValue(), opts["amount"].IntValue())
	case "media":
		message, err = f.setMedia(ctx, actor, models.MediaKind(opts["kind"].StringValue()), opts["url"].StringValue())
	case "settings":
		embed, err = f.settingsEmbed(ctx, actor)
	case "totals":
		embed, err = f.totalsEmbed(ctx, actor)
	case "lowbalances":
		embed, err = f.lowBalancesEmbed(ctx, actor)
	default:
		return
	}

	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	log.WithFields(log.Fields{
		"actor":      actor.DiscordID,
		"subcommand": sub.Name,
	}).Info("Admin command executed")

	if embed != nil {
		err = common.RespondWithEmbed(s, i, embed, true)
	} else {
		err = common.RespondWithSuccess(s, i, message, false)
	}
	if err != nil {
		log.Errorf("Error responding to admin %s command: %v", sub.Name, err)
	}
}

// HandleAdjustMessage applies a "+N"/"-N" reply or an "ID<id> ±N" message to a balance
func (f *Feature) HandleAdjustMessage(s *discordgo.Session, m *discordgo.MessageCreate, actor *models.User, targetID, delta int64) {
	if targetID == 0 {
		ref := m.ReferencedMessage
		if ref == nil || ref.Author == nil {
			return
		}
		id, err := common.ParseUserID(ref.Author.ID)
		if err != nil {
			common.ReplyWithError(s, m, common.NewSystemError(err, "Invalid referenced author ID"), "Adjustment failed")
			return
		}
		targetID = id
	}

	entry, err := f.ledger.Adjust(context.Background(), actor.DiscordID, targetID, delta)
	if err != nil {
		common.ReplyWithError(s, m, err, "Balance adjustment rejected")
		return
	}

	log.WithFields(log.Fields{
		"actor":  actor.DiscordID,
		"target": targetID,
		"delta":  delta,
		"after":  entry.BalanceAfter,
	}).Info("Balance adjusted")

	common.ReplyToMessage(s, m, fmt.Sprintf("✅ %s %s, balance now **%s**",
		common.GetUserMention(targetID), common.FormatSignedAmount(delta), common.FormatBalance(entry.BalanceAfter)))
}

func (f *Feature) setBetting(ctx context.Context, actor *models.User, enabled bool) (string, error) {
	_, round, err := f.settings.SetBettingEnabled(ctx, actor.DiscordID, enabled)
	if err != nil {
		return "", err
	}
	if !enabled {
		return "Betting stopped. New bets are rejected until betting is opened again.", nil
	}
	if round != nil {
		return fmt.Sprintf("Betting opened. Round **%s** is accepting bets.", round.ID), nil
	}
	return "Betting opened.", nil
}

func (f *Feature) setLimits(ctx context.Context, actor *models.User, min, max int64) (string, error) {
	updated, err := f.settings.SetLimits(ctx, actor.DiscordID, min, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Stakes must now be between %s and %s.",
		common.FormatBalance(updated.MinStake), common.FormatBalance(updated.MaxStake)), nil
}

func (f *Feature) setOdds(ctx context.Context, actor *models.User, name string, value int64) (string, error) {
	updated, err := f.settings.SetOdds(ctx, actor.DiscordID, name, value)
	if err != nil {
		return "", err
	}
	return "Odds updated. " + formatOdds(updated), nil
}

func (f *Feature) setChat(ctx context.Context, actor *models.User, allow bool) (string, error) {
	if _, err := f.settings.SetAllowIrrelevant(ctx, actor.DiscordID, allow); err != nil {
		return "", err
	}
	if allow {
		return "Chat allowed in the game channel.", nil
	}
	return "Chat disabled. Messages that are not game actions will be deleted.", nil
}

func (f *Feature) setRole(ctx context.Context, actor *models.User, username string, role models.Role) (string, error) {
	user, err := f.users.SetRole(ctx, actor.DiscordID, username, role)
	if err != nil {
		return "", err
	}
	if role == models.RoleAdmin {
		return fmt.Sprintf("%s is now an admin.", user.Username), nil
	}
	return fmt.Sprintf("%s is no longer an admin.", user.Username), nil
}

func (f *Feature) clearBalances(ctx context.Context, actor *models.User) (string, error) {
	cleared, err := f.ledger.ClearAllBalances(ctx, actor.DiscordID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Cleared %d balance(s).", cleared), nil
}

func (f *Feature) deduct(ctx context.Context, actor *models.User, username string, amount int64) (string, error) {
	entry, err := f.ledger.DeductByUsername(ctx, actor.DiscordID, username, amount)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deducted %s from %s. Balance now %s.",
		common.FormatBalance(amount), username, common.FormatBalance(entry.BalanceAfter)), nil
}

func (f *Feature) setMedia(ctx context.Context, actor *models.User, kind models.MediaKind, url string) (string, error) {
	if err := f.settings.SetMedia(ctx, actor.DiscordID, kind, url); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s announcement media updated.", kind), nil
}

func (f *Feature) settingsEmbed(ctx context.Context, actor *models.User) (*discordgo.MessageEmbed, error) {
	if !actor.IsAdmin() {
		return nil, service.ErrNotAuthorized
	}
	settings, err := f.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return buildSettingsEmbed(settings), nil
}

func (f *Feature) totalsEmbed(ctx context.Context, actor *models.User) (*discordgo.MessageEmbed, error) {
	if !actor.IsAdmin() {
		return nil, service.ErrNotAuthorized
	}
	totals, err := f.ledger.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return buildTotalsEmbed(totals), nil
}

func (f *Feature) lowBalancesEmbed(ctx context.Context, actor *models.User) (*discordgo.MessageEmbed, error) {
	if !actor.IsAdmin() {
		return nil, service.ErrNotAuthorized
	}
	users, err := f.ledger.LowBalances(ctx)
	if err != nil {
		return nil, err
	}
	return buildLowBalancesEmbed(users), nil
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
