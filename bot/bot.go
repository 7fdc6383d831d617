package bot

import (
	"context"
	"fmt"
	"strings"

	"sicbo/bot/common"
	"sicbo/bot/features/admin"
	"sicbo/bot/features/betting"
	"sicbo/bot/features/dice"
	"sicbo/bot/features/history"
	"sicbo/infrastructure/observability"
	"sicbo/models"
	"sicbo/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token     string
	GuildID   string // Empty registers commands globally
	ChannelID string // Game channel; empty serves every channel
}

// Services are the engines the bot drives
type Services struct {
	Users        service.UserService
	Ledger       service.LedgerService
	Settings     service.SettingsService
	Rounds       service.RoundService
	Betting      service.BettingService
	Cancellation service.CancellationService
	Draw         service.DrawService
	History      service.HistoryService
	Dice         *service.DiceAggregator
}

// Bot manages the Discord session and all feature modules
type Bot struct {
	config   Config
	session  *discordgo.Session
	services Services
	metrics  *observability.MetricsProvider

	// Feature modules
	betting *betting.Feature
	dice    *dice.Feature
	admin   *admin.Feature
	history *history.Feature
}

// New creates the bot, connects to Discord and registers slash commands
func New(config Config, services Services, metrics *observability.MetricsProvider) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll

	bot := &Bot{
		config:   config,
		session:  dg,
		services: services,
		metrics:  metrics,
		betting:  betting.New(services.Betting, services.Cancellation, services.Rounds),
		dice:     dice.NewFeature(services.Dice, services.Draw, services.Rounds),
		admin:    admin.NewFeature(services.Users, services.Ledger, services.Settings),
		history:  history.New(services.Ledger, services.History),
	}

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleMessageCreate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":   config.GuildID,
		"channel_id": config.ChannelID,
	}).Info("Bot connected")

	return bot, nil
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	return b.session.Close()
}

// inGameChannel reports whether the bot serves a channel
func (b *Bot) inGameChannel(channelID string) bool {
	return b.config.ChannelID == "" || b.config.ChannelID == channelID
}

// register returns the caller's account, creating it on first contact
func (b *Bot) register(ctx context.Context, u *discordgo.User, displayName string) (*models.User, error) {
	discordID, err := common.ParseUserID(u.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid discord id %q: %w", u.ID, err)
	}
	user, created, err := b.services.Users.Register(ctx, discordID, displayName)
	if err != nil {
		return nil, err
	}
	if created {
		log.WithFields(log.Fields{
			"user_id":  discordID,
			"username": displayName,
			"role":     user.Role,
		}).Info("Registered new player")
	}
	return user, nil
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.metrics.RecordMessageRead(observability.MessageTypeCommand)

	u := common.InteractionUser(i)
	if u == nil {
		return
	}
	name := u.Username
	if i.Member != nil && i.Member.Nick != "" {
		name = i.Member.Nick
	} else if u.GlobalName != "" {
		name = u.GlobalName
	}

	actor, err := b.register(context.Background(), u, name)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to register command user"), false)
		return
	}

	switch i.ApplicationCommandData().Name {
	case "balance", "history", "results":
		b.history.HandleCommand(s, i, actor)
	case "roll":
		b.dice.HandleRollCommand(s, i, actor)
	case "admin":
		b.admin.HandleCommand(s, i, actor)
	}
}

// handleMessageCreate classifies game channel messages and dispatches them to features
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Skip messages from bots, including our own, to avoid loops
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	if m.GuildID == "" {
		log.Debugf("Skipping message %s - not from a guild (possibly a DM)", m.ID)
		return
	}
	if !b.inGameChannel(m.ChannelID) {
		return
	}

	intent := classifyMessage(m.Content, m.ReferencedMessage != nil)
	b.metrics.RecordMessageRead(intent.Kind.metricType())

	ctx := context.Background()
	actor, err := b.register(ctx, m.Author, common.AuthorName(m.Message))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":    m.Author.ID,
			"message_id": m.ID,
		}).Error("Failed to register message author")
		return
	}

	switch intent.Kind {
	case messageShortcutBalance, messageShortcutMyBets, messageShortcutAllBets:
		b.history.HandleShortcut(s, m, actor, strings.TrimSpace(m.Content))
	case messageCancel:
		b.betting.HandleCancelMessage(s, m, actor)
	case messageAdjust:
		b.admin.HandleAdjustMessage(s, m, actor, intent.TargetID, intent.Delta)
	case messageDice:
		b.dice.HandleSymbolsMessage(s, m, actor)
	case messageBet:
		b.betting.HandleBetMessage(s, m, actor)
	default:
		b.handleIrrelevant(ctx, s, m, actor)
	}
}

// handleIrrelevant deletes chatter from players when the game channel is locked down
func (b *Bot) handleIrrelevant(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, actor *models.User) {
	if actor.IsAdmin() {
		return
	}

	settings, err := b.services.Settings.Get(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load settings for irrelevant message policy")
		return
	}
	if settings.AllowIrrelevant {
		return
	}

	log.WithFields(log.Fields{
		"user_id":    actor.DiscordID,
		"message_id": m.ID,
	}).Debug("Deleting irrelevant message")
	common.DeleteMessage(s, m)
}
