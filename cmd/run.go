package cmd

import (
	"context"
	"fmt"
	"time"

	"sicbo/bot"
	"sicbo/config"
	"sicbo/database"
	"sicbo/events"
	"sicbo/infrastructure"
	"sicbo/infrastructure/observability"
	"sicbo/repository"
	"sicbo/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting sicbo bot...")

	// Initialize database connection
	log.Info("Connecting to database...")
	databaseURL := cfg.GetDatabaseURL()
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	log.Info("Applying database migrations...")
	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down metrics")
		}
	}()

	// Initialize event bus
	log.Info("Initializing event bus...")
	eventBus := events.NewBus()
	observability.AttachEventRecorder(eventBus, metrics)

	natsClient, err := connectEventStream(ctx, cfg, eventBus, metrics)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Error closing NATS connection")
			}
		}()
	}
	log.Info("Event bus initialized successfully")

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Info("Initializing services...")
	loc := cfg.Location()
	serializer := service.NewSerializer()
	services := bot.Services{
		Users:        service.NewUserService(uowFactory, serializer),
		Ledger:       service.NewLedgerService(uowFactory, serializer),
		Settings:     service.NewSettingsService(uowFactory, serializer, loc),
		Rounds:       service.NewRoundService(uowFactory, serializer, loc),
		Betting:      service.NewBettingService(uowFactory, serializer, loc),
		Cancellation: service.NewCancellationService(uowFactory, serializer),
		Draw:         service.NewDrawService(uowFactory, serializer),
		History:      service.NewHistoryService(uowFactory),
		Dice:         service.NewDiceAggregator(),
	}

	defaults, err := cfg.DefaultGameSettings()
	if err != nil {
		return fmt.Errorf("failed to load game defaults: %w", err)
	}
	settings, err := services.Settings.EnsureDefaults(ctx, defaults)
	if err != nil {
		return fmt.Errorf("failed to seed game settings: %w", err)
	}
	log.WithFields(log.Fields{
		"min_stake": settings.MinStake,
		"max_stake": settings.MaxStake,
		"betting":   settings.BettingEnabled,
		"timezone":  loc.String(),
	}).Info("Game settings loaded")

	settlement := service.NewSettlementService(uowFactory, serializer)
	report, err := settlement.SettlePending(ctx)
	if err != nil {
		return fmt.Errorf("failed to settle pending round: %w", err)
	}
	if report != nil {
		log.WithField("round", report.RoundID).Warn("Settled a round left unsettled by the previous run")
	}

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:     cfg.DiscordToken,
		GuildID:   cfg.DiscordGuildID,
		ChannelID: cfg.DiscordChannelID,
	}
	discordBot, err := bot.New(botConfig, services, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}
	log.Info("Shutdown completed")

	return nil
}

// configureLogging applies the configured level and switches to JSON output in production
func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// connectEventStream publishes domain events to NATS when servers are configured
func connectEventStream(ctx context.Context, cfg *config.Config, bus *events.Bus, metrics *observability.MetricsProvider) (*infrastructure.NATSClient, error) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, domain events stay in process")
		return nil, nil
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := infrastructure.EnsureDomainEventStream(client, mapper); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	infrastructure.NewNATSEventPublisher(client, mapper, metrics).Attach(bus)
	log.WithField("servers", cfg.NATSServers).Info("Publishing domain events to NATS")
	return client, nil
}
