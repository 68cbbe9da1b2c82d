package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"coursebot/internal/admin"
	"coursebot/internal/adapters/eventbus"
	"coursebot/internal/adapters/postgres"
	"coursebot/internal/adapters/redis"
	"coursebot/internal/adapters/telegram"
	"coursebot/internal/bot"
	_ "coursebot/internal/bot/handlers" // handler init() registration
	"coursebot/internal/bot/notify"
	"coursebot/internal/core/access"
	"coursebot/internal/core/broker"
	"coursebot/internal/core/ledger"
	"coursebot/internal/providers"
	"coursebot/internal/scheduler"
	"coursebot/internal/shared/config"
	"coursebot/internal/shared/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logger.New(cfg.IsDev())
	baseLogger.Info().Str("app_env", cfg.AppEnv).Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	db, err := postgres.NewDB(ctx, cfg.DatabaseURL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize Redis")
	}
	defer redisClient.Close()

	sessions := redis.NewSessionStore(redisClient, cfg.Redis.SessionTTLHours)
	locker := redis.NewLocker(redisClient)

	// Repositories
	userRepo := postgres.NewUserRepository(db, &baseLogger)
	lessonRepo := postgres.NewLessonRepository(db, &baseLogger)
	drawingRepo := postgres.NewDrawingRepository(db, &baseLogger)
	subscriptionRepo := postgres.NewSubscriptionRepository(db, &baseLogger)
	methodRepo := postgres.NewPaymentMethodRepository(db, &baseLogger)
	requestRepo := postgres.NewPaymentRequestRepository(db, &baseLogger)
	settingsRepo := postgres.NewSettingsRepository(db, &baseLogger)

	// Core services
	bus := eventbus.NewInMemoryEventBus(&baseLogger)
	linkProviders := providers.New(cfg.Payment.Providers, cfg.Bot.Username, &baseLogger)
	ledgerSvc := ledger.NewService(subscriptionRepo, userRepo, settingsRepo, linkProviders, ledger.Defaults{
		Price:        cfg.Payment.Price,
		Currency:     cfg.Payment.Currency,
		DurationDays: cfg.Payment.DurationDays,
	}, &baseLogger)
	brokerSvc := broker.NewService(requestRepo, methodRepo, settingsRepo, locker, broker.Defaults{
		Price:    cfg.Payment.Price,
		Currency: cfg.Payment.Currency,
	}, &baseLogger)
	checker := access.NewChecker(subscriptionRepo)

	// Telegram
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize Telegram API")
	}
	baseLogger.Info().Str("bot", api.Self.UserName).Msg("Authorized on Telegram")

	botClient := telegram.NewClient(api, &baseLogger)
	notifier := notify.NewNotifier(botClient, &baseLogger)
	notify.SubscribeOutcomes(bus, notifier)

	router := telegram.NewRouter(botClient, &baseLogger)
	bot.RegisterAllHandlers(router, &bot.Deps{
		Cfg:      cfg,
		Users:    userRepo,
		Lessons:  lessonRepo,
		Methods:  methodRepo,
		Drawings: drawingRepo,
		Settings: settingsRepo,
		Ledger:   ledgerSvc,
		Broker:   brokerSvc,
		Access:   checker,
		Notifier: notifier,
		Sessions: sessions,
		Client:   botClient,
		Bus:      bus,
		Log:      &baseLogger,
	})

	if err := botClient.SetMenuCommands(ctx); err != nil {
		baseLogger.Warn().Err(err).Msg("Failed to set menu commands")
	}

	// Background delivery and sweeps
	sched := scheduler.New(userRepo, lessonRepo, ledgerSvc, notifier, sessions, &baseLogger)
	go sched.Run(ctx)

	// Admin panel and provider webhooks
	adminServer := admin.New(admin.Deps{
		Cfg:      cfg,
		Users:    userRepo,
		Lessons:  lessonRepo,
		Drawings: drawingRepo,
		Methods:  methodRepo,
		Settings: settingsRepo,
		Ledger:   ledgerSvc,
		Broker:   brokerSvc,
		Bus:      bus,
		Notifier: notifier,
		Log:      &baseLogger,
	})
	go func() {
		if err := adminServer.Listen(); err != nil {
			baseLogger.Error().Err(err).Msg("Admin server stopped")
			stop()
		}
	}()

	botServer := telegram.NewBotServer(api, router, &cfg.Bot, &baseLogger)
	if err := botServer.Start(ctx); err != nil {
		baseLogger.Error().Err(err).Msg("Bot server stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error().Err(err).Msg("Admin server shutdown failed")
	}
	baseLogger.Info().Msg("Shutdown complete")
}
