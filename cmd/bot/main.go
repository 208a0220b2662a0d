package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/telebot.v3"

	"war_alarm_bot/internal/app"
	"war_alarm_bot/internal/infra/clash"
	"war_alarm_bot/internal/infra/config"
	idb "war_alarm_bot/internal/infra/database"
	"war_alarm_bot/internal/infra/logger"
	"war_alarm_bot/internal/infra/repository"
	"war_alarm_bot/internal/infra/scheduler"
	"war_alarm_bot/internal/infra/storage"
	"war_alarm_bot/internal/infra/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Log.WithField("component", "main")
	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Persistence. The network store is primary; the flat-file store is both
	// the fallback and the write-through mirror. Without DATABASE_URL (or when
	// the connection fails at startup) the bot runs file-only for its whole
	// lifetime.
	fileStore, err := storage.NewFileStore(cfg.DataDir, logger.Log.WithField("component", "file_store"))
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not initialize file store: %v", err)
	}

	var primary storage.Store
	if cfg.DatabaseURL == "" {
		mainLogger.Warn("DATABASE_URL is not set; running in file-only persistence mode")
	} else {
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Warn("Could not connect to database; running in file-only persistence mode")
		} else {
			defer db.Close()
			pgStore, err := storage.NewPostgresStore(db)
			if err != nil {
				mainLogger.WithError(err).Warn("Could not initialize database store; running in file-only persistence mode")
			} else {
				primary = pgStore
				mainLogger.Info("Database store initialized")
			}
		}
	}

	store := storage.NewFallbackStore(primary, fileStore, logger.Log.WithField("component", "fallback_store"))
	defer func() {
		if err := store.Close(); err != nil {
			mainLogger.WithError(err).Error("Failed to flush persistence on shutdown")
		}
	}()

	// Repositories
	clanRepo := repository.NewClanRepository(store)
	linkRepo := repository.NewLinkRepository(store)
	watchRepo := repository.NewWatchRepository(store)
	reminderRepo := repository.NewReminderRepository(store)

	// Clash of Clans API client
	baseURL := cfg.CocAPIBaseURL
	if baseURL == "" {
		baseURL = clash.DefaultBaseURL
	}
	clashClient := clash.NewHTTPClient(baseURL, cfg.CocAPIToken, logger.Log.WithField("component", "clash_client"))

	// Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Log.WithField("component", "telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(map[string]interface{}{
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
					"text":      c.Text(),
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	// Services
	resolver := app.NewPhaseResolver(clashClient, logger.Log.WithField("component", "phase_resolver"))
	adminService := app.NewAdminService(clanRepo, linkRepo, watchRepo, reminderRepo, logger.Log.WithField("component", "admin_service"))
	reminderService := app.NewReminderService(clanRepo, linkRepo, watchRepo, reminderRepo, resolver, telegramClient, logger.Log.WithField("component", "reminder_service"))

	// Handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	telegram.RegisterCommandHandlers(ctx, bot, adminService, reminderService, logger.Log.WithField("component", "telegram_handlers"))
	mainLogger.Info("Command handlers registered")

	// Scheduler
	warScheduler := scheduler.NewWarCheckScheduler(reminderService, logger.Log.WithField("component", "war_scheduler"), cfg.CronSpecWar)
	if err := warScheduler.Start(); err != nil {
		mainLogger.Fatalf("FATAL: Could not start war check scheduler: %v", err)
	}

	mainLogger.Info("Application setup complete. Bot and scheduler are starting...")
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	warScheduler.Stop()
	bot.Stop()
	cancel()
	mainLogger.Info("Application shut down gracefully")
}
