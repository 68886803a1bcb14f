package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/djedy/eventledger/internal/bot/handlers"
	"github.com/djedy/eventledger/internal/config"
	"github.com/djedy/eventledger/internal/conversation"
	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogToFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store backend", "backend", cfg.StoreBackend, "error", err)
	}
	store := repository.NewStore(backend, cfg.StoreTimeout)
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize store", "error", err)
	}

	ledger := service.NewService(store)
	if err := ledger.VerifyAccounts(ctx); err != nil {
		logger.Fatal("Account check failed", "error", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot API", "error", err)
	}
	logger.Info("Authorized on Telegram", "username", api.Self.UserName)

	bot := handlers.NewBot(api, ledger, conversation.NewWizard(store, ledger),
		handlers.WithAllowList(cfg.ChatAllowed))
	if err := bot.PublishCommands(); err != nil {
		logger.Warn("Could not publish command list", "error", err)
	}

	mux := handlers.NewStatusAPI(ledger).Router()

	if cfg.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
		if err != nil {
			logger.Fatal("Invalid WEBHOOK_URL", "error", err)
		}
		if _, err := api.Request(wh); err != nil {
			logger.Fatal("Failed to set webhook", "error", err)
		}
		mux.Handle("/webhook", bot.WebhookHandler(api))
		logger.Info("Webhook mode", "url", cfg.WebhookURL)
	} else {
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("Failed to delete webhook", "error", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		go bot.Run(ctx, api.GetUpdatesChan(u))
		logger.Info("Polling mode")
	}

	go bot.StartReminders(ctx, cfg.ReminderInterval, cfg.ChatIDs())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	if cfg.WebhookURL == "" {
		api.StopReceivingUpdates()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (repository.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendSheets:
		b, err := repository.NewSheetsBackend(ctx, cfg.SheetID, cfg.GoogleCredentials)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendMemory:
		logger.Warn("Using in-memory store; data is lost on exit")
		return repository.NewMemoryBackend(), nil
	default:
		db, err := repository.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteBackend(db), nil
	}
}
