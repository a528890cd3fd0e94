package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"macro-meal-planner/internal/app"
	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/ingest"
	"macro-meal-planner/internal/logging"
	"macro-meal-planner/internal/telegram"
)

func main() {
	// 1. Load Configuration
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE"), os.Getenv("ENV_FILE") != ""); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.TelegramBotToken == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if len(cfg.TelegramAllowedUserIDs) == 0 {
		logger.Warn("TELEGRAM_ALLOW_USER_IDS is empty; every message will be ignored")
	}

	// 2. Initialize Services
	a, err := app.New(cfg, ingest.DefaultFilter(), logger)
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}
	defer a.Close()

	// 3. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, a, logger.Named("telegram"))
	if err != nil {
		logger.Fatal("failed to initialize telegram bot", zap.Error(err))
	}

	// 4. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.BotListenPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("telegram bot server listening", zap.String("port", cfg.BotListenPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
