// Package main запускает бота YandexMusicLive.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ymlive/internal/app"
	"ymlive/internal/config"
	"ymlive/pkg/logger"
)

func main() {
	log := logger.New(logger.OptionsFromEnv())
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := app.NewBotWithFactory(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	runErr := bot.Start(ctx)
	if runErr != nil {
		log.Error("Bot stopped with error", zap.Error(runErr))
	} else {
		log.Info("Shutdown signal received")
	}

	if err := bot.Stop(); err != nil {
		log.Error("Failed to stop bot cleanly", zap.Error(err))
	}

	if runErr != nil {
		os.Exit(1)
	}
}
