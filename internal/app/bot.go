// Package app содержит основную логику приложения.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ymlive/internal/config"
	"ymlive/internal/external/telegram"
	"ymlive/internal/health"
	"ymlive/internal/middleware"
	"ymlive/internal/service"
	"ymlive/internal/storage"
)

const (
	maxRestartAttempts = 10
	restartDelay       = 10 * time.Second
	maxRestartDelay    = 5 * time.Minute
)

// Bot представляет основную логику бота
type Bot struct {
	config     *config.Config
	logger     *zap.Logger
	store      *storage.Storage
	telegram   *telegram.Client
	health     *health.Server
	services   *service.Services
	middleware *middleware.Middleware
	router     *Router
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once
}

// NewBot создает новый экземпляр бота
func NewBot(cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Bot{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// NewBotWithFactory создает новый экземпляр бота
func NewBotWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	return NewComponentFactory(cfg, logger).CreateBot(ctx)
}

// Start запускает бота и блокируется до отмены ctx или Stop
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	if b.health != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := b.health.Start(); err != nil {
				b.logger.Error("Health check server failed", zap.Error(err))
			}
		}()
	}

	if b.middleware != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					b.middleware.Cleanup()
				case <-b.ctx.Done():
					return
				}
			}
		}()
	}

	if err := b.services.Poller.Start(); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}

	b.logger.Info("Bot started successfully")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-b.ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	return b.runWithRestarts(runCtx)
}

// runWithRestarts перезапускает цикл обновлений с нарастающей задержкой
func (b *Bot) runWithRestarts(ctx context.Context) error {
	restartAttempts := 0

	for {
		err := b.telegram.Start(ctx, b.router)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			b.logger.Info("Update loop stopped due to context cancellation")
			return nil
		}

		restartAttempts++
		b.logger.Error("Update loop error",
			zap.Error(err),
			zap.Int("restart_attempt", restartAttempts),
			zap.Int("max_attempts", maxRestartAttempts))

		if restartAttempts > maxRestartAttempts {
			return fmt.Errorf("max restart attempts reached: %w", err)
		}

		delay := time.Duration(restartAttempts) * restartDelay
		if delay > maxRestartDelay {
			delay = maxRestartDelay
		}

		b.logger.Info("Waiting before restart", zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// Stop gracefully останавливает бота
func (b *Bot) Stop() error {
	var stopErr error
	b.stopOnce.Do(func() {
		stopErr = b.stop()
	})
	return stopErr
}

func (b *Bot) stop() error {
	b.logger.Info("Stopping bot gracefully")

	// дожидается текущего тика
	if b.services != nil {
		b.services.Poller.Stop()
	}

	b.cancel()

	if b.health != nil {
		if err := b.health.Stop(); err != nil {
			b.logger.Error("Failed to stop health check server", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.wg.Wait()
	}()

	select {
	case <-done:
		b.logger.Info("All goroutines stopped successfully")
	case <-time.After(30 * time.Second):
		b.logger.Warn("Graceful shutdown timeout exceeded, forcing stop")
	}

	var err error
	if b.store != nil {
		if err = b.store.Close(); err != nil {
			b.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	b.logger.Info("Bot stopped successfully")
	return err
}
