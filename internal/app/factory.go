// Package app содержит фабрику компонентов приложения.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ymlive/internal/config"
	"ymlive/internal/external/telegram"
	"ymlive/internal/handlers"
	"ymlive/internal/health"
	"ymlive/internal/middleware"
	"ymlive/internal/service"
	"ymlive/internal/storage"
)

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(config *config.Config, logger *zap.Logger) *ComponentFactory {
	if logger == nil {
		panic("Logger cannot be nil")
	}
	if config == nil {
		logger.Fatal("Config cannot be nil")
	}

	return &ComponentFactory{
		config: config,
		logger: logger,
	}
}

// CreateAppDataDirectory создает директорию данных приложения
func (f *ComponentFactory) CreateAppDataDirectory() error {
	dataDir := f.config.GetAppDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		f.logger.Error("Failed to create app data directory", zap.String("dir", dataDir), zap.Error(err))
		return fmt.Errorf("failed to create app data directory: %w", err)
	}
	f.logger.Info("App data directory ready", zap.String("dir", dataDir))
	return nil
}

// CreateStorage открывает хранилище состояния
func (f *ComponentFactory) CreateStorage(ctx context.Context) (*storage.Storage, error) {
	store, err := storage.Open(ctx, f.config.DatabaseURL, f.logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	f.logger.Info("Storage ready", zap.String("dialect", store.Dialect()))
	return store, nil
}

// ApplyStoredConfig дочитывает из базы значения, не заданные в окружении
func (f *ComponentFactory) ApplyStoredConfig(ctx context.Context, store *storage.Storage) {
	config.NewLoader(store.GetKVRepository(), f.logger.Named("config")).Apply(ctx, f.config)
}

// CreateTelegramClient создает клиент Telegram
func (f *ComponentFactory) CreateTelegramClient() (*telegram.Client, error) {
	if f.config.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	channelID, err := telegram.NormalizeChannelID(f.config.ChannelID)
	if err != nil {
		return nil, err
	}
	if channelID == 0 {
		f.logger.Warn("Channel id is not configured, /yalive will be refused")
	}

	client, err := telegram.NewClient(f.config.BotToken, channelID, f.logger.Named("telegram"))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	f.logger.Info("Telegram client created successfully", zap.Int64("channel_id", channelID))
	return client, nil
}

// CreateServices создает все сервисы
func (f *ComponentFactory) CreateServices(store *storage.Storage, client *telegram.Client) *service.Services {
	services := service.NewServices(store.GetKVRepository(), client.Channel(), client.BotAPI(), f.config, f.logger)
	f.logger.Info("Services created successfully")
	return services
}

// CreateMiddleware создает middleware
func (f *ComponentFactory) CreateMiddleware(notifier middleware.Notifier) *middleware.Middleware {
	return middleware.New(f.config.OwnerUsername, notifier, f.logger.Named("middleware"))
}

// CreateRouter создает роутер команд
func (f *ComponentFactory) CreateRouter(services *service.Services, client *telegram.Client, mw *middleware.Middleware) *Router {
	h := handlers.New(services.Live, client.BotAPI(), f.config.OwnerUsername, f.logger.Named("handlers"))
	return NewRouter(h, mw, f.logger)
}

// CreateHealthServer создает сервер health check
func (f *ComponentFactory) CreateHealthServer(store *storage.Storage, services *service.Services) (*health.Server, error) {
	if !f.config.HealthCheckEnabled {
		f.logger.Info("Health check server is disabled")
		return nil, nil
	}

	if f.config.HealthPort == "" {
		return nil, fmt.Errorf("health port is required when health check is enabled")
	}

	server := health.NewServer(f.config.HealthPort, f.logger.Named("health"), store, services.Poller)
	f.logger.Info("Health check server created", zap.String("port", f.config.HealthPort))
	return server, nil
}

// CreateBot создает полный экземпляр бота со всеми зависимостями
func (f *ComponentFactory) CreateBot(ctx context.Context) (*Bot, error) {
	if err := f.CreateAppDataDirectory(); err != nil {
		return nil, err
	}

	store, err := f.CreateStorage(ctx)
	if err != nil {
		return nil, err
	}

	f.ApplyStoredConfig(ctx, store)

	tgClient, err := f.CreateTelegramClient()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	services := f.CreateServices(store, tgClient)
	mw := f.CreateMiddleware(tgClient.BotAPI())

	healthServer, err := f.CreateHealthServer(store, services)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create health server: %w", err)
	}

	bot, err := NewBot(f.config, f.logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	bot.store = store
	bot.telegram = tgClient
	bot.services = services
	bot.middleware = mw
	bot.router = f.CreateRouter(services, tgClient, mw)
	bot.health = healthServer

	f.logger.Info("Bot created successfully with all components")
	return bot, nil
}
