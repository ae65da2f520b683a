package config

import (
	"context"

	"go.uber.org/zap"
)

// ValueStore определяет хранилище, из которого можно дочитать конфигурацию
type ValueStore interface {
	GetString(ctx context.Context, key string) (string, bool, error)
}

// Ключи значений, которые могут храниться в базе вместо окружения
const (
	KeyYandexMusicToken = "YANDEX_MUSIC_TOKEN"
	KeyChannelID        = "CHANNEL_ID"
	KeyIdleCoverPath    = "idle_cover_path"
)

// Loader дочитывает незаданные в окружении значения из хранилища
type Loader struct {
	store  ValueStore
	logger *zap.Logger
}

// NewLoader создает новый загрузчик конфигурации
func NewLoader(store ValueStore, logger *zap.Logger) *Loader {
	return &Loader{store: store, logger: logger}
}

// Value возвращает значение с приоритетом: env > база данных
func (l *Loader) Value(ctx context.Context, envValue, key string) string {
	if envValue != "" {
		l.logger.Debug("Using config value from environment", zap.String("key", key))
		return envValue
	}

	value, ok, err := l.store.GetString(ctx, key)
	if err != nil {
		l.logger.Warn("Failed to load config value from database", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}

	l.logger.Info("Loaded config value from database", zap.String("key", key))
	return value
}

// Apply заполняет пустые поля cfg значениями из хранилища
func (l *Loader) Apply(ctx context.Context, cfg *Config) {
	cfg.YandexMusicToken = l.Value(ctx, cfg.YandexMusicToken, KeyYandexMusicToken)
	cfg.ChannelID = l.Value(ctx, cfg.ChannelID, KeyChannelID)
	cfg.IdleCoverPath = l.Value(ctx, cfg.IdleCoverPath, KeyIdleCoverPath)
}
