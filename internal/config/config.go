// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	// Telegram
	BotToken        string
	OwnerUsername   string
	PresenterUserID int64

	// Yandex Music
	YandexMusicToken string
	YnisonTimeout    time.Duration
	CoverSize        string

	// Канал
	ChannelID     string
	IdleCoverPath string

	// Опрос
	PollInterval   time.Duration
	SilenceTimeout time.Duration
	HistoryLimit   int

	// Хранилище
	DatabaseURL string
	AppDataDir  string

	// Health
	HealthPort         string
	HealthCheckEnabled bool

	// Logging
	LogLevel string
	LogPath  string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:         getEnv("BOT_TOKEN", ""),
		OwnerUsername:    strings.TrimPrefix(getEnv("OWNER_USERNAME", ""), "@"),
		PresenterUserID:  getEnvInt64("PRESENTER_USER_ID", 0),
		YandexMusicToken: getEnv("YANDEX_MUSIC_TOKEN", ""),
		YnisonTimeout:    getEnvDuration("YNISON_TIMEOUT", 10*time.Second),
		CoverSize:        getEnv("COVER_SIZE", "400x400"),
		ChannelID:        getEnv("CHANNEL_ID", ""),
		IdleCoverPath:    getEnv("IDLE_COVER_PATH", ""),
		PollInterval:     getEnvDuration("POLL_INTERVAL", 15*time.Second),
		SilenceTimeout:   getEnvDuration("SILENCE_TIMEOUT", 10*time.Minute),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 10),
		AppDataDir:       getEnv("APP_DATA_DIR", "./data"),
		HealthPort:       getEnv("HEALTH_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPath:          getEnv("LOG_PATH", ""),
	}
	cfg.HealthCheckEnabled = getEnvBool("HEALTH_CHECK_ENABLED", true)
	cfg.DatabaseURL = getEnv("DB_DSN", cfg.AppDataDir+"/ymlive.db")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// GetAppDataDir возвращает директорию данных приложения
func (c *Config) GetAppDataDir() string {
	return c.AppDataDir
}

// Validate проверяет конфигурацию.
// Токен музыки и канал не обязательны: без них тик просто ничего не делает.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	if c.OwnerUsername == "" {
		return fmt.Errorf("OWNER_USERNAME is required")
	}

	if c.PollInterval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s, got %s", c.PollInterval)
	}

	if c.SilenceTimeout <= 0 {
		return fmt.Errorf("SILENCE_TIMEOUT must be positive")
	}

	if c.YnisonTimeout <= 0 {
		return fmt.Errorf("YNISON_TIMEOUT must be positive")
	}

	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be at least 1")
	}

	if c.HealthCheckEnabled {
		port, err := strconv.Atoi(c.HealthPort)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("HEALTH_PORT must be a valid port, got %q", c.HealthPort)
		}
	}

	if c.ChannelID != "" {
		if _, err := strconv.ParseInt(c.ChannelID, 10, 64); err != nil {
			return fmt.Errorf("CHANNEL_ID must be numeric, got %q", c.ChannelID)
		}
	}

	return nil
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
