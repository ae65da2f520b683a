// Package storage содержит работу с базой данных.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ymlive/internal/model"
	"ymlive/internal/storage/repository"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	maxConnectAttempts = 10
	connectRetryDelay  = 5 * time.Second
)

// Storage представляет подключение к базе данных (PostgreSQL или SQLite)
type Storage struct {
	db      *bun.DB
	dialect string
	logger  *zap.Logger
}

// IsPostgresDSN сообщает, указывает ли DSN на PostgreSQL
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open открывает хранилище по DSN: postgres:// URL или путь к файлу SQLite
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Storage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var (
		s   *Storage
		err error
	)
	if IsPostgresDSN(dsn) {
		s, err = openPostgres(ctx, dsn, logger)
	} else {
		s, err = openSQLite(ctx, dsn, logger)
	}
	if err != nil {
		return nil, err
	}

	if logger.Core().Enabled(zap.DebugLevel) {
		s.db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	if err := s.migrate(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}

	return s, nil
}

// openPostgres подключается к PostgreSQL с retry логикой
func openPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Storage, error) {
	var lastErr error

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		logger.Info("Attempting to connect to database",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxConnectAttempts))

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		sqldb.SetMaxOpenConns(5)
		sqldb.SetMaxIdleConns(2)
		sqldb.SetConnMaxLifetime(5 * time.Minute)

		db := bun.NewDB(sqldb, pgdialect.New())

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		lastErr = db.PingContext(pingCtx)
		cancel()

		if lastErr == nil {
			logger.Info("Connected to PostgreSQL database with Bun ORM", zap.Int("attempt", attempt))
			return &Storage{db: db, dialect: "postgres", logger: logger}, nil
		}

		logger.Warn("Failed to connect to database", zap.Int("attempt", attempt), zap.Error(lastErr))
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}

		if attempt == maxConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxConnectAttempts, lastErr)
}

// openSQLite открывает файл SQLite, создавая директорию при необходимости
func openSQLite(ctx context.Context, dsn string, logger *zap.Logger) (*Storage, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if !strings.HasPrefix(path, "file:") && !strings.Contains(path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	if !strings.Contains(path, "?") {
		path += "?_pragma=busy_timeout(5000)"
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// одна запись за раз, SQLite не любит конкурентных писателей
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	logger.Info("Opened SQLite database with Bun ORM", zap.String("path", path))
	return &Storage{db: db, dialect: "sqlite", logger: logger}, nil
}

// migrate создает таблицы, если их нет
func (s *Storage) migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*model.KV)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping проверяет доступность базы данных
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect возвращает имя используемого диалекта
func (s *Storage) Dialect() string {
	return s.dialect
}

// GetKVRepository возвращает репозиторий ключ-значение
func (s *Storage) GetKVRepository() *repository.KVRepository {
	return repository.NewKVRepository(s.db, s.logger)
}
