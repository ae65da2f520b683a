// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ymlive/internal/model"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// KVRepository реализует хранилище ключ-значение поверх bun
type KVRepository struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewKVRepository создает новый репозиторий ключ-значение
func NewKVRepository(db *bun.DB, logger *zap.Logger) *KVRepository {
	return &KVRepository{
		db:     db,
		logger: logger,
	}
}

// Get возвращает значение по ключу
func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	kv := new(model.KV)

	err := r.db.NewSelect().
		Model(kv).
		Where("? = ?", bun.Ident("name"), key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return kv.Value, true, nil
}

// Set сохраняет значение, перезаписывая существующее
func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	kv := &model.KV{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	_, err := r.db.NewInsert().
		Model(kv).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	r.logger.Debug("KV updated", zap.String("key", key))
	return nil
}

// GetString возвращает строковое значение
func (r *KVRepository) GetString(ctx context.Context, key string) (string, bool, error) {
	return r.Get(ctx, key)
}

// GetBool возвращает булево значение; отсутствие ключа дает false
func (r *KVRepository) GetBool(ctx context.Context, key string) (bool, error) {
	value, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid bool in %s: %w", key, err)
	}
	return b, nil
}

// SetBool сохраняет булево значение
func (r *KVRepository) SetBool(ctx context.Context, key string, value bool) error {
	return r.Set(ctx, key, strconv.FormatBool(value))
}

// GetInt возвращает целое значение; отсутствие ключа дает 0
func (r *KVRepository) GetInt(ctx context.Context, key string) (int, error) {
	value, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid int in %s: %w", key, err)
	}
	return n, nil
}

// SetInt сохраняет целое значение
func (r *KVRepository) SetInt(ctx context.Context, key string, value int) error {
	return r.Set(ctx, key, strconv.Itoa(value))
}

// GetJSON декодирует JSON-значение в dst; возвращает false, если ключа нет
func (r *KVRepository) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	value, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("invalid json in %s: %w", key, err)
	}
	return true, nil
}

// SetJSON кодирует значение в JSON и сохраняет его
func (r *KVRepository) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return r.Set(ctx, key, string(data))
}
