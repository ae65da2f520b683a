package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mapStore struct {
	values map[string]string
	err    error
}

func (m mapStore) GetString(_ context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func TestLoader_Apply(t *testing.T) {
	store := mapStore{values: map[string]string{
		KeyYandexMusicToken: "db-token",
		KeyChannelID:        "555",
		KeyIdleCoverPath:    "/data/idle.jpg",
	}}
	cfg := &Config{ChannelID: "777"}

	NewLoader(store, zap.NewNop()).Apply(context.Background(), cfg)

	assert.Equal(t, "db-token", cfg.YandexMusicToken)
	assert.Equal(t, "777", cfg.ChannelID, "env value wins over database")
	assert.Equal(t, "/data/idle.jpg", cfg.IdleCoverPath)
}

func TestLoader_StoreError(t *testing.T) {
	cfg := &Config{}
	NewLoader(mapStore{err: errors.New("db down")}, zap.NewNop()).Apply(context.Background(), cfg)

	assert.Empty(t, cfg.YandexMusicToken)
	assert.Empty(t, cfg.ChannelID)
}
