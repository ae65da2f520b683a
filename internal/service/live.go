package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LiveStatus сводка для /yastatus
type LiveStatus struct {
	Enabled           bool
	ChannelConfigured bool
	NowPlaying        string
	LastChange        time.Time
	History           []string
	IdleCover         string
	LastTick          TickStatus
}

// LiveService переключатель автообновления и настройки канала
type LiveService struct {
	poller      *Poller
	store       *StateStore
	channel     ChannelAdmin
	files       FileDownloader
	presenterID int64
	dataDir     string
	idle        *IdleCover
	logger      *zap.Logger
}

// IdleCover путь к обложке паузы, общий для сверки и команд
type IdleCover struct {
	mu   sync.RWMutex
	path string
}

// NewIdleCover создает IdleCover с начальным путем
func NewIdleCover(path string) *IdleCover {
	return &IdleCover{path: path}
}

// Path путь к обложке, если файл существует
func (c *IdleCover) Path() string {
	c.mu.RLock()
	path := c.path
	c.mu.RUnlock()

	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Set заменяет путь и возвращает предыдущий
func (c *IdleCover) Set(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.path
	c.path = path
	return prev
}

// NewLiveService создает LiveService
func NewLiveService(
	poller *Poller,
	store *StateStore,
	channel ChannelAdmin,
	files FileDownloader,
	idle *IdleCover,
	presenterID int64,
	dataDir string,
	logger *zap.Logger,
) *LiveService {
	return &LiveService{
		poller:      poller,
		store:       store,
		channel:     channel,
		files:       files,
		presenterID: presenterID,
		dataDir:     dataDir,
		idle:        idle,
		logger:      logger,
	}
}

// Toggle переключает флаг. При включении выполняет разовую настройку
// канала и сразу запускает тик.
func (s *LiveService) Toggle(ctx context.Context) (bool, error) {
	if !s.channel.Configured() {
		return false, ErrChannelNotConfigured
	}

	enabled, err := s.store.Enabled(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read autochannel flag: %w", err)
	}

	enabled = !enabled
	if err := s.store.SetEnabled(ctx, enabled); err != nil {
		return false, fmt.Errorf("failed to save autochannel flag: %w", err)
	}

	s.logger.Info("Autochannel toggled", zap.Bool("enabled", enabled))

	if !enabled {
		return false, nil
	}

	if s.presenterID != 0 {
		if err := s.channel.PromoteInfoEditor(ctx, s.presenterID); err != nil {
			s.logger.Warn("Failed to grant change_info right",
				zap.Int64("user_id", s.presenterID), zap.Error(err))
		}
	}

	if err := s.poller.Activate(ctx); err != nil {
		s.logger.Error("Channel setup failed", zap.Error(err))
	}

	return true, nil
}

// Status текущее состояние для пользователя
func (s *LiveService) Status(ctx context.Context) (LiveStatus, error) {
	enabled, err := s.store.Enabled(ctx)
	if err != nil {
		return LiveStatus{}, fmt.Errorf("failed to read autochannel flag: %w", err)
	}

	state := s.poller.State()
	status := LiveStatus{
		Enabled:           enabled,
		ChannelConfigured: s.channel.Configured(),
		LastChange:        state.LastChange,
		History:           state.RecentTracks,
		IdleCover:         s.idle.Path(),
		LastTick:          s.poller.LastTick(),
	}
	if state.LastTitle != nil {
		status.NowPlaying = *state.LastTitle
	}

	if len(status.History) == 0 {
		stored, err := s.store.Load(ctx)
		if err == nil {
			status.History = stored.RecentTracks
		}
	}
	return status, nil
}

// SetIdleCover скачивает фото в каталог данных и запоминает путь.
// Имя файла каждый раз новое, чтобы сверка заметила смену обложки.
func (s *LiveService) SetIdleCover(ctx context.Context, fileID string) (string, error) {
	dst := filepath.Join(s.dataDir, fmt.Sprintf("idle_cover_%d.jpg", time.Now().UnixNano()))
	if err := s.files.DownloadFile(ctx, fileID, dst); err != nil {
		return "", fmt.Errorf("failed to save idle cover: %w", err)
	}
	if err := s.store.SetIdleCoverPath(ctx, dst); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to persist idle cover path: %w", err)
	}

	if prev := s.idle.Set(dst); prev != "" && prev != dst && filepath.Dir(prev) == filepath.Clean(s.dataDir) {
		if err := os.Remove(prev); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove previous idle cover", zap.String("path", prev), zap.Error(err))
		}
	}

	s.logger.Info("Idle cover updated", zap.String("path", dst))
	return dst, nil
}
