package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"ymlive/internal/domain/reconciler"
	"ymlive/internal/model"
)

// StateStore сохраняет флаг и постоянную часть состояния сверки
type StateStore struct {
	repo   StateRepository
	logger *zap.Logger
}

// NewStateStore создает StateStore
func NewStateStore(repo StateRepository, logger *zap.Logger) *StateStore {
	return &StateStore{repo: repo, logger: logger}
}

// Enabled включено ли автообновление
func (s *StateStore) Enabled(ctx context.Context) (bool, error) {
	return s.repo.GetBool(ctx, model.KeyAutoChannel.String())
}

// SetEnabled сохраняет флаг автообновления
func (s *StateStore) SetEnabled(ctx context.Context, enabled bool) error {
	return s.repo.SetBool(ctx, model.KeyAutoChannel.String(), enabled)
}

// Load читает id сообщений и историю. LastTitle и LastChange
// живут только в памяти и после рестарта пустые.
func (s *StateStore) Load(ctx context.Context) (reconciler.State, error) {
	var state reconciler.State
	var errs []error

	statusID, err := s.repo.GetInt(ctx, model.KeyStatusMessageID.String())
	if err != nil {
		errs = append(errs, err)
	}
	historyID, err := s.repo.GetInt(ctx, model.KeyHistoryMessageID.String())
	if err != nil {
		errs = append(errs, err)
	}

	var history []string
	if _, err := s.repo.GetJSON(ctx, model.KeyTrackHistory.String(), &history); err != nil {
		errs = append(errs, err)
		history = nil
	}

	state.StatusMessageID = statusID
	state.HistoryMessageID = historyID
	state.RecentTracks = history

	if err := errors.Join(errs...); err != nil {
		return state, fmt.Errorf("failed to load state: %w", err)
	}
	return state, nil
}

// Save записывает только изменившиеся поля
func (s *StateStore) Save(ctx context.Context, prev, next reconciler.State) error {
	var errs []error

	if prev.StatusMessageID != next.StatusMessageID {
		errs = append(errs, s.repo.SetInt(ctx, model.KeyStatusMessageID.String(), next.StatusMessageID))
	}
	if prev.HistoryMessageID != next.HistoryMessageID {
		errs = append(errs, s.repo.SetInt(ctx, model.KeyHistoryMessageID.String(), next.HistoryMessageID))
	}
	if !slices.Equal(prev.RecentTracks, next.RecentTracks) {
		history := next.RecentTracks
		if history == nil {
			history = []string{}
		}
		errs = append(errs, s.repo.SetJSON(ctx, model.KeyTrackHistory.String(), history))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// IdleCoverPath сохраненный путь к обложке паузы
func (s *StateStore) IdleCoverPath(ctx context.Context) (string, error) {
	path, _, err := s.repo.GetString(ctx, model.KeyIdleCoverPath.String())
	return path, err
}

// SetIdleCoverPath сохраняет путь к обложке паузы
func (s *StateStore) SetIdleCoverPath(ctx context.Context, path string) error {
	return s.repo.Set(ctx, model.KeyIdleCoverPath.String(), path)
}
