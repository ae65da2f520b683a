// Package service содержит бизнес-логику приложения: опрос плеера
// и управление трансляцией в канал.
package service

import (
	"time"

	"go.uber.org/zap"

	"ymlive/internal/config"
	"ymlive/internal/domain/reconciler"
	"ymlive/internal/gateway/yandexmusic"
	"ymlive/internal/gateway/ynison"
)

// ChannelPort полный набор операций канала
type ChannelPort interface {
	ChannelAdmin
	reconciler.Channel
}

// Services содержит все сервисы приложения
type Services struct {
	Store  *StateStore
	Poller *Poller
	Live   *LiveService
}

// NewServices собирает конвейер опроса. cfg уже дополнен значениями из базы.
func NewServices(repo StateRepository, channel ChannelPort, files FileDownloader, cfg *config.Config, logger *zap.Logger) *Services {
	store := NewStateStore(repo, logger.Named("state"))
	idle := NewIdleCover(cfg.IdleCoverPath)

	negotiator := ynison.NewClient(logger.Named("ynison"), ynison.WithTimeout(cfg.YnisonTimeout))
	catalog := yandexmusic.NewClient(cfg.YandexMusicToken, logger.Named("yandexmusic"),
		yandexmusic.WithCoverDir(cfg.GetAppDataDir()))

	rec := reconciler.New(channel, catalog, reconciler.Options{
		CoverSize:      cfg.CoverSize,
		SilenceTimeout: cfg.SilenceTimeout,
		HistoryLimit:   cfg.HistoryLimit,
		IdleCover:      idle.Path,
	}, logger.Named("reconciler"))

	poller := NewPoller(negotiator, catalog, rec, channel, store, PollerConfig{
		Token:    cfg.YandexMusicToken,
		Interval: cfg.PollInterval,
		// два рукопожатия, каталог, обложка и до пяти вызовов Telegram
		TickTimeout: 4*cfg.YnisonTimeout + time.Minute,
	}, logger.Named("poller"))

	live := NewLiveService(poller, store, channel, files, idle, cfg.PresenterUserID, cfg.GetAppDataDir(), logger.Named("live"))

	return &Services{
		Store:  store,
		Poller: poller,
		Live:   live,
	}
}
