// Package reconciler приводит канал (название, статус, аватар, история)
// в соответствие со снимком воспроизведения.
package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ymlive/internal/domain/playback"
	"ymlive/internal/gateway/yandexmusic"
)

// DefaultSilenceTimeout после этого молчания NoTrack считается паузой
const DefaultSilenceTimeout = 600 * time.Second

// Channel операции канала, которые нужны сверке
type Channel interface {
	Title(ctx context.Context) (string, error)
	SetTitle(ctx context.Context, title string) error
	SendMessage(ctx context.Context, text string) (int, error)
	EditMessage(ctx context.Context, messageID int, text string) error
	SetPhoto(ctx context.Context, path string) error
}

// CoverFetcher скачивает обложку во временный файл
type CoverFetcher interface {
	DownloadCover(ctx context.Context, url string) (string, func(), error)
}

// Options параметры сверки
type Options struct {
	CoverSize      string
	SilenceTimeout time.Duration
	HistoryLimit   int
	// IdleCover путь к обложке для паузы, читается на каждом тике
	IdleCover func() string
}

// Reconciler выполняет побочные эффекты. Каждый из них best-effort:
// ошибка логируется и не мешает остальным.
type Reconciler struct {
	channel Channel
	covers  CoverFetcher
	opts    Options
	logger  *zap.Logger
}

// New создает Reconciler
func New(channel Channel, covers CoverFetcher, opts Options, logger *zap.Logger) *Reconciler {
	if opts.SilenceTimeout <= 0 {
		opts.SilenceTimeout = DefaultSilenceTimeout
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.CoverSize == "" {
		opts.CoverSize = yandexmusic.DefaultCoverSize
	}
	if opts.IdleCover == nil {
		opts.IdleCover = func() string { return "" }
	}
	return &Reconciler{channel: channel, covers: covers, opts: opts, logger: logger}
}

// Reconcile применяет таблицу решений и возвращает новое состояние
func (r *Reconciler) Reconcile(ctx context.Context, snap playback.Snapshot, state State, now time.Time) State {
	state = state.Clone()

	if snap.IsPaused() {
		return r.showIdle(ctx, state, now)
	}

	if track, ok := snap.Track(); ok {
		if state.LastTitle != nil && *state.LastTitle == track.Title {
			return state
		}
		return r.showTrack(ctx, track, state, now)
	}

	// NoTrack
	if state.LastChange.IsZero() || now.Sub(state.LastChange) <= r.opts.SilenceTimeout {
		return state
	}
	r.logger.Info("No track for too long, switching to idle",
		zap.Duration("silence", now.Sub(state.LastChange)))
	return r.showIdle(ctx, state, now)
}

func (r *Reconciler) showIdle(ctx context.Context, state State, now time.Time) State {
	r.setTitle(ctx, PausedTitle)
	state = r.setStatus(ctx, state, StatusPlaceholder)

	if idle := r.opts.IdleCover(); idle != "" && idle != state.appliedCover {
		if err := r.channel.SetPhoto(ctx, idle); err != nil {
			r.logger.Error("Failed to set idle cover", zap.String("path", idle), zap.Error(err))
		} else {
			state.appliedCover = idle
		}
	}

	state.LastTitle = nil
	state.LastChange = now
	return state
}

func (r *Reconciler) showTrack(ctx context.Context, track playback.Track, state State, now time.Time) State {
	artists := track.ArtistsString()

	r.logger.Info("Now playing",
		zap.String("title", track.Title),
		zap.String("artists", artists),
		zap.String("track_id", track.ID))

	r.setTitle(ctx, track.Title)
	state = r.setStatus(ctx, state, RenderStatus(artists, TrackURL(track.AlbumID, track.ID)))
	state = r.setCover(ctx, state, track.CoverURI)

	state.RecentTracks = AppendHistory(state.RecentTracks, HistoryEntry(track.Title, artists), r.opts.HistoryLimit)
	state = r.renderHistory(ctx, state)

	title := track.Title
	state.LastTitle = &title
	state.LastChange = now
	return state
}

// setTitle пропускает запись, если название уже такое
func (r *Reconciler) setTitle(ctx context.Context, title string) {
	current, err := r.channel.Title(ctx)
	if err != nil {
		r.logger.Warn("Failed to read channel title", zap.Error(err))
	} else if current == title {
		return
	}

	if err := r.channel.SetTitle(ctx, title); err != nil {
		r.logger.Error("Failed to set channel title", zap.String("title", title), zap.Error(err))
	}
}

func (r *Reconciler) setStatus(ctx context.Context, state State, text string) State {
	if state.StatusMessageID != 0 && state.appliedStatus == text {
		return state
	}

	id, err := r.upsertMessage(ctx, state.StatusMessageID, text)
	if err != nil {
		r.logger.Error("Failed to update status message", zap.Int("message_id", state.StatusMessageID), zap.Error(err))
		return state
	}
	state.StatusMessageID = id
	state.appliedStatus = text
	return state
}

func (r *Reconciler) setCover(ctx context.Context, state State, coverURI string) State {
	url := yandexmusic.CoverURL(coverURI, r.opts.CoverSize)
	if url == "" || url == state.appliedCover || r.covers == nil {
		return state
	}

	path, cleanup, err := r.covers.DownloadCover(ctx, url)
	if err != nil {
		r.logger.Error("Failed to download cover", zap.String("url", url), zap.Error(err))
		return state
	}
	defer cleanup()

	if err := r.channel.SetPhoto(ctx, path); err != nil {
		r.logger.Error("Failed to set channel photo", zap.Error(err))
		return state
	}
	state.appliedCover = url
	return state
}

func (r *Reconciler) renderHistory(ctx context.Context, state State) State {
	id, err := r.upsertMessage(ctx, state.HistoryMessageID, RenderHistory(state.RecentTracks))
	if err != nil {
		r.logger.Error("Failed to update history message", zap.Int("message_id", state.HistoryMessageID), zap.Error(err))
		return state
	}
	state.HistoryMessageID = id
	return state
}

// upsertMessage редактирует сообщение, если id известен, иначе отправляет новое
func (r *Reconciler) upsertMessage(ctx context.Context, id int, text string) (int, error) {
	if id != 0 {
		return id, r.channel.EditMessage(ctx, id, text)
	}
	return r.channel.SendMessage(ctx, text)
}
