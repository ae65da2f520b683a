package service

import (
	"context"
	"time"

	"ymlive/internal/domain/playback"
	"ymlive/internal/domain/reconciler"
	"ymlive/internal/gateway/yandexmusic"
	"ymlive/internal/gateway/ynison"
)

// StateRepository типизированный доступ к хранилищу ключ-значение
type StateRepository interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	GetInt(ctx context.Context, key string) (int, error)
	SetInt(ctx context.Context, key string, value int) error
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
}

// Negotiator получает снимок очереди Ynison
type Negotiator interface {
	Negotiate(ctx context.Context, token string) (ynison.RawQueue, error)
}

// TrackResolver получает метаданные трека
type TrackResolver interface {
	ResolveTrack(ctx context.Context, id string) (*yandexmusic.Track, bool)
}

// StateReconciler применяет снимок к каналу
type StateReconciler interface {
	Reconcile(ctx context.Context, snap playback.Snapshot, state reconciler.State, now time.Time) reconciler.State
}

// ChannelAdmin операции с каналом, нужные опросу и переключателю
type ChannelAdmin interface {
	Configured() bool
	SendMessage(ctx context.Context, text string) (int, error)
	DeleteMessage(ctx context.Context, messageID int) error
	PromoteInfoEditor(ctx context.Context, userID int64) error
}

// FileDownloader скачивает файл Telegram по file_id
type FileDownloader interface {
	DownloadFile(ctx context.Context, fileID, dst string) error
}
