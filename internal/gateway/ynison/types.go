package ynison

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// RawQueue результат разбора снимка очереди. Закрытое множество:
// QueueEmpty или QueueTrack.
type RawQueue interface {
	isRawQueue()
}

// QueueEmpty означает, что трек не выбран (индекс -1, пустой список или
// индекс вне диапазона). Paused по умолчанию true, если флаг не пришел.
type QueueEmpty struct {
	Paused bool
}

// QueueTrack означает, что в очереди выбран трек
type QueueTrack struct {
	PlayableID   string
	AlbumID      string
	PlayableType string
	Paused       bool
}

func (QueueEmpty) isRawQueue() {}
func (QueueTrack) isRawQueue() {}

// redirectResponse ответ редиректора
type redirectResponse struct {
	Host           string     `json:"host"`
	RedirectTicket string     `json:"redirect_ticket"`
	Error          *wireError `json:"error"`
}

// stateResponse ответ PutYnisonState. Все вложенные поля необязательны.
type stateResponse struct {
	PlayerState *struct {
		Status *struct {
			Paused *bool `json:"paused"`
		} `json:"status"`
		PlayerQueue *struct {
			CurrentPlayableIndex *flexInt   `json:"current_playable_index"`
			PlayableList         []playable `json:"playable_list"`
		} `json:"player_queue"`
	} `json:"player_state"`
	Error *wireError `json:"error"`
}

type playable struct {
	PlayableID      flexString `json:"playable_id"`
	AlbumIDOptional flexString `json:"album_id_optional"`
	PlayableType    string     `json:"playable_type"`
}

type wireError struct {
	HTTPCode int    `json:"http_code"`
	Message  string `json:"message"`
}

// flexInt принимает число как в виде числа, так и в виде строки
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexString принимает строку или число
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(data)
	return nil
}

// Объявление состояния "неактивного теневого плеера"

type putStateRequest struct {
	UpdateFullState          updateFullState `json:"update_full_state"`
	RID                      string          `json:"rid"`
	PlayerActionTimestampMs  int64           `json:"player_action_timestamp_ms"`
	ActivityInterceptionType string          `json:"activity_interception_type"`
}

type updateFullState struct {
	PlayerState       playerState `json:"player_state"`
	Device            device      `json:"device"`
	IsCurrentlyActive bool        `json:"is_currently_active"`
}

type playerState struct {
	PlayerQueue playerQueue  `json:"player_queue"`
	Status      playerStatus `json:"status"`
}

type playerQueue struct {
	CurrentPlayableIndex int            `json:"current_playable_index"`
	EntityID             string         `json:"entity_id"`
	EntityType           string         `json:"entity_type"`
	PlayableList         []any          `json:"playable_list"`
	Options              map[string]any `json:"options"`
	EntityContext        string         `json:"entity_context"`
	Version              version        `json:"version"`
	FromOptional         string         `json:"from_optional"`
}

type playerStatus struct {
	DurationMs    int64   `json:"duration_ms"`
	Paused        bool    `json:"paused"`
	PlaybackSpeed float64 `json:"playback_speed"`
	ProgressMs    int64   `json:"progress_ms"`
	Version       version `json:"version"`
}

type version struct {
	DeviceID    string `json:"device_id"`
	Version     int64  `json:"version"`
	TimestampMs int64  `json:"timestamp_ms"`
}

type device struct {
	Capabilities capabilities   `json:"capabilities"`
	Info         deviceInfo     `json:"info"`
	VolumeInfo   map[string]int `json:"volume_info"`
	IsShadow     bool           `json:"is_shadow"`
}

type capabilities struct {
	CanBePlayer           bool `json:"can_be_player"`
	CanBeRemoteController bool `json:"can_be_remote_controller"`
	VolumeGranularity     int  `json:"volume_granularity"`
}

type deviceInfo struct {
	DeviceID string `json:"device_id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	AppName  string `json:"app_name"`
}
