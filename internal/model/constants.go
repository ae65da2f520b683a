// Package model содержит константы для моделей.
//
// Группа: BASE - Базовые компоненты
// Содержит: StateKey
package model

// StateKey представляет ключ состояния в хранилище
type StateKey string

const (
	// KeyAutoChannel флаг автоматического обновления канала
	KeyAutoChannel StateKey = "autochannel"
	// KeyStatusMessageID сообщение с исполнителями текущего трека
	KeyStatusMessageID StateKey = "status_msg_id"
	// KeyHistoryMessageID сообщение с историей треков
	KeyHistoryMessageID StateKey = "history_msg_id"
	// KeyTrackHistory JSON-массив последних треков
	KeyTrackHistory StateKey = "track_history"
	// KeyIdleCoverPath путь к обложке "ничего не играет"
	KeyIdleCoverPath StateKey = "idle_cover_path"
)

// String возвращает строковое представление ключа
func (k StateKey) String() string {
	return string(k)
}
