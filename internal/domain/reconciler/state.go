package reconciler

import "time"

// DefaultHistoryLimit сколько треков хранится в истории
const DefaultHistoryLimit = 10

// State состояние между тиками. Reconcile получает его и возвращает новое,
// ничего не изменяя по месту.
type State struct {
	// LastTitle последний показанный трек; nil после паузы. Только в памяти.
	LastTitle *string
	// LastChange момент последней смены представления; нулевое значение = не задано.
	LastChange time.Time

	StatusMessageID  int
	HistoryMessageID int
	// RecentTracks записи "<title> - <artists>", последняя в конце
	RecentTracks []string

	appliedStatus string
	appliedCover  string
}

// Clone глубокая копия
func (s State) Clone() State {
	out := s
	if s.LastTitle != nil {
		title := *s.LastTitle
		out.LastTitle = &title
	}
	out.RecentTracks = append([]string(nil), s.RecentTracks...)
	return out
}

// SamePersisted совпадают ли сохраняемые поля
func (s State) SamePersisted(other State) bool {
	if s.StatusMessageID != other.StatusMessageID || s.HistoryMessageID != other.HistoryMessageID {
		return false
	}
	if len(s.RecentTracks) != len(other.RecentTracks) {
		return false
	}
	for i := range s.RecentTracks {
		if s.RecentTracks[i] != other.RecentTracks[i] {
			return false
		}
	}
	return true
}

// ForgetApplied сбрасывает запомненные значения статуса и аватара, чтобы
// следующий тик записал их заново
func (s State) ForgetApplied() State {
	s.appliedStatus = ""
	s.appliedCover = ""
	return s
}

// AppendHistory добавляет запись, если она не совпадает с последней,
// и оставляет не больше limit самых новых.
func AppendHistory(history []string, entry string, limit int) []string {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	out := append([]string(nil), history...)
	if len(out) == 0 || out[len(out)-1] != entry {
		out = append(out, entry)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// HistoryEntry формат записи истории
func HistoryEntry(title, artists string) string {
	if artists == "" {
		return title
	}
	return title + " - " + artists
}
