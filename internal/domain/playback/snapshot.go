// Package playback сводит сырой ответ Ynison и метаданные каталога
// к одному из трех состояний воспроизведения.
package playback

import (
	"strings"

	"ymlive/internal/gateway/yandexmusic"
	"ymlive/internal/gateway/ynison"
)

// Kind вид снимка
type Kind int

const (
	// KindNoTrack состояние неизвестно или трек не определен
	KindNoTrack Kind = iota
	// KindPaused явная пауза
	KindPaused
	// KindPlaying играет (или стоит на паузе) конкретный трек
	KindPlaying
)

func (k Kind) String() string {
	switch k {
	case KindPaused:
		return "paused"
	case KindPlaying:
		return "playing"
	default:
		return "no_track"
	}
}

// Snapshot неизменяемый снимок одного тика. Поле Track заполнено
// только для KindPlaying.
type Snapshot struct {
	kind  Kind
	track Track
}

// Track данные играющего трека
type Track struct {
	ID       string
	AlbumID  string
	Title    string
	Artists  []string
	CoverURI string
	Paused   bool
}

// ArtistsString исполнители через запятую
func (t Track) ArtistsString() string {
	return strings.Join(t.Artists, ", ")
}

// Paused снимок явной паузы
func Paused() Snapshot { return Snapshot{kind: KindPaused} }

// NoTrack снимок неизвестного состояния
func NoTrack() Snapshot { return Snapshot{kind: KindNoTrack} }

// Playing снимок играющего трека
func Playing(t Track) Snapshot {
	t.Artists = append([]string(nil), t.Artists...)
	return Snapshot{kind: KindPlaying, track: t}
}

// Kind вид снимка
func (s Snapshot) Kind() Kind { return s.kind }

// Track возвращает трек и true только для KindPlaying
func (s Snapshot) Track() (Track, bool) {
	if s.kind != KindPlaying {
		return Track{}, false
	}
	t := s.track
	t.Artists = append([]string(nil), s.track.Artists...)
	return t, true
}

// IsPaused true для Paused и для Playing с флагом паузы
func (s Snapshot) IsPaused() bool {
	return s.kind == KindPaused || (s.kind == KindPlaying && s.track.Paused)
}

func (s Snapshot) String() string {
	if s.kind == KindPlaying {
		return s.kind.String() + "(" + s.track.Title + ")"
	}
	return s.kind.String()
}

// Interpret чистая функция: ошибка рукопожатия, сырой ответ и результат
// разрешения трека превращаются в Snapshot по порядку приоритетов.
func Interpret(raw ynison.RawQueue, negErr error, track *yandexmusic.Track) Snapshot {
	if negErr != nil || raw == nil {
		return NoTrack()
	}

	switch q := raw.(type) {
	case ynison.QueueEmpty:
		if q.Paused {
			return Paused()
		}
		return NoTrack()

	case ynison.QueueTrack:
		if track == nil || track.Title == "" {
			return NoTrack()
		}
		albumID := track.AlbumID
		if albumID == "" {
			albumID = q.AlbumID
		}
		id := track.ID
		if id == "" {
			id = q.PlayableID
		}
		return Playing(Track{
			ID:       id,
			AlbumID:  albumID,
			Title:    track.Title,
			Artists:  track.Artists,
			CoverURI: track.CoverURI,
			Paused:   q.Paused,
		})
	}

	return NoTrack()
}
