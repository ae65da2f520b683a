package reconciler

import (
	"fmt"
	"html"
	"strings"
)

const (
	// PausedTitle название канала, когда ничего не играет
	PausedTitle = "⏸️ Сейчас ничего не играет"
	// StatusPlaceholder текст статуса без трека
	StatusPlaceholder = "-"
	// HistoryHeader заголовок сообщения с историей
	HistoryHeader = "<b>📜 История треков:</b>\n\n"
)

// TrackURL ссылка на трек; пустая, если не известен альбом или трек
func TrackURL(albumID, trackID string) string {
	if albumID == "" || trackID == "" || albumID == "0" {
		return ""
	}
	return fmt.Sprintf("https://music.yandex.ru/album/%s/track/%s", albumID, trackID)
}

// RenderStatus текст статуса: экранированные исполнители, со ссылкой
// на трек, если она есть
func RenderStatus(artists, trackURL string) string {
	text := html.EscapeString(artists)
	if text == "" {
		text = StatusPlaceholder
	}
	if trackURL == "" {
		return text
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(trackURL), text)
}

// RenderHistory сообщение истории, новые сверху
func RenderHistory(history []string) string {
	var b strings.Builder
	b.WriteString(HistoryHeader)
	for i := len(history) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "<b>%d.</b> %s", len(history)-i, html.EscapeString(history[i]))
		if i > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
