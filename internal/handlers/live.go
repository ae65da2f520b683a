package handlers

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ymlive/internal/service"
)

const (
	channelIDErrorText = "🚫 <b>ID канала не указан.</b>\nУкажите CHANNEL_ID в конфигурации бота."
	toggleTextFormat   = "🎧 <b>Автоматическое обновление названия канала %s!</b>"
	idleUsageText      = "Ответьте командой /yaidle на сообщение с фото."
)

// YaLive обрабатывает команду /yalive
func (h *Handlers) YaLive(message *tgbotapi.Message) {
	ctx, cancel := h.commandContext()
	defer cancel()

	enabled, err := h.live.Toggle(ctx)
	if err != nil {
		if errors.Is(err, service.ErrChannelNotConfigured) {
			h.reply(message, channelIDErrorText)
			return
		}
		h.logger.Error("Failed to toggle autochannel", zap.Error(err))
		h.reply(message, fmt.Sprintf("Ошибка: %s", html.EscapeString(err.Error())))
		return
	}

	state := "отключено"
	if enabled {
		state = "включено"
	}
	h.reply(message, fmt.Sprintf(toggleTextFormat, state))
}

// YaIdle обрабатывает команду /yaidle
func (h *Handlers) YaIdle(message *tgbotapi.Message) {
	fileID := largestPhoto(message.ReplyToMessage)
	if fileID == "" {
		fileID = largestPhoto(message)
	}
	if fileID == "" {
		h.reply(message, idleUsageText)
		return
	}

	ctx, cancel := h.commandContext()
	defer cancel()

	if _, err := h.live.SetIdleCover(ctx, fileID); err != nil {
		h.logger.Error("Failed to set idle cover", zap.Error(err))
		h.reply(message, "Не удалось сохранить обложку паузы.")
		return
	}
	h.reply(message, "🖼 Обложка паузы обновлена.")
}

// YaStatus обрабатывает команду /yastatus
func (h *Handlers) YaStatus(message *tgbotapi.Message) {
	ctx, cancel := h.commandContext()
	defer cancel()

	status, err := h.live.Status(ctx)
	if err != nil {
		h.logger.Error("Failed to get live status", zap.Error(err))
		h.reply(message, "Не удалось получить состояние.")
		return
	}
	h.reply(message, formatStatus(status))
}

func largestPhoto(message *tgbotapi.Message) string {
	if message == nil || len(message.Photo) == 0 {
		return ""
	}
	best := message.Photo[0]
	for _, p := range message.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best.FileID
}

func formatStatus(s service.LiveStatus) string {
	var b strings.Builder

	b.WriteString("<b>🎧 YandexMusicLive</b>\n\n")
	if s.Enabled {
		b.WriteString("Автообновление: включено\n")
	} else {
		b.WriteString("Автообновление: отключено\n")
	}
	if !s.ChannelConfigured {
		b.WriteString("Канал: не указан\n")
	}

	if s.NowPlaying != "" {
		fmt.Fprintf(&b, "Сейчас: %s\n", html.EscapeString(s.NowPlaying))
	} else {
		b.WriteString("Сейчас: ничего не играет\n")
	}
	if !s.LastChange.IsZero() {
		fmt.Fprintf(&b, "Последняя смена: %s\n", s.LastChange.Format(time.DateTime))
	}
	if s.IdleCover != "" {
		b.WriteString("Обложка паузы: задана\n")
	}

	if !s.LastTick.At.IsZero() {
		fmt.Fprintf(&b, "Последний тик: %s", s.LastTick.At.Format(time.TimeOnly))
		switch {
		case s.LastTick.Err != nil:
			fmt.Fprintf(&b, " (ошибка: %s)", html.EscapeString(s.LastTick.Err.Error()))
		case s.LastTick.Skipped != "":
			fmt.Fprintf(&b, " (пропущен: %s)", html.EscapeString(s.LastTick.Skipped))
		case s.LastTick.Snapshot != "":
			fmt.Fprintf(&b, " (%s)", html.EscapeString(s.LastTick.Snapshot))
		}
		b.WriteString("\n")
	}

	if len(s.History) > 0 {
		b.WriteString("\n<b>📜 История:</b>\n")
		for i := len(s.History) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "%d. %s\n", len(s.History)-i, html.EscapeString(s.History[i]))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
