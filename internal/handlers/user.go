package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Start обрабатывает команду /start
func (h *Handlers) Start(message *tgbotapi.Message) {
	h.sendMessage(message.Chat.ID, "🎧 <b>YandexMusicLive</b>\n\n"+
		"Бот показывает текущий трек Яндекс Музыки в названии канала.\n"+
		"Используйте /help для списка команд.")
}

// Help обрабатывает команду /help
func (h *Handlers) Help(message *tgbotapi.Message) {
	text := "Доступные команды:\n" +
		"\n/start - Начать работу с ботом\n" +
		"/help - Показать это сообщение\n" +
		"/yalive - Включить/выключить автоматическое обновление канала\n" +
		"/yaidle - Ответьте этой командой на фото, чтобы задать обложку паузы\n" +
		"/yastatus - Текущее состояние и история треков\n"
	if h.ownerUsername != "" {
		text += fmt.Sprintf("\nВладелец бота: @%s", h.ownerUsername)
	}
	h.sendMessage(message.Chat.ID, text)
}

// Unknown обрабатывает неизвестные команды
func (h *Handlers) Unknown(message *tgbotapi.Message) {
	h.sendMessage(message.Chat.ID, "Неизвестная команда. Используйте /help для получения справки.")
}
