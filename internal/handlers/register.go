package handlers

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// RegisterBotCommands регистрирует команды бота
func (h *Handlers) RegisterBotCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Начать работу с ботом"},
		{Command: "help", Description: "Показать справку"},
		{Command: "yalive", Description: "Включить/выключить YaLive"},
		{Command: "yaidle", Description: "Обложка паузы (ответом на фото)"},
		{Command: "yastatus", Description: "Состояние трансляции"},
	}
}
