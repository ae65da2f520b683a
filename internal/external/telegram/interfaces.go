package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Requester часть *tgbotapi.BotAPI, которую использует пакет
type Requester interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetFileDirectURL(fileID string) (string, error)
}

// BotAPI операции для ответов на команды
type BotAPI interface {
	SendMessage(chatID int64, text string) error
	SendReply(chatID int64, replyTo int, text string) error
	SetBotCommands(commands []tgbotapi.BotCommand) error
	DownloadFile(ctx context.Context, fileID, dst string) error
}

// RouterInterface определяет интерфейс для роутера
type RouterInterface interface {
	HandleUpdate(update tgbotapi.Update)
	RegisterBotCommands() []tgbotapi.BotCommand
}

var (
	_ Requester = (*tgbotapi.BotAPI)(nil)
	_ BotAPI    = (*TelegramBotAPI)(nil)
)
