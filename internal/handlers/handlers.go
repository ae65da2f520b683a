// Package handlers содержит обработчики команд.
package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ymlive/internal/external/telegram"
	"ymlive/internal/service"
)

// commandTimeout ограничивает работу одной команды
const commandTimeout = 2 * time.Minute

// LiveController операции трансляции, доступные из команд
type LiveController interface {
	Toggle(ctx context.Context) (bool, error)
	Status(ctx context.Context) (service.LiveStatus, error)
	SetIdleCover(ctx context.Context, fileID string) (string, error)
}

var _ LiveController = (*service.LiveService)(nil)

// Handlers содержит все обработчики команд
type Handlers struct {
	live          LiveController
	botAPI        telegram.BotAPI
	ownerUsername string
	logger        *zap.Logger
}

// New создает новый экземпляр обработчиков
func New(live LiveController, botAPI telegram.BotAPI, ownerUsername string, logger *zap.Logger) *Handlers {
	return &Handlers{
		live:          live,
		botAPI:        botAPI,
		ownerUsername: ownerUsername,
		logger:        logger,
	}
}

func (h *Handlers) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// sendMessage отправляет сообщение
func (h *Handlers) sendMessage(chatID int64, text string) {
	if h.botAPI == nil {
		h.logger.Warn("BotAPI not available, cannot send message", zap.Int64("chat_id", chatID))
		return
	}
	if err := h.botAPI.SendMessage(chatID, text); err != nil {
		h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// reply отвечает на сообщение команды
func (h *Handlers) reply(message *tgbotapi.Message, text string) {
	if h.botAPI == nil {
		h.logger.Warn("BotAPI not available, cannot send reply", zap.Int64("chat_id", message.Chat.ID))
		return
	}
	if err := h.botAPI.SendReply(message.Chat.ID, message.MessageID, text); err != nil {
		h.logger.Error("Failed to send reply", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
}
