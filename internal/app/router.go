// Package app содержит маршрутизацию команд.
package app

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ymlive/internal/external/telegram"
	"ymlive/internal/handlers"
	"ymlive/internal/middleware"
)

// Router обрабатывает маршрутизацию команд
type Router struct {
	handlers   *handlers.Handlers
	middleware *middleware.Middleware
	logger     *zap.Logger
}

var _ telegram.RouterInterface = (*Router)(nil)

// NewRouter создает новый роутер
func NewRouter(h *handlers.Handlers, mw *middleware.Middleware, logger *zap.Logger) *Router {
	return &Router{
		handlers:   h,
		middleware: mw,
		logger:     logger,
	}
}

// HandleUpdate обрабатывает обновление от Telegram
func (r *Router) HandleUpdate(update tgbotapi.Update) {
	r.middleware.ProcessWithMiddleware(update, func(update tgbotapi.Update) {
		if update.Message != nil {
			r.handleMessage(update.Message)
		}
	})
}

// handleMessage обрабатывает текстовые сообщения
func (r *Router) handleMessage(message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	switch strings.ToLower(message.Command()) {
	case "start":
		r.handlers.Start(message)
	case "help":
		r.handlers.Help(message)
	case "yalive":
		r.handlers.YaLive(message)
	case "yaidle":
		r.handlers.YaIdle(message)
	case "yastatus":
		r.handlers.YaStatus(message)
	default:
		r.handlers.Unknown(message)
	}
}

// RegisterBotCommands регистрирует команды бота
func (r *Router) RegisterBotCommands() []tgbotapi.BotCommand {
	return r.handlers.RegisterBotCommands()
}
