package middleware

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// LoggingMiddleware логирует входящие команды и время обработки
func LoggingMiddleware(logger *zap.Logger) Func {
	return func(update tgbotapi.Update, next Handler) {
		if update.Message == nil {
			next(update)
			return
		}

		start := time.Now()
		requestID := uuid.NewString()
		command := update.Message.Command()

		var chatID int64
		if update.Message.Chat != nil {
			chatID = update.Message.Chat.ID
		}

		logger.Info("Processing command",
			zap.String("request_id", requestID),
			zap.String("command", command),
			zap.Int64("chat_id", chatID),
			zap.String("user", getUserIdentifier(update.Message.From)),
			zap.Int("update_id", update.UpdateID))

		next(update)

		logger.Info("Command completed",
			zap.String("request_id", requestID),
			zap.String("command", command),
			zap.Duration("duration", time.Since(start)))
	}
}

// getUserIdentifier возвращает идентификатор пользователя
func getUserIdentifier(user *tgbotapi.User) string {
	if user == nil {
		return "unknown"
	}

	if user.UserName != "" {
		return "@" + user.UserName
	}

	if user.FirstName != "" {
		if user.LastName != "" {
			return user.FirstName + " " + user.LastName
		}
		return user.FirstName
	}

	return fmt.Sprintf("user_%d", user.ID)
}
