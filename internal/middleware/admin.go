package middleware

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const accessDeniedText = "🔒 Бот управляется только владельцем"

// OwnerOnlyMiddleware пропускает только сообщения владельца.
// Команды /start и /help доступны всем.
func OwnerOnlyMiddleware(ownerUsername string, notifier Notifier, logger *zap.Logger) Func {
	owner := strings.ToLower(strings.TrimPrefix(ownerUsername, "@"))

	return func(update tgbotapi.Update, next Handler) {
		msg := update.Message
		if msg == nil {
			next(update)
			return
		}

		switch msg.Command() {
		case "start", "help":
			next(update)
			return
		}

		if msg.From == nil {
			logger.Warn("No user information in message")
			return
		}

		if owner == "" || strings.ToLower(msg.From.UserName) != owner {
			logger.Warn("Unauthorized access attempt",
				zap.String("command", msg.Command()),
				zap.String("user", getUserIdentifier(msg.From)))

			if notifier != nil && msg.Chat != nil {
				if err := notifier.SendMessage(msg.Chat.ID, accessDeniedText); err != nil {
					logger.Error("Failed to send access denied message", zap.Error(err))
				}
			}
			return
		}

		next(update)
	}
}
