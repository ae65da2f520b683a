// Package telegram содержит интеграцию с Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Client представляет клиент Telegram Bot API
type Client struct {
	bot     *tgbotapi.BotAPI
	botAPI  *TelegramBotAPI
	channel *Channel
	router  RouterInterface
	logger  *zap.Logger
}

// NewClient создает новый клиент Telegram и адаптер канала
func NewClient(botToken string, channelID int64, logger *zap.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false
	logger.Info("Telegram bot created", zap.String("username", bot.Self.UserName))

	return &Client{
		bot:     bot,
		botAPI:  NewTelegramBotAPI(bot, logger),
		channel: NewChannel(bot, channelID, logger),
		logger:  logger,
	}, nil
}

// Start запускает обработку обновлений
func (c *Client) Start(ctx context.Context, router RouterInterface) error {
	c.router = router

	c.logger.Info("Bot started", zap.String("username", c.bot.Self.UserName))

	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		c.logger.Error("Failed to delete webhook", zap.Error(err))
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	if err := c.botAPI.SetBotCommands(c.router.RegisterBotCommands()); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "channel_post"}

	c.logger.Info("Starting to fetch updates")
	updatesChan := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	reconnectDelay := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Update loop cancelled by context")
			return ctx.Err()
		case update, ok := <-updatesChan:
			if !ok {
				c.logger.Warn("Update channel closed, will try to reconnect after delay")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
					return fmt.Errorf("update channel closed, reconnecting")
				}
			}

			c.processUpdate(ctx, update)
		}
	}
}

// processUpdate обрабатывает одно обновление
func (c *Client) processUpdate(ctx context.Context, update tgbotapi.Update) {
	if post := update.ChannelPost; post != nil {
		c.cleanupServiceMessage(ctx, post)
		return
	}

	if update.Message == nil {
		return
	}

	c.logger.Debug("Processing update",
		zap.Int("update_id", update.UpdateID),
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("user", GetUserIdentifier(update.Message.From)),
		zap.String("command", update.Message.Command()))

	// Обрабатываем только команды
	if !update.Message.IsCommand() {
		return
	}

	c.router.HandleUpdate(update)
}

// cleanupServiceMessage удаляет сервисные сообщения о смене названия или фото
func (c *Client) cleanupServiceMessage(ctx context.Context, post *tgbotapi.Message) {
	if post.Chat == nil || post.Chat.ID != c.channel.ID() {
		return
	}
	if post.NewChatTitle == "" && post.NewChatPhoto == nil && !post.DeleteChatPhoto {
		return
	}

	if err := c.channel.DeleteMessage(ctx, post.MessageID); err != nil {
		c.logger.Warn("Failed to delete service message", zap.Int("message_id", post.MessageID), zap.Error(err))
		return
	}
	c.logger.Debug("Service message deleted", zap.Int("message_id", post.MessageID))
}

// BotAPI возвращает обертку для ответов на команды
func (c *Client) BotAPI() *TelegramBotAPI {
	return c.botAPI
}

// Channel возвращает адаптер целевого канала
func (c *Client) Channel() *Channel {
	return c.channel
}

// GetUserIdentifier возвращает @username или имя пользователя
func GetUserIdentifier(user *tgbotapi.User) string {
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
