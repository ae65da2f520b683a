package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// MaxTitleLength ограничение Telegram на название чата
const MaxTitleLength = 128

var (
	// ErrPlatformUpdate Telegram отклонил операцию с каналом
	ErrPlatformUpdate = errors.New("channel update failed")
	// ErrNoChannel канал не настроен
	ErrNoChannel = errors.New("channel is not configured")
)

// NormalizeChannelID приводит id канала к виду Bot API: -100<id>,
// если он еще не отрицательный. Пустое значение дает 0.
func NormalizeChannelID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if strings.HasPrefix(raw, "-") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid channel id %q: %w", raw, err)
		}
		return id, nil
	}
	if _, err := strconv.ParseUint(raw, 10, 63); err != nil {
		return 0, fmt.Errorf("invalid channel id %q: %w", raw, err)
	}
	return strconv.ParseInt("-100"+raw, 10, 64)
}

// NormalizeTitle NFC, без пробелов по краям, не длиннее MaxTitleLength рун
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(norm.NFC.String(title))
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:MaxTitleLength]))
}

// Channel операции над целевым каналом
type Channel struct {
	api    Requester
	chatID int64
	logger *zap.Logger
}

// NewChannel создает адаптер канала; chatID 0 означает "не настроен"
func NewChannel(api Requester, chatID int64, logger *zap.Logger) *Channel {
	return &Channel{api: api, chatID: chatID, logger: logger}
}

// ID нормализованный идентификатор канала
func (c *Channel) ID() int64 { return c.chatID }

// Configured задан ли канал
func (c *Channel) Configured() bool { return c.chatID != 0 }

// Title текущее название канала
func (c *Channel) Title(ctx context.Context) (string, error) {
	if err := c.ready(ctx); err != nil {
		return "", err
	}
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: c.chatID}})
	if err != nil {
		return "", fmt.Errorf("%w: get chat: %v", ErrPlatformUpdate, err)
	}
	return chat.Title, nil
}

// SetTitle меняет название канала
func (c *Channel) SetTitle(ctx context.Context, title string) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	title = NormalizeTitle(title)
	if title == "" {
		return fmt.Errorf("%w: empty title", ErrPlatformUpdate)
	}

	if _, err := c.api.Request(tgbotapi.SetChatTitleConfig{ChatID: c.chatID, Title: title}); err != nil {
		return fmt.Errorf("%w: set title: %v", ErrPlatformUpdate, err)
	}
	c.logger.Debug("Channel title updated", zap.String("title", title))
	return nil
}

// SendMessage публикует HTML сообщение и возвращает его id
func (c *Channel) SendMessage(ctx context.Context, text string) (int, error) {
	if err := c.ready(ctx); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("%w: send message: %v", ErrPlatformUpdate, err)
	}
	return sent.MessageID, nil
}

// EditMessage редактирует сообщение; "не изменено" не считается ошибкой
func (c *Channel) EditMessage(ctx context.Context, messageID int, text string) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(c.chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true

	if _, err := c.api.Send(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		return fmt.Errorf("%w: edit message %d: %v", ErrPlatformUpdate, messageID, err)
	}
	return nil
}

// DeleteMessage удаляет сообщение канала
func (c *Channel) DeleteMessage(ctx context.Context, messageID int) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(c.chatID, messageID)); err != nil {
		return fmt.Errorf("%w: delete message %d: %v", ErrPlatformUpdate, messageID, err)
	}
	return nil
}

// SetPhoto загружает локальный файл как аватар канала
func (c *Channel) SetPhoto(ctx context.Context, path string) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	cfg := tgbotapi.SetChatPhotoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: tgbotapi.BaseChat{ChatID: c.chatID},
			File:     tgbotapi.FilePath(path),
		},
	}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("%w: set photo: %v", ErrPlatformUpdate, err)
	}
	c.logger.Debug("Channel photo updated", zap.String("path", path))
	return nil
}

// PromoteInfoEditor выдает пользователю право менять информацию канала
func (c *Channel) PromoteInfoEditor(ctx context.Context, userID int64) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	cfg := tgbotapi.PromoteChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: c.chatID, UserID: userID},
		CanChangeInfo:    true,
	}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("%w: promote %d: %v", ErrPlatformUpdate, userID, err)
	}
	return nil
}

func (c *Channel) ready(ctx context.Context) error {
	if c.chatID == 0 {
		return ErrNoChannel
	}
	return ctx.Err()
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
