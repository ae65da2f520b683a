package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const maxDownloadSize = 20 << 20

// TelegramBotAPI оборачивает Requester для ответов пользователю
type TelegramBotAPI struct {
	api     Requester
	http    *http.Client
	maxSize int64
	logger  *zap.Logger
}

// NewTelegramBotAPI creates a new TelegramBotAPI instance
func NewTelegramBotAPI(api Requester, logger *zap.Logger) *TelegramBotAPI {
	return &TelegramBotAPI{
		api:     api,
		http:    &http.Client{Timeout: 30 * time.Second},
		maxSize: maxDownloadSize,
		logger:  logger,
	}
}

// SendMessage отправляет HTML сообщение
func (t *TelegramBotAPI) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendReply отправляет HTML ответ на сообщение
func (t *TelegramBotAPI) SendReply(chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = replyTo

	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send reply", zap.Int64("chat_id", chatID), zap.Int("reply_to", replyTo), zap.Error(err))
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// SetBotCommands sets the bot's command menu
func (t *TelegramBotAPI) SetBotCommands(commands []tgbotapi.BotCommand) error {
	if _, err := t.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		t.logger.Error("Failed to set bot commands", zap.Error(err))
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

// DownloadFile сохраняет файл Telegram по пути dst (через временный файл)
func (t *TelegramBotAPI) DownloadFile(ctx context.Context, fileID, dst string) error {
	link, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("failed to get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, t.maxSize+1))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if n > t.maxSize {
		tmp.Close()
		return fmt.Errorf("file exceeds %d bytes", t.maxSize)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}

	t.logger.Info("File downloaded", zap.String("path", dst))
	return nil
}
