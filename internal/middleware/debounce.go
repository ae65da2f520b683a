package middleware

import (
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Команды с особыми таймаутами дебаунса
var commandDebounceTimeouts = map[string]time.Duration{
	// двойное нажатие включит и сразу выключит трансляцию
	"yalive": 5 * time.Second,
}

// DebouncerInterface определяет интерфейс для debouncer
type DebouncerInterface interface {
	CanProcessRequestWithTimeout(key string, timeout time.Duration) bool
	Cleanup()
}

// Debouncer отбрасывает повторы одной команды в пределах таймаута
type Debouncer struct {
	requests map[string]time.Time
	mu       sync.Mutex
	timeout  time.Duration
	logger   *zap.Logger
}

var _ DebouncerInterface = (*Debouncer)(nil)

// NewDebouncer создает новый debouncer
func NewDebouncer(timeout time.Duration, logger *zap.Logger) *Debouncer {
	return &Debouncer{
		requests: make(map[string]time.Time),
		timeout:  timeout,
		logger:   logger,
	}
}

// CanProcessRequestWithTimeout проверяет, можно ли обработать запрос
func (d *Debouncer) CanProcessRequestWithTimeout(key string, timeout time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.requests[key]; ok && now.Sub(last) <= timeout {
		return false
	}
	d.requests[key] = now
	return true
}

// Cleanup очищает устаревшие записи
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	maxTimeout := d.timeout
	for _, t := range commandDebounceTimeouts {
		if t > maxTimeout {
			maxTimeout = t
		}
	}

	now := time.Now()
	for key, last := range d.requests {
		if now.Sub(last) > maxTimeout {
			delete(d.requests, key)
		}
	}
}

// DebounceMiddleware отбрасывает повторную команду пользователя
func DebounceMiddleware(debouncer DebouncerInterface, logger *zap.Logger) Func {
	return func(update tgbotapi.Update, next Handler) {
		msg := update.Message
		if msg == nil || msg.From == nil || !msg.IsCommand() {
			next(update)
			return
		}

		command := msg.Command()
		timeout, ok := commandDebounceTimeouts[command]
		if !ok {
			timeout = time.Second
		}

		key := fmt.Sprintf("%d:%s", msg.From.ID, command)
		if !debouncer.CanProcessRequestWithTimeout(key, timeout) {
			logger.Debug("Debounced command", zap.String("key", key))
			return
		}

		next(update)
	}
}
