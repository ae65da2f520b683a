// Package middleware содержит middleware компоненты.
package middleware

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Handler обработчик обновления
type Handler func(tgbotapi.Update)

// Func middleware вокруг Handler
type Func func(update tgbotapi.Update, next Handler)

// Notifier отправляет пользователю служебный ответ
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

// Middleware представляет middleware компонент
type Middleware struct {
	rateLimiter RateLimiterInterface
	debouncer   DebouncerInterface
	owner       string
	notifier    Notifier
	logger      *zap.Logger
}

// New создает новый middleware. notifier может быть nil.
func New(ownerUsername string, notifier Notifier, logger *zap.Logger) *Middleware {
	return &Middleware{
		// 10 запросов в минуту
		rateLimiter: NewRateLimiter(10, 60*time.Second, logger),
		debouncer:   NewDebouncer(1*time.Second, logger),
		owner:       ownerUsername,
		notifier:    notifier,
		logger:      logger,
	}
}

// Process проверяет rate limit
func (m *Middleware) Process(update tgbotapi.Update) bool {
	if update.Message != nil && update.Message.From != nil {
		if !m.rateLimiter.Allow(update.Message.From.ID) {
			return false
		}
	}
	return true
}

// ProcessWithMiddleware применяет цепочку: recovery, logging, owner, debounce, rate limit
func (m *Middleware) ProcessWithMiddleware(update tgbotapi.Update, handler Handler) {
	chain := []Func{
		RecoveryMiddleware(m.logger),
		LoggingMiddleware(m.logger),
		OwnerOnlyMiddleware(m.owner, m.notifier, m.logger),
		DebounceMiddleware(m.debouncer, m.logger),
		func(update tgbotapi.Update, next Handler) {
			if m.Process(update) {
				next(update)
			}
		},
	}

	Chain(chain...)(update, handler)
}

// Chain объединяет middleware, первый выполняется снаружи
func Chain(funcs ...Func) Func {
	return func(update tgbotapi.Update, final Handler) {
		next := final
		for i := len(funcs) - 1; i >= 0; i-- {
			mw, inner := funcs[i], next
			next = func(u tgbotapi.Update) { mw(u, inner) }
		}
		next(update)
	}
}

// Cleanup очищает устаревшие записи в middleware
func (m *Middleware) Cleanup() {
	m.rateLimiter.Cleanup()
	m.debouncer.Cleanup()
}
