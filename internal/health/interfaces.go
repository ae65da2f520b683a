package health

import (
	"context"

	"ymlive/internal/service"
)

// DatabaseInterface определяет интерфейс для проверки здоровья базы данных
type DatabaseInterface interface {
	Ping(ctx context.Context) error
}

// TickReporter источник итога последнего тика опроса
type TickReporter interface {
	LastTick() service.TickStatus
}
