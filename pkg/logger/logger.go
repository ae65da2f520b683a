// Package logger содержит настройку логгера.
package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options описывает параметры логгера
type Options struct {
	Level   string
	Path    string
	DataDir string
}

// OptionsFromEnv читает параметры логгера из окружения.
// Логгер создается раньше конфигурации, поэтому читает env напрямую.
func OptionsFromEnv() Options {
	return Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Path:    os.Getenv("LOG_PATH"),
		DataDir: os.Getenv("APP_DATA_DIR"),
	}
}

// New создает логгер: JSON в stdout и в файл с ротацией
func New(opts Options) *zap.Logger {
	level := ParseLevel(opts.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
	}

	if path := resolvePath(opts); path != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   path,
				MaxSize:    20, // MB
				MaxBackups: 3,
				MaxAge:     14, // days
				Compress:   true,
			}),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// ParseLevel переводит строковый уровень в zapcore.Level, по умолчанию info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// resolvePath выбирает файл логов: LOG_PATH, затем APP_DATA_DIR, затем logs/.
// Пустая строка означает, что писать в файл не получится.
func resolvePath(opts Options) string {
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err == nil {
			return opts.Path
		}
	}

	if opts.DataDir != "" {
		if err := os.MkdirAll(opts.DataDir, 0o755); err == nil {
			return filepath.Join(opts.DataDir, "ymlive.log")
		}
	}

	if err := os.MkdirAll("logs", 0o755); err == nil {
		return filepath.Join("logs", "ymlive.log")
	}

	return ""
}
