package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel переводит LOG_LEVEL в slog.Level (регистр не важен).
// Неизвестное или пустое значение — INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger создаёт логгер в формате "json" или "text".
// На DEBUG в записи добавляется источник.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// SetupLogger настраивает глобальный логгер сервиса по LOG_LEVEL и
// LOG_FORMAT (json по умолчанию, text для разработки).
// Каждая запись получает атрибут service.
func SetupLogger(service string) *slog.Logger {
	logger := NewLogger(os.Stdout, os.Getenv("LOG_FORMAT"), ParseLevel(os.Getenv("LOG_LEVEL")))
	if service != "" {
		logger = logger.With("service", service)
	}

	slog.SetDefault(logger)
	return logger
}

type ctxKey struct{}

// WithLogger кладёт логгер запроса в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext достаёт логгер из контекста, иначе slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, slog.Default())
}

// FromContextOr достаёт логгер из контекста, иначе fallback.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// WithChainID добавляет chain_id (ID результата выполнения).
func WithChainID(logger *slog.Logger, chainID string) *slog.Logger {
	return logger.With("chain_id", chainID)
}

// WithTemplateID добавляет template_id. Пустой ID не добавляется:
// цепочка может выполняться без шаблона.
func WithTemplateID(logger *slog.Logger, templateID string) *slog.Logger {
	if templateID == "" {
		return logger
	}
	return logger.With("template_id", templateID)
}

// WithStepID добавляет step_id и step_type.
func WithStepID(logger *slog.Logger, stepID, stepType string) *slog.Logger {
	return logger.With("step_id", stepID, "step_type", stepType)
}
