package mq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// HistoryAppender — хранилище, принимающее результаты выполнения.
type HistoryAppender interface {
	Append(ctx context.Context, res *domain.ChainExecutionResult) error
}

// NewHistoryHandler сохраняет события chain.executed в историю.
//
// Нечитаемые и чужие сообщения отбрасываются в DLQ; ошибка хранилища
// возвращает сообщение в очередь.
func NewHistoryHandler(history HistoryAppender, logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, d *Delivery) error {
		if d.Message.Type != MessageTypeChainExecuted {
			return fmt.Errorf("%w: unexpected type %q", ErrDiscard, d.Message.Type)
		}

		res, err := ParsePayload[domain.ChainExecutionResult](&d.Message)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDiscard, err)
		}
		if res.ID == "" {
			return fmt.Errorf("%w: result without id", ErrDiscard)
		}

		if err := history.Append(ctx, &res); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		logger.Debug("chain result recorded", "chain_id", res.ID, "success", res.Success)
		return nil
	}
}
