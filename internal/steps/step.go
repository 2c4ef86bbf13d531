package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/keys"
)

// Ошибки шагов.
var (
	// ErrUnsupportedStepType — тип шага не зарегистрирован.
	ErrUnsupportedStepType = errors.New("unsupported step type")

	// ErrInvalidParams — параметры шага не подходят для выполнения.
	ErrInvalidParams = errors.New("invalid step params")

	// ErrStepCancelled — выполнение шага отменено.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrMalformedPercentEncoding — некорректная %-последовательность.
	ErrMalformedPercentEncoding = errors.New("malformed percent-encoding")

	// ErrInvalidBase64 — вход не является корректным Base64.
	ErrInvalidBase64 = errors.New("invalid Base64 input")

	// ErrMissingKeyID — у RSA шага не задан keyId.
	ErrMissingKeyID = errors.New("keyId is required")
)

// Step — интерфейс для типов шагов.
//
// Каждый тип из domain.AllStepTypes реализует этот интерфейс.
// Ошибка Execute — это ошибка шага: исполнитель цепочки превращает её
// в неуспешный StepResult.
type Step interface {
	// Type возвращает тип шага.
	Type() domain.StepType

	// Execute преобразует req.Input и возвращает результат.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения шага.
type Request struct {
	// Step — определение шага (тип и параметры).
	Step domain.Step

	// Input — выход предыдущего шага или исходный текст цепочки.
	Input string

	// Keys — снимок ключей на момент запуска цепочки. Nil — ключей нет.
	Keys *keys.Snapshot
}

// Response — результат выполнения шага.
type Response struct {
	// Output — вход следующего шага.
	Output string

	// Warnings — замечания, не прерывающие выполнение
	// (например, подмена PKCS1 на OAEP).
	Warnings []string
}

// NewResponse создаёт Response.
func NewResponse(output string, warnings ...string) *Response {
	return &Response{
		Output:   output,
		Warnings: warnings,
	}
}

// checkContext возвращает ErrStepCancelled, если ctx уже отменён.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
	default:
		return nil
	}
}
