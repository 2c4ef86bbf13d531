package engine

import (
	"errors"
	"fmt"
)

// Ошибки валидации цепочки.
var (
	// ErrNoEnabledSteps — в цепочке нет ни одного включённого шага.
	ErrNoEnabledSteps = errors.New("chain has no enabled steps")

	// ErrUnknownStepType — неизвестный тип шага.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrMissingKeyID — RSA шаг без keyId.
	ErrMissingKeyID = errors.New("keyId is required")

	// ErrStaleKey — keyId ссылается на удалённый или несуществующий ключ.
	ErrStaleKey = errors.New("referenced key does not exist")

	// ErrUnknownAlgorithm — неизвестная схема дополнения RSA.
	ErrUnknownAlgorithm = errors.New("unknown RSA algorithm")
)

// Ошибки разбора URL и шаблонов.
var (
	// ErrInvalidURL — строка не является абсолютным URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidQueryTemplate — queryTemplate не является JSON-массивом строк.
	ErrInvalidQueryTemplate = errors.New("invalid query template")

	// ErrUnmappedPlaceholder — для плейсхолдера пути нет значения.
	ErrUnmappedPlaceholder = errors.New("no value for path placeholder")

	// ErrJSONPath — путь не найден или вход не является JSON.
	ErrJSONPath = errors.New("json path extraction failed")
)

// ValidationError — ошибка валидации с контекстом шага.
type ValidationError struct {
	StepID   string // ID шага
	StepName string // подпись шага (имя или тип)
	Position int    // позиция шага в цепочке, с 1; 0 — ошибка всей цепочки
	Field    string // поле, вызвавшее ошибку
	Message  string // описание ошибки
	Err      error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("step %d (%s): %s", e.Position, e.StepName, e.Message)
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
