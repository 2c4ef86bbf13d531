package steps

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/rsacrypto"
)

// Registry сопоставляет тип шага с его реализацией. Потокобезопасен:
// исполнители только читают его, Register нужен при сборке и в тестах.
type Registry struct {
	mu    sync.RWMutex
	steps map[domain.StepType]Step
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[domain.StepType]Step)}
}

// DefaultRegistry регистрирует реализации всех типов из
// domain.AllStepTypes. Паникует, если у известного типа нет реализации.
func DefaultRegistry(provider rsacrypto.Capability) *Registry {
	r := NewRegistry()
	for _, s := range []Step{
		NewURLEncodeStep(),
		NewURLDecodeStep(),
		NewBase64EncodeStep(),
		NewBase64DecodeStep(),
		NewRSAEncryptStep(provider),
		NewRSADecryptStep(provider),
		NewHTTPParseStep(),
		NewHTTPBuildStep(),
	} {
		r.Register(s)
	}

	if missing := r.Missing(); len(missing) > 0 {
		panic(fmt.Sprintf("steps: no implementation for %v", missing))
	}
	return r
}

// Register добавляет реализацию, заменяя прежнюю для того же типа.
func (r *Registry) Register(step Step) {
	r.mu.Lock()
	r.steps[step.Type()] = step
	r.mu.Unlock()
}

// Get возвращает реализацию типа или ErrUnsupportedStepType.
func (r *Registry) Get(stepType domain.StepType) (Step, error) {
	r.mu.RLock()
	step, ok := r.steps[stepType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStepType, stepType)
	}
	return step, nil
}

// Has сообщает, есть ли реализация типа.
func (r *Registry) Has(stepType domain.StepType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.steps[stepType]
	return ok
}

// Types возвращает зарегистрированные типы: сначала известные
// в каноническом порядке, затем прочие по алфавиту.
func (r *Registry) Types() []domain.StepType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.StepType, 0, len(r.steps))
	for _, t := range domain.AllStepTypes() {
		if _, ok := r.steps[t]; ok {
			types = append(types, t)
		}
	}

	var extra []domain.StepType
	for t := range r.steps {
		if !t.IsValid() {
			extra = append(extra, t)
		}
	}
	slices.Sort(extra)

	return append(types, extra...)
}

// Missing возвращает известные типы шагов без реализации.
func (r *Registry) Missing() []domain.StepType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []domain.StepType
	for _, t := range domain.AllStepTypes() {
		if _, ok := r.steps[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Count возвращает число реализаций.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// Unregister убирает реализацию типа.
func (r *Registry) Unregister(stepType domain.StepType) {
	r.mu.Lock()
	delete(r.steps, stepType)
	r.mu.Unlock()
}
