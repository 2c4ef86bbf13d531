package engine

import (
	"fmt"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// KeyLookup — проверка существования ключа.
// keys.Snapshot удовлетворяет этому интерфейсу.
type KeyLookup interface {
	Has(id string) bool
}

// Result — результат валидации цепочки.
type Result struct {
	Valid  bool               `json:"valid"`
	Errors []string           `json:"errors"`
	Issues []*ValidationError `json:"-"`
}

func (r *Result) add(issue *ValidationError) {
	r.Issues = append(r.Issues, issue)
	r.Errors = append(r.Errors, issue.Error())
}

// ValidateChain статически проверяет цепочку перед выполнением.
//
// Проверяются только включённые шаги:
//   - хотя бы один шаг включён (иначе ровно одна ошибка)
//   - тип шага известен
//   - у RSA шага задан keyId
//   - keyId ссылается на существующий ключ
//   - алгоритм RSA известен
//
// Функция не меняет шаги и ничего не выполняет, её можно вызывать
// на каждое изменение цепочки. keys == nil — проверка ссылок пропускается.
func ValidateChain(steps []domain.Step, keys KeyLookup) Result {
	res := Result{Errors: []string{}}

	enabled := 0
	for i := range steps {
		if steps[i].Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		res.add(&ValidationError{
			Message: "at least one step must be enabled",
			Err:     ErrNoEnabledSteps,
		})
		return res
	}

	for i := range steps {
		step := &steps[i]
		if !step.Enabled {
			continue
		}

		for _, issue := range validateStep(step, i+1, keys) {
			res.add(issue)
		}
	}

	res.Valid = len(res.Issues) == 0
	return res
}

// validateStep проверяет один шаг. position — позиция шага, с 1.
func validateStep(step *domain.Step, position int, keys KeyLookup) []*ValidationError {
	newIssue := func(field, msg string, err error) *ValidationError {
		return &ValidationError{
			StepID:   step.ID,
			StepName: step.DisplayName(),
			Position: position,
			Field:    field,
			Message:  msg,
			Err:      err,
		}
	}

	if !step.Type.IsValid() {
		return []*ValidationError{
			newIssue("type", fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType),
		}
	}

	if !step.Type.IsRSA() {
		return nil
	}

	var issues []*ValidationError
	params := step.RSA()

	switch {
	case params.KeyID == "":
		issues = append(issues, newIssue("keyId", "keyId is required", ErrMissingKeyID))
	case keys != nil && !keys.Has(params.KeyID):
		issues = append(issues, newIssue("keyId",
			fmt.Sprintf("key %s no longer exists", params.KeyID), ErrStaleKey))
	}

	if params.Algorithm != "" {
		if _, err := domain.ParseAlgorithm(string(params.Algorithm)); err != nil {
			issues = append(issues, newIssue("algorithm", err.Error(), ErrUnknownAlgorithm))
		}
	}

	return issues
}
