package domain

import (
	"time"
)

// StepResult — результат выполнения одного шага.
//
// Создаётся один раз на выполненный шаг и после этого не меняется.
// При ошибке Output равен Input: частичный или мусорный вывод не отдаётся.
type StepResult struct {
	StepID   string   `json:"stepId"`
	StepType StepType `json:"stepType"`
	Input    string   `json:"input"`
	Output   string   `json:"output"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`

	// Warnings — некритичные замечания (например, замена PKCS1 на OAEP).
	Warnings []string `json:"warnings,omitempty"`

	// Duration — время выполнения в миллисекундах.
	Duration float64 `json:"duration"`
}

// ChainExecutionResult — результат выполнения цепочки.
//
// Инварианты:
//   - Success == true, только если ни один шаг не упал
//   - при Success == false FinalOutput == InputText
//   - при Success == true FinalOutput == Output последнего шага
//   - TotalDuration — сумма Duration шагов
type ChainExecutionResult struct {
	ID            string       `json:"id"`
	TemplateID    string       `json:"templateId,omitempty"`
	TemplateName  string       `json:"templateName,omitempty"`
	Success       bool         `json:"success"`
	Steps         []StepResult `json:"steps"`
	FinalOutput   string       `json:"finalOutput"`
	TotalDuration float64      `json:"totalDuration"`
	Timestamp     time.Time    `json:"timestamp"`
	InputText     string       `json:"inputText"`
}

// FailedStep возвращает первый упавший шаг и его позицию (с 1).
// Если все шаги успешны, возвращает nil и 0.
func (r *ChainExecutionResult) FailedStep() (*StepResult, int) {
	for i := range r.Steps {
		if !r.Steps[i].Success {
			return &r.Steps[i], i + 1
		}
	}
	return nil, 0
}

// Warnings возвращает предупреждения всех шагов по порядку.
func (r *ChainExecutionResult) Warnings() []string {
	var out []string
	for _, s := range r.Steps {
		out = append(out, s.Warnings...)
	}
	return out
}

// Milliseconds переводит time.Duration в дробные миллисекунды.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
