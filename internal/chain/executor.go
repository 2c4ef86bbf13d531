package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/keys"
	"github.com/shaiso/Cipherchain/internal/steps"
	"github.com/shaiso/Cipherchain/internal/telemetry"
)

// StepExecutor выполняет один шаг и превращает любой исход в StepResult.
//
// Execute никогда не возвращает ошибку и не паникует: ошибки шага и
// паники внутри трансформации записываются в StepResult.Error,
// а Output остаётся равным Input.
type StepExecutor struct {
	registry *steps.Registry
	logger   *slog.Logger
	metrics  *telemetry.ChainMetrics
}

// NewStepExecutor создаёт StepExecutor.
func NewStepExecutor(registry *steps.Registry, logger *slog.Logger, metrics *telemetry.ChainMetrics) *StepExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepExecutor{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// Execute выполняет step над input. Длительность измеряется вокруг
// вызова трансформации (wall clock).
func (e *StepExecutor) Execute(ctx context.Context, step domain.Step, input string, snap *keys.Snapshot) (res domain.StepResult) {
	res = domain.StepResult{
		StepID:   step.ID,
		StepType: step.Type,
		Input:    input,
		Output:   input,
	}

	logger := telemetry.WithStepID(e.logger, step.ID, string(step.Type))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Output = input
			res.Warnings = nil
			res.Error = fmt.Sprintf("step panicked: %v", r)
			logger.Error("step panicked", "panic", r)
		}

		elapsed := time.Since(start)
		res.Duration = domain.Milliseconds(elapsed)
		e.metrics.ObserveStep(stepTypeLabel(step.Type), res.Success, elapsed)
	}()

	impl, err := e.registry.Get(step.Type)
	if err != nil {
		res.Error = err.Error()
		logger.Warn("step failed", "error", err)
		return res
	}

	resp, err := impl.Execute(ctx, &steps.Request{
		Step:  step,
		Input: input,
		Keys:  snap,
	})
	if err != nil {
		res.Error = err.Error()
		logger.Debug("step failed", "error", err)
		return res
	}

	res.Output = resp.Output
	res.Warnings = resp.Warnings
	res.Success = true

	for _, w := range resp.Warnings {
		logger.Warn("step warning", "warning", w)
	}
	return res
}

// Options — параметры выполнения цепочки.
type Options struct {
	// TemplateID / TemplateName — шаблон, из которого взята цепочка (необязательно).
	TemplateID   string
	TemplateName string

	// Keys — снимок ключей, снятый в начале выполнения.
	Keys *keys.Snapshot
}

// Executor выполняет цепочку шагов.
type Executor struct {
	steps   *StepExecutor
	logger  *slog.Logger
	metrics *telemetry.ChainMetrics
	now     func() time.Time
}

// Config — конфигурация Executor.
type Config struct {
	// Registry — реестр шагов (обязателен).
	Registry *steps.Registry

	// Metrics — метрики (опционально).
	Metrics *telemetry.ChainMetrics

	// Logger
	Logger *slog.Logger
}

// NewExecutor создаёт Executor.
func NewExecutor(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		steps:   NewStepExecutor(cfg.Registry, logger, cfg.Metrics),
		logger:  logger,
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// ExecuteChain выполняет включённые шаги по порядку.
//
// Выход каждого успешного шага становится входом следующего. На первом
// упавшем шаге выполнение останавливается: в Steps попадают результаты
// только выполненных шагов, FinalOutput равен исходному input.
// Ошибки шагов не возвращаются наружу — результат всегда полный.
func (e *Executor) ExecuteChain(ctx context.Context, chainSteps []domain.Step, input string, opts Options) *domain.ChainExecutionResult {
	res := &domain.ChainExecutionResult{
		ID:           uuid.NewString(),
		TemplateID:   opts.TemplateID,
		TemplateName: opts.TemplateName,
		Success:      true,
		Steps:        []domain.StepResult{},
		Timestamp:    e.now().UTC(),
		InputText:    input,
	}

	logger := telemetry.WithTemplateID(telemetry.WithChainID(e.logger, res.ID), opts.TemplateID)

	enabled := domain.EnabledSteps(chainSteps)
	current := input

	for _, step := range enabled {
		sr := e.steps.Execute(ctx, step, current, opts.Keys)
		res.Steps = append(res.Steps, sr)
		res.TotalDuration += sr.Duration

		if !sr.Success {
			res.Success = false
			break
		}
		current = sr.Output
	}

	if res.Success {
		res.FinalOutput = current
	} else {
		res.FinalOutput = input
	}

	e.metrics.ObserveChain(res.Success)

	if failed, pos := res.FailedStep(); failed != nil {
		logger.Info("chain failed",
			"position", pos,
			"step_id", failed.StepID,
			"step_type", failed.StepType,
			"error", failed.Error,
		)
	} else {
		logger.Debug("chain succeeded",
			"steps", len(res.Steps),
			"total_ms", res.TotalDuration,
		)
	}

	return res
}

// stepTypeLabel ограничивает кардинальность метрик: тип шага приходит
// от клиента, поэтому всё вне закрытого набора учитывается как "unknown".
func stepTypeLabel(t domain.StepType) string {
	if !t.IsValid() {
		return "unknown"
	}
	return string(t)
}
