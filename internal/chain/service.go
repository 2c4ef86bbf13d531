package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/engine"
	"github.com/shaiso/Cipherchain/internal/keys"
	"github.com/shaiso/Cipherchain/internal/telemetry"
)

// Recorder получает результат каждого выполнения (история, события).
type Recorder interface {
	Record(ctx context.Context, res *domain.ChainExecutionResult) error
}

// RecorderFunc — адаптер функции к Recorder.
type RecorderFunc func(ctx context.Context, res *domain.ChainExecutionResult) error

// Record вызывает f(ctx, res).
func (f RecorderFunc) Record(ctx context.Context, res *domain.ChainExecutionResult) error {
	return f(ctx, res)
}

// TemplateStore — хранилище шаблонов, нужное сервису.
type TemplateStore interface {
	Get(ctx context.Context, id string) (*domain.ChainTemplate, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// RunOptions — параметры запуска цепочки через Service.
type RunOptions struct {
	TemplateID   string
	TemplateName string
}

// Service связывает исполнитель с хранилищами.
//
// Каждый запуск читает коллекцию ключей заново и передаёт исполнителю
// неизменяемый снимок. Единственная ошибка Run — недоступность
// хранилища; ошибки шагов остаются в результате.
type Service struct {
	executor  *Executor
	keys      keys.Collection
	templates TemplateStore
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceConfig — конфигурация Service.
type ServiceConfig struct {
	Executor  *Executor
	Keys      keys.Collection
	Templates TemplateStore

	// Recorder — опционально; ошибка записи логируется и не влияет на результат.
	Recorder Recorder

	Logger *slog.Logger
}

// NewService создаёт Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		executor:  cfg.Executor,
		keys:      cfg.Keys,
		templates: cfg.Templates,
		recorder:  cfg.Recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Run выполняет цепочку со свежим снимком ключей.
func (s *Service) Run(ctx context.Context, chainSteps []domain.Step, input string, opts RunOptions) (*domain.ChainExecutionResult, error) {
	snap, err := keys.Load(ctx, s.keys)
	if err != nil {
		return nil, err
	}

	res := s.executor.ExecuteChain(ctx, chainSteps, input, Options{
		TemplateID:   opts.TemplateID,
		TemplateName: opts.TemplateName,
		Keys:         snap,
	})

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, res); err != nil {
			telemetry.WithChainID(s.logger, res.ID).Warn("failed to record chain result", "error", err)
		}
	}

	return res, nil
}

// RunTemplate загружает шаблон, выполняет его и отмечает lastUsed.
func (s *Service) RunTemplate(ctx context.Context, templateID, input string) (*domain.ChainExecutionResult, error) {
	tmpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	res, err := s.Run(ctx, tmpl.Steps, input, RunOptions{
		TemplateID:   tmpl.ID,
		TemplateName: tmpl.Name,
	})
	if err != nil {
		return nil, err
	}

	// Только lastUsed: шаблон могли отредактировать, пока шла цепочка.
	if err := s.templates.TouchLastUsed(ctx, tmpl.ID, s.now().UTC()); err != nil {
		telemetry.WithTemplateID(s.logger, tmpl.ID).Warn("failed to update template lastUsed", "error", err)
	}

	return res, nil
}

// Validate проверяет цепочку против текущей коллекции ключей.
func (s *Service) Validate(ctx context.Context, chainSteps []domain.Step) (engine.Result, error) {
	snap, err := keys.Load(ctx, s.keys)
	if err != nil {
		return engine.Result{}, err
	}
	return engine.ValidateChain(chainSteps, snap), nil
}
