package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRetention — сколько хранится история по умолчанию.
const DefaultRetention = 30 * 24 * time.Hour

// HistoryPruner — хранилище истории, умеющее удалять старые записи.
type HistoryPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner удаляет историю старше Retention.
type Pruner struct {
	history   HistoryPruner
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Config — конфигурация Pruner.
type Config struct {
	History HistoryPruner

	// Retention — возраст, после которого запись удаляется (default: 720h).
	Retention time.Duration

	Logger *slog.Logger
}

// New создаёт новый Pruner.
func New(cfg Config) *Pruner {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pruner{
		history:   cfg.History,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Tick выполняет одну очистку и возвращает число удалённых записей.
func (p *Pruner) Tick(ctx context.Context) (int64, error) {
	cutoff := p.now().UTC().Add(-p.retention)

	n, err := p.history.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}

	p.logger.Info("history pruned", "removed", n, "cutoff", cutoff)
	return n, nil
}

// Run запускает Tick по cron-выражению до отмены ctx.
// Ошибки отдельных тиков логируются и не останавливают расписание.
func (p *Pruner) Run(ctx context.Context, expr string) error {
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))

	_, err := c.AddFunc(expr, func() {
		if _, err := p.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("history prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule prune %q: %w", expr, err)
	}

	if next, err := NextRun(expr, p.now()); err == nil {
		p.logger.Info("history pruner started", "cron", expr, "retention", p.retention, "next_run", next)
	}

	c.Start()
	<-ctx.Done()

	// ждём текущий тик
	<-c.Stop().Done()
	return ctx.Err()
}
