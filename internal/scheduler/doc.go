// Package scheduler периодически очищает историю выполнений.
//
// Структура:
//   - scheduler.go — Pruner: Tick (одна очистка) и Run (расписание cron)
//   - cron.go      — разбор cron-выражений
//   - env.go       — HISTORY_RETENTION и HISTORY_PRUNE_CRON
//
// Использование:
//
//	pruner := scheduler.New(scheduler.Config{
//	    History:   store.History,
//	    Retention: 720 * time.Hour,
//	    Logger:    logger,
//	})
//	go pruner.Run(ctx, "0 3 * * *")
package scheduler
