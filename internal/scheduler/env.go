package scheduler

import (
	"fmt"
	"os"
	"time"
)

// FromEnv читает расписание очистки из HISTORY_RETENTION (Go duration)
// и HISTORY_PRUNE_CRON.
func FromEnv() (retention time.Duration, expr string, err error) {
	retention = DefaultRetention
	if v := os.Getenv("HISTORY_RETENTION"); v != "" {
		retention, err = time.ParseDuration(v)
		if err != nil {
			return 0, "", fmt.Errorf("HISTORY_RETENTION: %w", err)
		}
		if retention <= 0 {
			return 0, "", fmt.Errorf("HISTORY_RETENTION: must be positive, got %s", v)
		}
	}

	expr = os.Getenv("HISTORY_PRUNE_CRON")
	if expr == "" {
		expr = DefaultPruneCron
	}
	if err := ValidateCronExpr(expr); err != nil {
		return 0, "", fmt.Errorf("HISTORY_PRUNE_CRON: %w", err)
	}

	return retention, expr, nil
}
