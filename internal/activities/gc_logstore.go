package activities

import (
	"context"
	"strconv"

	"go.temporal.io/sdk/activity"
)

// GCLogStore prunes log store data older than LOGSTORE_RETENTION_DAYS.
func (a *Activities) GCLogStore(ctx context.Context, table string) error {
	logger := activity.GetLogger(ctx)
	retention := 0
	if v := getenv("LOGSTORE_RETENTION_DAYS", ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			retention = parsed
		}
	}
	if retention <= 0 {
		logger.Info("logstore-gc-skip", "reason", "retention<=0")
		return nil
	}
	if a.logs == nil {
		logger.Info("logstore-gc-skip", "reason", "no log store configured")
		return nil
	}
	target := table
	if target == "" {
		target = "logs"
	}
	if err := a.logs.Prune(ctx, target, retention); err != nil {
		logger.Warn("logstore-gc-failed", "err", err)
		return err
	}
	logger.Info("logstore-gc-done", "table", target, "retentionDays", retention)
	return nil
}
