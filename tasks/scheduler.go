package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartOutboxDrainSchedule drains the outbox on schedule as a fallback for lost
// notifications. The returned cron must be stopped by the caller.
func StartOutboxDrainSchedule(drainer Drainer, schedule string, batchSize int, timeout time.Duration, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(schedule, func() {
		RunScheduledDrain(drainer, batchSize, timeout, logger)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("Outbox drain schedule started", zap.String("schedule", schedule))
	return c, nil
}

// RunScheduledDrain runs one bounded drain and logs the outcome
func RunScheduledDrain(drainer Drainer, batchSize int, timeout time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	stats, err := drainer.Drain(ctx, batchSize)
	if err != nil {
		logger.Error("Scheduled outbox drain failed", zap.Error(err))
		return
	}
	if stats.Failed > 0 {
		logger.Warn("Scheduled outbox drain left failed entries",
			zap.Int("failed", stats.Failed),
			zap.Int("remaining", stats.Remaining))
	}
}
