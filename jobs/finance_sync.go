package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vivenda-app/vivenda/internal/finance"
	jobmetrics "github.com/vivenda-app/vivenda/internal/jobs"
)

// FinanceSyncJob imports new movements from the external financial system.
type FinanceSyncJob struct {
	Service *finance.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewFinanceSyncJob initialises the finance sync handler.
func NewFinanceSyncJob(service *finance.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *FinanceSyncJob {
	return &FinanceSyncJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes one sync run.
func (j *FinanceSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("finance sync: handler not configured")
	}
	var payload FinanceSyncPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskFinanceSync)
	result, err := j.Service.Sync(ctx)
	err = tracker.End(err)
	if err != nil {
		// One attempt per schedule tick; the next cron run retries naturally.
		j.logger().Warn("finance sync job failed", slog.Any("error", err))
		return asynq.SkipRetry
	}
	j.logger().Info("finance sync job finished",
		slog.String("reason", payload.Reason),
		slog.Int("fetched", result.Fetched),
		slog.Int("imported", result.Imported))
	return nil
}

func (j *FinanceSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
