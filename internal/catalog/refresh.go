package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskRefresh is the asynq task type that reloads the catalog cache.
const TaskRefresh = "catalog:refresh"

// NewRefreshTask builds a catalog refresh task. Duplicate refreshes within
// a minute collapse into one.
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskRefresh, nil, asynq.Unique(time.Minute), asynq.MaxRetry(5))
}

// RefreshHandler returns the asynq handler for TaskRefresh.
func RefreshHandler(svc *Service) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if svc == nil {
			return fmt.Errorf("catalog refresh: service not configured: %w", asynq.SkipRetry)
		}
		return svc.Refresh(ctx)
	}
}
