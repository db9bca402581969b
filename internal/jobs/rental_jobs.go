package jobs

import (
	"context"

	"rentsnap/internal/logger"
)

const jobExpireStaleRequests = "ExpireStaleRequests"

// ExpireStaleRequests is the cron entry point. Failures are logged.
func (jr *JobRunner) ExpireStaleRequests() {
	_ = jr.RunExpireStaleRequests()
}

// RunExpireStaleRequests cancels requests that stayed Pending longer than the
// configured expiry.
func (jr *JobRunner) RunExpireStaleRequests() error {
	maxAge := jr.config.Scheduler.PendingExpiry
	return jr.runWithRecovery(jobExpireStaleRequests, func(ctx context.Context) error {
		n, err := jr.requests.ExpireStaleRequests(ctx, maxAge)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Expired stale rental requests", "count", n, "max_age", maxAge)
		return nil
	})
}
