package jobs

import (
	"context"
	"fmt"
	"time"

	"rentsnap/internal/config"
	"rentsnap/internal/logger"
)

// Expirer cancels pending rental requests that nobody answered in time.
type Expirer interface {
	ExpireStaleRequests(ctx context.Context, maxAge time.Duration) (int, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	requests Expirer
	config   *config.Config
	timeout  time.Duration
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(requests Expirer, cfg *config.Config) *JobRunner {
	return &JobRunner{
		requests: requests,
		config:   cfg,
		timeout:  5 * time.Minute,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()
	ctx = logger.WithRequestID(ctx, "job-"+jobName)
	log := logger.WithService("jobs")

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	log.InfoContext(ctx, "Starting job", "job", jobName)
	start := time.Now()
	if err = jobFunc(ctx); err != nil {
		log.ErrorContext(ctx, "Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	log.InfoContext(ctx, "Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() error {
	return jr.RunExpireStaleRequests()
}
