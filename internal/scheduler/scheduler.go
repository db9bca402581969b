package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rentsnap/internal/jobs"
	"rentsnap/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler with every job registered. An invalid
// cron expression in the config is an error.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// UTC with seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}
	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.ExpirePendingRequests, s.jobs.ExpireStaleRequests); err != nil {
		return fmt.Errorf("failed to register ExpireStaleRequests job: %w", err)
	}

	logger.Info("All cron jobs registered successfully", "expire_pending_requests", cfg.ExpirePendingRequests)
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries is the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
