package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rentsnap/internal/backend"
	"rentsnap/internal/config"
	"rentsnap/internal/jobs"
	"rentsnap/internal/logger"
	"rentsnap/internal/repository/postgres"
	"rentsnap/internal/scheduler"
	"rentsnap/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-stale-requests', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Server.Store != "postgres" {
		log.Fatalf("The cron job needs the postgres store, got %q", cfg.Server.Store)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentSnap cronjob runner...", "log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	b := backend.New(postgres.NewStore(db), security.NewTokenManager(cfg.JWT.Secret, cfg.TokenExpiry()))
	jobRunner := jobs.NewJobRunner(b, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(jobRunner, *runOnce); err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) error {
	switch jobName {
	case "expire-stale-requests":
		return jobRunner.RunExpireStaleRequests()
	case "all":
		return jobRunner.RunAll()
	}
	fmt.Printf("Available jobs:\n")
	fmt.Printf("  - expire-stale-requests\n")
	fmt.Printf("  - all\n")
	return fmt.Errorf("unknown job %q", jobName)
}
