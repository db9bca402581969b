package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "rentsnap/internal/api/http"
	"rentsnap/internal/backend"
	"rentsnap/internal/config"
	"rentsnap/internal/imaging"
	"rentsnap/internal/logger"
	"rentsnap/internal/mailer"
	"rentsnap/internal/repository"
	"rentsnap/internal/repository/memory"
	"rentsnap/internal/repository/postgres"
	"rentsnap/internal/security"
	"rentsnap/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	seed := flag.Bool("seed", false, "Create default categories on startup")
	demo := flag.Bool("demo", false, "With -seed, also create demo users and items")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentSnap backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "store", cfg.Server.Store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Repositories
	var store repository.Store
	switch cfg.Server.Store {
	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database connection established")
		store = postgres.NewStore(db)
	}

	// Initialize Storage Service
	imageStore, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Error("Failed to initialize image storage", "error", err, "type", cfg.Storage.Type)
		log.Fatalf("Failed to initialize image storage: %v", err)
	}
	processor := imaging.NewProcessor(cfg.Storage.MaxDimension, cfg.Storage.MaxFileSize<<20, cfg.Storage.AllowedTypes)

	opts := []backend.Option{backend.WithImages(imageStore, processor)}
	if m := mailer.NewSendGridMailer(cfg.SendGrid); m != nil {
		logger.Info("Notification emails enabled", "from", cfg.SendGrid.FromEmail)
		opts = append(opts, backend.WithMailer(m))
	}

	b := backend.New(store, security.NewTokenManager(cfg.JWT.Secret, cfg.TokenExpiry()), opts...)
	if *seed {
		if err := b.Seed(ctx, *demo); err != nil {
			logger.Error("Failed to seed data", "error", err)
			log.Fatalf("Failed to seed data: %v", err)
		}
	}

	routerOpts := httpapi.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Storage.MaxFileSize << 20,
	}
	if local, ok := imageStore.(*storage.LocalStorage); ok {
		routerOpts.MediaDir = local.Dir()
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(b, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
