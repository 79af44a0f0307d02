package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/carepoint-health/carepoint/internal/config"
	"github.com/carepoint-health/carepoint/internal/logger"
	"github.com/carepoint-health/carepoint/internal/notify"
	"github.com/carepoint-health/carepoint/internal/revocation"
	"github.com/carepoint-health/carepoint/internal/server"
	"github.com/carepoint-health/carepoint/internal/tasks"
	"github.com/carepoint-health/carepoint/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	if cfg.Redis.Address == "" {
		log.Fatal().Msg("REDIS_ADDRESS is required to run the worker")
	}

	log.Info().Str("version", version).Msg("Starting CarePoint worker")

	// Initialize database (reuse server's database initialization)
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server (needed for DB)")
	}
	defer srv.Close()
	db := srv.GetDB()

	var mailer notify.Mailer
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.From)
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set - emails will only be logged")
		mailer = notify.NewLogMailer(log)
	}

	// Asynq client for the purge scheduler
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				tasks.QueueDefault: 3,
				tasks.QueueLow:     1,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAccountRegistered, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleAccountRegistered(ctx, t, db, mailer, log)
	})

	// Redis revocations expire by themselves; only the database backend needs purging
	if cfg.Auth.RevocationBackend != "redis" {
		purger := revocation.NewGormStore(db)
		mux.HandleFunc(tasks.TypePurgeRevokedTokens, func(ctx context.Context, t *asynq.Task) error {
			return workers.HandlePurgeRevokedTokens(ctx, t, purger, log)
		})

		scheduler, err := workers.StartPurgeScheduler(cfg.Auth.PurgeSchedule, asynqClient, log)
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Auth.PurgeSchedule).Msg("Invalid PURGE_SCHEDULE")
		}
		defer scheduler.Stop()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger is a wrapper to make zerolog compatible with Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
