package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/sharing"
)

var (
	dbURL    = flag.String("db-url", getEnv("WARDEN_POSTGRES_URL", "postgres://localhost:5432/warden?sslmode=disable"), "PostgreSQL connection URL")
	schedule = flag.String("schedule", "*/30 * * * *", "Cron schedule for reconciliation (default: every 30 minutes)")
	logLevel = flag.String("log-level", getEnv("WARDEN_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	runOnce  = flag.Bool("run-once", false, "Run reconciliation once and exit")
)

func main() {
	flag.Parse()

	logger := observability.NewLogger(observability.ParseLevel(*logLevel), os.Stdout)

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	reconciler := sharing.NewReconciler(sharing.NewStore(db), logger)

	if *runOnce {
		if err := reconciler.Run(context.Background()); err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		logger.Info("reconciliation completed")
		return
	}

	c := cron.New()
	_, err = c.AddFunc(*schedule, func() {
		logger.Info("starting reconciliation pass")
		if err := reconciler.Run(context.Background()); err != nil {
			logger.WithError(err).Error("reconciliation pass failed")
			return
		}
		logger.Info("reconciliation pass completed")
	})
	if err != nil {
		log.Fatalf("Failed to schedule reconciliation: %v", err)
	}

	c.Start()
	logger.WithField("schedule", *schedule).Info("warden reconciler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx := c.Stop()
	<-ctx.Done()
	logger.Info("reconciler stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
