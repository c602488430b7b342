package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saldo/internal/alerts"
	"saldo/internal/amqp"
	"saldo/internal/config"
	"saldo/internal/log"
	"saldo/internal/notify"
	"saldo/internal/notify/gmail"
	"saldo/internal/services"
	"saldo/internal/storage"
)

// notify-worker consumes budget alert messages from the broker, re-evaluates
// each budget and emails the owner. Stale alerts are dropped quietly.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentNotify,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notify worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sink notify.Sink
	if cfg.GmailFromAddress != "" {
		gmailSink, err := gmail.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Gmail sink", "error", err)
			os.Exit(1)
		}
		sink = gmailSink
	} else {
		logger.Warn("No Gmail sender configured, alert emails will be dropped")
		sink = notify.NoopSink{}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	sweeper := alerts.NewSweeper(repo, services.NewBudgetService(repo), nil, sink, cfg.Currency, cfg.SweepWorkers)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Starting notify worker", "queue", cfg.AMQPQueue)

	err = client.ConsumeBudgetAlerts(ctx, func(msg *amqp.BudgetAlertMessage) error {
		return sweeper.Deliver(ctx, msg.BudgetID, msg.OwnerID, time.Now().UTC())
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Notify worker stopped gracefully")
}
