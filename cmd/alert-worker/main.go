package main

import (
	"context"
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

// alert-worker periodically sweeps every active budget and dispatches alert
// notifications. With a broker configured it publishes alert messages for the
// notify worker; without one it emails directly.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentSweep,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
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

	var publisher alerts.Publisher
	var sink notify.Sink
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Publishing alerts to broker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		sink = newSink(ctx, cfg, logger)
		logger.Info("No broker configured, delivering alerts directly")
	}

	sweeper := alerts.NewSweeper(repo, services.NewBudgetService(repo), publisher, sink, cfg.Currency, cfg.SweepWorkers)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Starting alert worker",
		"interval", cfg.SweepInterval.String(),
		"workers", cfg.SweepWorkers)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	sweep(ctx, sweeper, logger)
	for {
		select {
		case <-ticker.C:
			sweep(ctx, sweeper, logger)
		case <-ctx.Done():
			logger.Info("Alert worker stopped gracefully")
			return
		}
	}
}

func sweep(ctx context.Context, sweeper *alerts.Sweeper, logger *log.Logger) {
	start := time.Now()
	summary, err := sweeper.Run(ctx, start.UTC())
	if err != nil {
		logger.Error("Budget sweep failed", "error", err)
		return
	}
	logger.Info("Budget sweep completed",
		"budgets_checked", summary.BudgetsChecked,
		"alerts_sent", summary.AlertsSent,
		"alerts_skipped", summary.AlertsSkipped,
		"duration_ms", time.Since(start).Milliseconds())
}

func newSink(ctx context.Context, cfg *config.Config, logger *log.Logger) notify.Sink {
	if cfg.GmailFromAddress == "" {
		logger.Warn("No Gmail sender configured, alert emails will be dropped")
		return notify.NoopSink{}
	}
	sink, err := gmail.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Gmail sink", "error", err)
		os.Exit(1)
	}
	return sink
}
