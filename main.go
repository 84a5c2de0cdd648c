package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/config"
	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	server "github.com/mauv0809/scorekeeper/internal/http"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/mauv0809/scorekeeper/internal/notifier"
	"github.com/mauv0809/scorekeeper/internal/notifier/slack"
	"github.com/mauv0809/scorekeeper/internal/pubsub"
	"github.com/mauv0809/scorekeeper/internal/scores"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", &database.InitialisationError{Reason: "load configuration", Err: err})
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run releases the pool before it returns.
	if err := run(ctx, cfg, metrics.NewService(), metrics.NewMetricsHandler(), startTime); err != nil {
		stop()
		log.Fatalf("Server failed: %s", err)
	}
	log.Info("Server process shutting down")
}

// run serves until ctx is cancelled or the server fails. The pool is shut
// down on every return path.
func run(ctx context.Context, cfg config.Config, metricsSvc *metrics.Service, metricsHandler http.Handler, startTime time.Time) error {
	pool, err := database.Default(ctx, func() (database.Options, error) {
		opts := cfg.PoolOptions()
		opts.Metrics = metricsSvc
		return opts, nil
	})
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		log.Info("Closing database connection")
		if err := pool.Shutdown(context.Background()); err != nil {
			log.Error("Database shutdown failed", "error", err)
		}
	}()

	tables := scores.NewTables(pool)
	if err := tables.EnsureExists(ctx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())

	var notify notifier.Notifier = notifier.Disabled{}
	if cfg.Slack.Enabled() {
		notify = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	} else {
		log.Info("Slack is not configured, announcements are disabled")
	}

	events, err := pubsub.New(ctx, cfg.ProjectID, metricsSvc)
	if err != nil {
		return fmt.Errorf("initialize pubsub: %w", err)
	}
	defer events.Close()

	s := server.NewServer(
		highscore.NewManager(tables, metricsSvc),
		leaderboard.New(tables, cfg.Leaderboard, metricsSvc),
		tables.Registry,
		metricsSvc,
		metricsHandler,
		cfg,
		notify,
		events,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")

		// Create a context with a timeout for the shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}
	return nil
}
