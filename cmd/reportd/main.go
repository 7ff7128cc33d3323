// Command reportd serves the reporting pipeline as a small service:
// a health/metrics surface, an admin-triggered run endpoint and an
// optional daily schedule.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/malyjan/reservanto-reports/internal/api/router"
	"github.com/malyjan/reservanto-reports/internal/config"
	"github.com/malyjan/reservanto-reports/internal/observability/metrics"
	"github.com/malyjan/reservanto-reports/internal/pipeline"
	"github.com/malyjan/reservanto-reports/internal/reservanto"
	"github.com/malyjan/reservanto-reports/internal/sheets"
	"github.com/malyjan/reservanto-reports/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reservanto-reports service",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.Validate(false); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(reg)

	client, err := reservanto.NewClient(cfg.ReservantoUsername, cfg.ReservantoPassword,
		reservanto.WithLogger(logger),
		reservanto.WithResourceIDs(cfg.FeedResourceIDs),
	)
	if err != nil {
		logger.Error("failed to build portal client", "error", err)
		os.Exit(1)
	}
	publisher, err := sheets.NewPublisher(context.Background(), cfg.CredentialsPath, cfg.GoogleEmailAddress, logger)
	if err != nil {
		logger.Error("failed to build sheets publisher", "error", err)
		os.Exit(1)
	}

	p, err := pipeline.New(pipeline.Config{
		Source:      client,
		Publisher:   publisher,
		Logger:      logger,
		Metrics:     pipelineMetrics,
		AbsenceDays: cfg.AbsenceDays,
		ReportMonth: cfg.ReportMonth,
		ReportYear:  cfg.ReportYear,
		FeedStart:   cfg.FeedWindowStart,
	})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	if cfg.RunSchedule != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.RunSchedule, func() {
			if _, err := p.Run(context.Background()); err != nil {
				logger.Error("scheduled run failed", "error", err)
			}
		}); err != nil {
			logger.Error("invalid run schedule", "schedule", cfg.RunSchedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("scheduler started", "schedule", cfg.RunSchedule)
	}

	r := router.New(&router.Config{
		Logger:          logger,
		Runner:          p,
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // a manual run waits for the full pipeline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
