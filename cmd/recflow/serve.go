package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AdamDotNet/recflow/internal/config"
	"github.com/AdamDotNet/recflow/internal/server"
	"github.com/AdamDotNet/recflow/internal/snapshot"
	rfctx "github.com/AdamDotNet/recflow/pkg/common/context"
	"github.com/AdamDotNet/recflow/pkg/metrics"
	"github.com/AdamDotNet/recflow/pkg/scheduling/scheduler"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve /Dispose and /WriteRecords",
		Long: `Serve the demo exports over HTTP.

GET /Dispose returns three records, GET /WriteRecords returns --record-count
records (override per request with ?count=). Both answer with a text/csv
attachment. With --redis-addr set, a snapshot of the large export is also
published to --redis-key on --snapshot-schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	metricsConfig := metrics.Config{Enabled: cfg.Metrics}

	srv, err := server.New(server.Config{
		Writer:         writerConfig(cfg),
		RecordCount:    cfg.RecordCount,
		MaxRecordCount: cfg.MaxRecordCount,
		WriteTimeout:   cfg.WriteTimeout,

		MaxConcurrentExports: cfg.MaxConcurrentExports,
		QueueTimeout:         cfg.QueueTimeout,
		Metrics:              metricsConfig,
	}, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var sched scheduler.Scheduler
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		sched, err = newSnapshotScheduler(client, cfg, logger, metricsConfig)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if sched != nil {
			errs = append(errs, sched.Stop(shutdownCtx))
		}
		errs = append(errs, httpServer.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newSnapshotScheduler(client *redis.Client, cfg config.Config, logger zerolog.Logger, mc metrics.Config) (scheduler.Scheduler, error) {
	exporter, err := snapshot.New(client, snapshot.Config{
		Key:    cfg.RedisKey,
		TTL:    cfg.SnapshotTTL,
		Count:  cfg.RecordCount,
		Writer: writerConfig(cfg),
	}, logger.With().Str("component", "snapshot").Logger())
	if err != nil {
		return nil, err
	}

	sched := scheduler.NewWithConfig(scheduler.Config{
		Logger:  logger.With().Str("component", "scheduler").Logger(),
		Metrics: mc,
	})
	timeout := cfg.WriteTimeout
	job := scheduler.JobFunc(func(ctx context.Context) error {
		ctx, cancel := rfctx.WithTimeoutOrCancel(ctx, timeout)
		defer cancel()
		return exporter.Run(ctx)
	})
	if err := sched.Schedule("snapshot", cfg.SnapshotSchedule, job); err != nil {
		return nil, err
	}
	return sched, nil
}
