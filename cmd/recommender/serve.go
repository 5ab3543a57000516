package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jihwankim/fault-recommender/pkg/config"
	"github.com/jihwankim/fault-recommender/pkg/coordinator"
	"github.com/jihwankim/fault-recommender/pkg/executor"
	"github.com/jihwankim/fault-recommender/pkg/httpapi"
	"github.com/jihwankim/fault-recommender/pkg/proposer"
	"github.com/jihwankim/fault-recommender/pkg/reporting"
	"github.com/jihwankim/fault-recommender/pkg/session"
	"github.com/jihwankim/fault-recommender/pkg/sessionstore"
	"github.com/jihwankim/fault-recommender/pkg/shutdown"
	"github.com/jihwankim/fault-recommender/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Args:  cobra.NoArgs,
	Short: "Run the recommender HTTP server",
	Long:  `Starts the HTTP boundary, recovers any persisted sessions, and serves the optimization API.`,
	RunE:  runServe,
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := reporting.LogLevel(cfg.LogLevel)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.LogFormat),
		Output: os.Stdout,
	})

	logger.Info("recommender starting", "version", version)

	store, err := sessionstore.New(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	if err := store.LoadAll(); err != nil {
		return fmt.Errorf("failed to recover persisted sessions: %w", err)
	}
	logger.Info("recovered sessions", "count", len(store.List()))

	metrics := telemetry.New(prometheus.DefaultRegisterer)
	coord := coordinator.New(store, 16, logger, metrics)

	breakerFor := func() *executor.CircuitBreaker {
		return executor.NewCircuitBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.RecoveryTimeout)
	}

	executorClient := executor.New(cfg.Executor.BaseURL(), cfg.Executor.Timeout, executor.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		JitterPct:   cfg.Retry.JitterPct,
	}, breakerFor(), logger, nil, "")

	healthCheck := func(ctx context.Context) bool {
		return executorClient.Health(ctx)
	}

	launch := func(ctx context.Context, sess *session.Session) {
		sess.Analyzer.BaselineMS = cfg.Analyzer.BaselineMS
		sess.Analyzer.ThresholdMS = cfg.Analyzer.ThresholdMS
		sess.Analyzer.WeightBug = cfg.Analyzer.WeightBug
		sess.Analyzer.WeightPerf = cfg.Analyzer.WeightPerf
		sess.Analyzer.WeightStruct = cfg.Analyzer.WeightStruct

		seed := proposer.SeedFromSessionID(sess.ID)
		prop := proposer.New(sess.Space, seed, cfg.Optimizer.ColdStartN, cfg.Optimizer.CandidatePoints)

		client := executor.New(cfg.Executor.BaseURL(), cfg.Executor.Timeout, executor.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
			JitterPct:   cfg.Retry.JitterPct,
		}, breakerFor(), logger.WithSession(sess.ID), metrics, sess.ID)

		coord.Start(ctx, sess, prop, client)
	}

	server := httpapi.NewServer(store, coord, healthCheck, launch, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: server}
	drained := make(chan struct{})

	shutdownCtl := shutdown.New(logger)
	shutdownCtl.Listen(ctx)
	shutdownCtl.OnStop(func() {
		coord.StopAll(store.List())
		cancel()
		_ = httpServer.Shutdown(context.Background())
		close(drained)
	})

	logger.Info("listening", "addr", addr)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server exited", "error", err.Error())
		return err
	}

	<-drained
	return nil
}
