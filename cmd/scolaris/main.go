package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/scolaris/scolaris/pkg/api"
	"github.com/scolaris/scolaris/pkg/audit"
	"github.com/scolaris/scolaris/pkg/auth"
	"github.com/scolaris/scolaris/pkg/billing"
	"github.com/scolaris/scolaris/pkg/config"
	"github.com/scolaris/scolaris/pkg/middleware"
	"github.com/scolaris/scolaris/pkg/observability"
	"github.com/scolaris/scolaris/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scolaris: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting scolaris")

	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	db, err := storage.Open(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	var redisClient *redis.Client
	var counters middleware.CounterStore
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("invalid redis URL: %w", err)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		counters = middleware.NewRedisCounterStore(redisClient, "ratelimit")
		logger.Info("Rate limiting backed by Redis")
	} else {
		memStore := middleware.NewMemoryCounterStore()
		memStore.StartCleanup(ctx, cfg.RateLimit.Window)
		counters = memStore
		logger.Info("Rate limiting backed by in-process counters")
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	userStore, err := storage.NewUserStore(db)
	if err != nil {
		return err
	}
	studentStore, err := storage.NewStudentStore(db)
	if err != nil {
		return err
	}
	notificationStore, err := storage.NewNotificationStore(db)
	if err != nil {
		return err
	}
	billingStore, err := billing.NewDBStore(db)
	if err != nil {
		return err
	}
	billingService := billing.NewCachedService(billingStore, metrics)

	auditSink, err := audit.NewDBSink(db)
	if err != nil {
		return err
	}
	auditWriter := audit.NewAsyncWriter(auditSink, cfg.Audit.QueueSize, logger, metrics)

	sweeper := audit.NewRetentionSweeper(auditSink, cfg.Audit.RetentionDays, cfg.Audit.SweepSchedule, logger)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start retention sweeper: %w", err)
	}

	server := api.NewServer(api.Deps{
		Config:        cfg,
		Logger:        logger,
		Metrics:       metrics,
		Verifier:      auth.NewVerifier(cfg.Auth.JWTSecret),
		Issuer:        auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Users:         userStore,
		Students:      studentStore,
		Notifications: notificationStore,
		Billing:       billingService,
		Counters:      counters,
		Recorder:      auditWriter,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", observability.Handler(registry))
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		sweeper.Stop()
		return nil
	})
	sm.RegisterShutdownFunc(auditWriter.Close)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := db.Stats()
			metrics.DBConnectionsActive.Set(float64(stats.InUse))
			metrics.DBConnectionsIdle.Set(float64(stats.Idle))
		}
	}()

	var g errgroup.Group
	g.Go(func() error {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(sm.WaitForShutdown)

	return g.Wait()
}
