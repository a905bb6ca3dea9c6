package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wajahat01/NeuroLab-360-sub001/internal/api"
	"github.com/wajahat01/NeuroLab-360-sub001/internal/cache"
	"github.com/wajahat01/NeuroLab-360-sub001/internal/datastore"
	"github.com/wajahat01/NeuroLab-360-sub001/internal/supabase"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/config"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/metrics"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/resilience"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: "neurolab-api",
		Version:     "1.0.0",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobalLogger(logger)

	m := metrics.NewMetrics(metrics.DefaultConfig())

	// Remote cache tier is optional; a failed connection degrades to
	// local-only rather than aborting startup.
	var remote cache.RemoteBackend
	if cfg.Redis.Enabled() {
		redisBackend, err := cache.NewRedisBackend(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, running with local cache only",
				"addr", cfg.Redis.Addr(),
				"error", err.Error(),
			)
		} else {
			remote = redisBackend
			defer redisBackend.Close()
			logger.Info("Redis cache tier connected", "addr", cfg.Redis.Addr())
		}
	}

	cacheService, err := cache.NewService(&cfg.Cache, remote, m)
	if err != nil {
		logger.Error("Failed to initialize cache", "error", err.Error())
		os.Exit(1)
	}
	invalidator := cache.NewInvalidator(cacheService, m)

	supabaseClient, err := supabase.New(&cfg.Supabase)
	if err != nil {
		logger.Error("Failed to initialize Supabase client", "error", err.Error())
		os.Exit(1)
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             datastore.ServiceDatabase,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
		HalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCalls,
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			m.RecordBreakerTransition(name, int(to), to.String())
		},
	})
	executor := resilience.NewExecutor(resilience.RetryConfig{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			m.RecordRetryAttempt(datastore.ServiceDatabase)
		},
	}, breaker)

	maintenance := resilience.NewMaintenanceController()
	orchestrator := resilience.NewOrchestrator(
		resilience.NewHealthMonitor(maintenance),
		maintenance,
		resilience.NewFallbackProvider(),
	)
	orchestrator.SetOnFallback(m.RecordDegradedResponse)

	store := datastore.NewStore(datastore.Config{
		Backend:      supabase.NewBackend(supabaseClient),
		Cache:        cacheService,
		Invalidator:  invalidator,
		Executor:     executor,
		Orchestrator: orchestrator,
		CacheTTL:     cfg.Cache.DefaultTTL,
	})

	router := api.NewRouter(api.Deps{
		Config:       cfg,
		Store:        store,
		Cache:        cacheService,
		Orchestrator: orchestrator,
		Breaker:      breaker,
		Metrics:      m,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("Server exited")
}
