package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/opd-queue/internal/config"
	healthHandler "github.com/jwalitptl/opd-queue/internal/handler/health"
	providerHandler "github.com/jwalitptl/opd-queue/internal/handler/provider"
	queueHandler "github.com/jwalitptl/opd-queue/internal/handler/queue"
	"github.com/jwalitptl/opd-queue/internal/middleware"
	"github.com/jwalitptl/opd-queue/internal/queue"
	"github.com/jwalitptl/opd-queue/internal/registry"
	"github.com/jwalitptl/opd-queue/internal/router"
	admissionService "github.com/jwalitptl/opd-queue/internal/service/admission"
	queryService "github.com/jwalitptl/opd-queue/internal/service/query"
	transitionService "github.com/jwalitptl/opd-queue/internal/service/transition"
	"github.com/jwalitptl/opd-queue/internal/store"
	"github.com/jwalitptl/opd-queue/internal/worker"
	"github.com/jwalitptl/opd-queue/pkg/logger"
	"github.com/jwalitptl/opd-queue/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Output: os.Stdout,
		Pretty: cfg.Logging.Pretty,
	})

	// Metrics registry
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("opdq", promRegistry)

	// Engine state
	providerRegistry := registry.New(cfg.Providers)
	queueStore := store.New()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	estimator := queue.NewEstimator(providerRegistry, rng, cfg.Queue.ETAJitterMinutes)

	// Services
	admissionSvc := admissionService.NewService(queueStore, providerRegistry, estimator, rng, m, log)
	transitionSvc := transitionService.NewService(queueStore, estimator, m, log)
	querySvc := queryService.NewService(queueStore, providerRegistry)

	// Handlers and router
	r := router.New(
		router.Config{
			RateLimit: rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst: cfg.RateLimit.Burst,
			CORS:      middleware.DefaultCORSConfig(),
			Namespace: "opdq",
		},
		log,
		promRegistry,
		queueHandler.NewHandler(admissionSvc, transitionSvc, querySvc),
		providerHandler.NewHandler(querySvc),
		healthHandler.NewHandler(),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	// Scheduled ETA refresh
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresher := worker.NewRefresher(queueStore, estimator, cfg.Queue.RefreshInterval(), m, log)
	go refresher.Start(ctx)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
