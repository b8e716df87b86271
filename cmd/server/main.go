package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ReviewSend/internal/api"
	"ReviewSend/internal/app"
	"ReviewSend/internal/config"
	"ReviewSend/internal/metrics"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Service
	// ------------------------------------------------
	svc, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start service", zap.Error(err))
	}
	defer svc.Close()

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Periodic Sweeps
	// ------------------------------------------------
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Runner.Start(ctx, cfg.SweepInterval)
	}()

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	gin.SetMode(gin.ReleaseMode)

	apiHandler := &api.Handler{
		Store:  svc.Store,
		Runner: svc.Runner,
		Log:    logger.Named("api"),
	}

	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set, operator API is unauthenticated")
	}

	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: api.NewRouter(apiHandler, cfg.AdminJWTSecret),
	}

	go func() {
		logger.Info("api server started", zap.String("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	// Wait for the in-flight sweep to stop between orders
	wg.Wait()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}
