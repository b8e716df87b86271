// Command sweep runs a single ingestion and dispatch pass and exits. It is
// meant to be driven by cron.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ReviewSend/internal/app"
	"ReviewSend/internal/config"
	"ReviewSend/internal/sweep"
)

func main() {
	sellerID := flag.Int64("seller", 0, "only sweep this seller id")
	days := flag.Int("days", 0, "order lookback in days (default LOOKBACK_DAYS)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start service", zap.Error(err))
	}
	defer svc.Close()

	opts := sweep.Options{SellerID: *sellerID}
	if *days > 0 {
		opts.Lookback = time.Duration(*days) * 24 * time.Hour
	}

	report, err := svc.Runner.Run(ctx, opts)
	if err != nil {
		logger.Error("sweep failed", zap.Error(err))
		svc.Close()
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("sweep finished",
		zap.Int("sellers", report.Sellers),
		zap.Int("fetched", report.Fetched),
		zap.Int("ingested", report.Ingested),
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("no_template", report.NoTemplate),
		zap.Int("failures", report.Failures),
	)
}
