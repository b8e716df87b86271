// Package app assembles the service from configuration.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ReviewSend/internal/config"
	"ReviewSend/internal/db"
	"ReviewSend/internal/dispatch"
	"ReviewSend/internal/email"
	"ReviewSend/internal/ingest"
	"ReviewSend/internal/resolver"
	"ReviewSend/internal/spapi"
	"ReviewSend/internal/sweep"
)

type App struct {
	Store  db.Store
	Runner *sweep.Runner
}

func (a *App) Close() {
	a.Store.Close()
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {

	// ------------------------------------------------
	// Database
	// ------------------------------------------------
	store, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// ------------------------------------------------
	// Selling Partner API
	// ------------------------------------------------
	orders := spapi.New(spapi.Options{
		Endpoint:      cfg.SPAPIEndpoint,
		TokenURL:      cfg.SPAPITokenURL,
		ClientID:      cfg.SPAPIClientID,
		ClientSecret:  cfg.SPAPIClientSecret,
		MarketplaceID: cfg.SPAPIMarketplaceID,
		RateLimit:     cfg.SPAPIRateLimit,
		Timeout:       cfg.SPAPITimeout,
	}, logger.Named("spapi"))

	// ------------------------------------------------
	// Email Sender
	// ------------------------------------------------
	mailer := &email.Sender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Retries:  cfg.RetryAttempts,
		Timeout:  cfg.SMTPTimeout,
	}

	// ------------------------------------------------
	// Rate Limiter
	// ------------------------------------------------
	limiter := rate.NewLimiter(rate.Limit(cfg.SendRateLimit), cfg.SendRateLimit)

	// ------------------------------------------------
	// Template Resolution
	// ------------------------------------------------
	res := resolver.NewThreshold()
	if cfg.DaysPolicy == config.PolicyExactDay {
		res = resolver.NewExactDay()
	}

	// ------------------------------------------------
	// Pipeline
	// ------------------------------------------------
	ingester := ingest.NewIngester(orders, store, logger.Named("ingest"))
	sender := dispatch.NewSender(store, mailer, limiter, cfg.ClaimTTL, logger.Named("send"))
	dispatcher := dispatch.NewDispatcher(store, res, sender, cfg.Location(), logger.Named("dispatch"))

	runner := sweep.NewRunner(
		store,
		ingester,
		dispatcher,
		cfg.SweepWorkers,
		time.Duration(cfg.LookbackDays)*24*time.Hour,
		logger.Named("sweep"),
	)

	logger.Info("service assembled",
		zap.String("database_driver", cfg.DatabaseDriver),
		zap.String("days_policy", cfg.DaysPolicy),
		zap.String("timezone", cfg.Timezone),
		zap.Int("sweep_workers", cfg.SweepWorkers),
	)

	return &App{Store: store, Runner: runner}, nil
}
