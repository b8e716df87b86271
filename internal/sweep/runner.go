// Package sweep runs ingestion followed by dispatch across sellers.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ReviewSend/internal/dispatch"
	"ReviewSend/internal/ingest"
	"ReviewSend/internal/metrics"
	"ReviewSend/internal/models"
	"ReviewSend/internal/worker"
)

var ErrSellerNotFound = errors.New("seller not found")

type SellerStore interface {
	GetSeller(ctx context.Context, id int64) (*models.Seller, error)
	ListActiveSellers(ctx context.Context) ([]models.Seller, error)
}

type Ingester interface {
	IngestSeller(ctx context.Context, seller models.Seller, since time.Time) (ingest.Result, error)
}

type Dispatcher interface {
	DispatchSeller(ctx context.Context, seller models.Seller) (dispatch.Result, error)
}

// Options scope a single run. Zero values mean all active sellers and the
// configured lookback.
type Options struct {
	SellerID int64
	Lookback time.Duration
}

type Report struct {
	Sellers       int `json:"sellers"`
	FetchFailures int `json:"fetch_failures"`
	Fetched       int `json:"fetched"`
	Ingested      int `json:"ingested"`
	Excluded      int `json:"excluded"`
	Duplicates    int `json:"duplicates"`
	OutsideWindow int `json:"outside_window"`
	Sent          int `json:"sent"`
	Skipped       int `json:"skipped"`
	NoTemplate    int `json:"no_template"`
	Failures      int `json:"failures"`
}

func (r *Report) addIngest(res ingest.Result) {
	r.Fetched += res.Fetched
	r.Ingested += res.Ingested
	r.Excluded += res.Excluded
	r.Duplicates += res.Duplicates
	r.Failures += res.Failures
}

func (r *Report) addDispatch(res dispatch.Result) {
	if res.OutsideWindow {
		r.OutsideWindow++
	}
	r.Sent += res.Sent
	r.Skipped += res.Skipped
	r.NoTemplate += res.NoTemplate
	r.Failures += res.Failures
}

func (r *Report) merge(o Report) {
	r.FetchFailures += o.FetchFailures
	r.Fetched += o.Fetched
	r.Ingested += o.Ingested
	r.Excluded += o.Excluded
	r.Duplicates += o.Duplicates
	r.OutsideWindow += o.OutsideWindow
	r.Sent += o.Sent
	r.Skipped += o.Skipped
	r.NoTemplate += o.NoTemplate
	r.Failures += o.Failures
}

type Runner struct {
	store      SellerStore
	ingester   Ingester
	dispatcher Dispatcher
	workers    int
	lookback   time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewRunner(
	store SellerStore,
	ingester Ingester,
	dispatcher Dispatcher,
	workers int,
	lookback time.Duration,
	logger *zap.Logger,
) *Runner {

	return &Runner{
		store:      store,
		ingester:   ingester,
		dispatcher: dispatcher,
		workers:    workers,
		lookback:   lookback,
		log:        logger,
		now:        time.Now,
	}
}

// Run performs one sweep. Only a failure to load sellers is returned; every
// per-seller problem is logged and counted in the report.
func (r *Runner) Run(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	sellers, err := r.sellers(ctx, opts.SellerID)
	if err != nil {
		return Report{}, err
	}

	lookback := opts.Lookback
	if lookback <= 0 {
		lookback = r.lookback
	}
	since := r.now().Add(-lookback)

	var mu sync.Mutex
	report := Report{Sellers: len(sellers)}

	worker.Run(ctx, r.workers, sellers, func(ctx context.Context, seller models.Seller) {
		var part Report
		r.runSeller(ctx, seller, since, &part)

		mu.Lock()
		report.merge(part)
		mu.Unlock()
	}, r.log)

	r.log.Info("sweep complete",
		zap.Int("sellers", report.Sellers),
		zap.Int("ingested", report.Ingested),
		zap.Int("sent", report.Sent),
		zap.Int("no_template", report.NoTemplate),
		zap.Int("failures", report.Failures),
		zap.Duration("elapsed", time.Since(start)),
	)

	return report, nil
}

func (r *Runner) sellers(ctx context.Context, sellerID int64) ([]models.Seller, error) {
	if sellerID == 0 {
		sellers, err := r.store.ListActiveSellers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sellers: %w", err)
		}
		return sellers, nil
	}

	seller, err := r.store.GetSeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("get seller %d: %w", sellerID, err)
	}
	if seller == nil || !seller.IsActive {
		return nil, fmt.Errorf("%w: %d", ErrSellerNotFound, sellerID)
	}
	return []models.Seller{*seller}, nil
}

func (r *Runner) runSeller(ctx context.Context, seller models.Seller, since time.Time, part *Report) {
	log := r.log.With(zap.Int64("seller_id", seller.ID))

	// ----------------------------
	// Ingest
	// ----------------------------
	if seller.CanIngest() {
		res, err := r.ingester.IngestSeller(ctx, seller, since)
		part.addIngest(res)
		if err != nil {
			log.Warn("order ingestion failed", zap.Error(err))
			part.FetchFailures++
		}
	}

	if ctx.Err() != nil {
		return
	}

	// ----------------------------
	// Dispatch
	// ----------------------------
	res, err := r.dispatcher.DispatchSeller(ctx, seller)
	part.addDispatch(res)
	if err != nil {
		log.Error("dispatch failed", zap.Error(err))
		part.Failures++
	}
}

// Start runs a sweep immediately and then on every tick until ctx is done.
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	r.log.Info("starting sweeps", zap.Duration("interval", interval))

	r.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("sweeps stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if _, err := r.Run(ctx, Options{}); err != nil {
		r.log.Error("sweep failed", zap.Error(err))
	}
}
