// Package dispatch sends due review requests for a seller.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ReviewSend/internal/metrics"
	"ReviewSend/internal/models"
	"ReviewSend/internal/resolver"
)

type Store interface {
	ClaimStore
	PendingOrders(ctx context.Context, sellerID int64, shippedBefore time.Time) ([]models.Order, error)
	ListTemplates(ctx context.Context, sellerID int64) ([]models.Template, error)
	ListAsinTemplates(ctx context.Context, sellerID int64) ([]models.AsinTemplate, error)
}

type Result struct {
	OutsideWindow bool `json:"outside_window,omitempty"`
	Due           int  `json:"due"`
	Sent          int  `json:"sent"`
	Skipped       int  `json:"skipped"`
	NoTemplate    int  `json:"no_template"`
	Failures      int  `json:"failures"`
}

type Dispatcher struct {
	store    Store
	resolver *resolver.Resolver
	sender   *Sender
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
}

func NewDispatcher(store Store, r *resolver.Resolver, sender *Sender, loc *time.Location, logger *zap.Logger) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		store:    store,
		resolver: r,
		sender:   sender,
		loc:      loc,
		log:      logger,
		now:      time.Now,
	}
}

// DispatchSeller sends every due review request for the seller. Only a
// failure to load candidates or templates is returned.
func (d *Dispatcher) DispatchSeller(ctx context.Context, seller models.Seller) (Result, error) {
	var res Result
	st := seller.Settings
	now := d.now()

	if !st.EmailingEnabled {
		return res, nil
	}
	if !st.InWindow(now.In(d.loc).Hour()) {
		res.OutsideWindow = true
		return res, nil
	}

	// Threshold sends catch up on anything at least MinDaysAfterShipping old.
	// Exact-day matching leaves the day filter to the resolver.
	cutoff := now
	if !d.resolver.KeyedByDay() {
		cutoff = now.Add(-time.Duration(st.MinDaysAfterShipping) * 24 * time.Hour)
	}

	orders, err := d.store.PendingOrders(ctx, seller.ID, cutoff)
	if err != nil {
		return res, fmt.Errorf("load pending orders: %w", err)
	}
	if len(orders) == 0 {
		return res, nil
	}

	set, err := d.loadTemplates(ctx, seller.ID)
	if err != nil {
		return res, err
	}

	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}

		match, ok := d.resolver.Resolve(order, set, now)
		if !ok {
			res.NoTemplate++
			metrics.TemplateMisses.Inc()
			d.log.Info("no template for due order",
				zap.Int64("seller_id", seller.ID),
				zap.String("amazon_order_id", order.AmazonOrderID),
				zap.String("asin", order.ASIN),
				zap.Int("days_since_shipping", order.DaysSinceShipping(now)),
			)
			continue
		}

		res.Due++
		switch d.sender.Send(ctx, order, seller, match) {
		case OutcomeSent:
			res.Sent++
		case OutcomeFailed:
			res.Failures++
		default:
			res.Skipped++
		}
	}

	return res, nil
}

func (d *Dispatcher) loadTemplates(ctx context.Context, sellerID int64) (*resolver.Set, error) {
	templates, err := d.store.ListTemplates(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	asinTemplates, err := d.store.ListAsinTemplates(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("load asin templates: %w", err)
	}
	return &resolver.Set{Templates: templates, AsinTemplates: asinTemplates}, nil
}
