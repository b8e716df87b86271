package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ReviewSend/internal/metrics"
	"ReviewSend/internal/models"
	"ReviewSend/internal/spapi"
)

// OrderSource is the seller-scoped view of the Orders API.
type OrderSource interface {
	FetchOrders(ctx context.Context, cred models.Credential, since time.Time) ([]spapi.OrderHeader, error)
	FetchOrderItems(ctx context.Context, cred models.Credential, orderID string) ([]spapi.LineItem, error)
	FetchBuyerEmail(ctx context.Context, cred models.Credential, orderID string) (string, error)
}

type OrderStore interface {
	ExcludedAsins(ctx context.Context, sellerID int64) ([]string, error)
	// InsertOrderIfAbsent stores the order unless its unique triple exists.
	// It reports whether a row was created.
	InsertOrderIfAbsent(ctx context.Context, order *models.Order) (bool, error)
}

type Result struct {
	Fetched    int `json:"fetched"`
	Ingested   int `json:"ingested"`
	Excluded   int `json:"excluded"`
	Duplicates int `json:"duplicates"`
	Failures   int `json:"failures"`
}

type Ingester struct {
	source OrderSource
	store  OrderStore
	log    *zap.Logger
}

func NewIngester(source OrderSource, store OrderStore, logger *zap.Logger) *Ingester {
	return &Ingester{source: source, store: store, log: logger}
}

// IngestSeller pulls orders created after since and stores new line items.
// Only a failure to list orders or exclusions is returned; per-order
// failures are logged and counted.
func (i *Ingester) IngestSeller(ctx context.Context, seller models.Seller, since time.Time) (Result, error) {
	var res Result
	cred := seller.Credential()

	excludedList, err := i.store.ExcludedAsins(ctx, seller.ID)
	if err != nil {
		return res, fmt.Errorf("load excluded asins: %w", err)
	}
	excluded := NewAsinSet(excludedList)

	headers, err := i.source.FetchOrders(ctx, cred, since)
	if err != nil {
		metrics.FetchFailures.Inc()
		return res, fmt.Errorf("fetch orders: %w", err)
	}

	for _, header := range headers {
		if err := ctx.Err(); err != nil {
			return res, nil
		}

		log := i.log.With(
			zap.Int64("seller_id", seller.ID),
			zap.String("amazon_order_id", header.AmazonOrderID),
		)

		items, err := i.source.FetchOrderItems(ctx, cred, header.AmazonOrderID)
		if err != nil {
			log.Warn("failed to fetch order items", zap.Error(err))
			metrics.FetchFailures.Inc()
			res.Failures++
			continue
		}

		var lookedUp string
		if InlineBuyerEmail(header) == "" && anyIngestible(items, excluded) {
			lookedUp, err = i.source.FetchBuyerEmail(ctx, cred, header.AmazonOrderID)
			if err != nil {
				log.Warn("buyer info lookup failed", zap.Error(err))
			}
		}

		for _, draft := range Normalize(header, items, lookedUp) {
			res.Fetched++

			if excluded.Contains(draft.ASIN) {
				res.Excluded++
				continue
			}

			order := models.NewOrder(seller.ID, draft, Decide(draft, seller.Settings))

			inserted, err := i.store.InsertOrderIfAbsent(ctx, &order)
			if err != nil {
				log.Error("failed to store order",
					zap.String("asin", draft.ASIN),
					zap.Error(err),
				)
				res.Failures++
				continue
			}
			if !inserted {
				res.Duplicates++
				continue
			}

			res.Ingested++
			metrics.OrdersIngested.Inc()
			log.Debug("order stored",
				zap.String("asin", order.ASIN),
				zap.Bool("eligible", order.EligibleForEmail),
			)
		}
	}

	return res, nil
}

func anyIngestible(items []spapi.LineItem, excluded AsinSet) bool {
	for _, item := range items {
		asin := strings.TrimSpace(item.ASIN)
		if asin != "" && !excluded.Contains(asin) {
			return true
		}
	}
	return false
}
