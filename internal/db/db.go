package db

import (
	"context"
	"fmt"
	"time"

	"ReviewSend/internal/config"
	"ReviewSend/internal/models"
)

// Store is the durable state of the service. Both backends guarantee that
// (seller_id, amazon_order_id, asin) is unique and that an order is marked
// sent at most once.
type Store interface {
	CreateSeller(ctx context.Context, s *models.Seller) error
	UpdateSellerSettings(ctx context.Context, sellerID int64, settings models.SellerSettings) error
	GetSeller(ctx context.Context, id int64) (*models.Seller, error)
	ListActiveSellers(ctx context.Context) ([]models.Seller, error)

	AddExcludedAsin(ctx context.Context, sellerID int64, asin string) error
	ExcludedAsins(ctx context.Context, sellerID int64) ([]string, error)

	CreateTemplate(ctx context.Context, t *models.Template) error
	CreateAsinTemplate(ctx context.Context, t *models.AsinTemplate) error
	ListTemplates(ctx context.Context, sellerID int64) ([]models.Template, error)
	ListAsinTemplates(ctx context.Context, sellerID int64) ([]models.AsinTemplate, error)

	InsertOrderIfAbsent(ctx context.Context, o *models.Order) (bool, error)
	FindOrderByUniqueKey(ctx context.Context, sellerID int64, amazonOrderID, asin string) (*models.Order, error)
	PendingOrders(ctx context.Context, sellerID int64, shippedBefore time.Time) ([]models.Order, error)

	ClaimOrder(ctx context.Context, orderID int64, token string, until, now time.Time) (bool, error)
	ReleaseClaim(ctx context.Context, orderID int64, token string) error
	MarkSent(ctx context.Context, orderID int64, token string, rec *models.SentEmailRecord) (bool, error)

	ListSentEmails(ctx context.Context, sellerID int64, limit, offset int) ([]models.SentEmailRecord, error)

	Close()
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)

// Open connects to the configured backend and creates the schema.
func Open(ctx context.Context, driver, url string) (Store, error) {
	switch driver {
	case config.DriverPostgres:
		s, err := NewPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		s, err := NewSQLite(url)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
