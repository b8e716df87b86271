package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ReviewSend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, conn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, err
	}

	s := &Postgres{Pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *Postgres) migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Postgres) Close() {
	s.Pool.Close()
}

func (s *Postgres) CreateSeller(ctx context.Context, seller *models.Seller) error {
	st := seller.Settings
	return s.Pool.QueryRow(ctx,
		`INSERT INTO sellers
		 (name, store_name, email, is_active, refresh_token, marketplace_id,
		  emailing_enabled, bcc_enabled, send_window_start, send_window_end,
		  send_fba, send_self_ship, send_used_items, copy_to_self, min_days_after_shipping, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW())
		 RETURNING id, created_at`,
		seller.Name,
		seller.StoreName,
		seller.Email,
		seller.IsActive,
		seller.RefreshToken,
		seller.MarketplaceID,
		st.EmailingEnabled,
		st.BCCEnabled,
		st.SendWindowStart,
		st.SendWindowEnd,
		st.SendFBA,
		st.SendSelfShip,
		st.SendUsedItems,
		st.CopyToSelf,
		st.MinDaysAfterShipping,
	).Scan(&seller.ID, &seller.CreatedAt)
}

func (s *Postgres) UpdateSellerSettings(
	ctx context.Context,
	sellerID int64,
	st models.SellerSettings,
) error {

	_, err := s.Pool.Exec(ctx,
		`UPDATE sellers
		 SET emailing_enabled=$1,
		     bcc_enabled=$2,
		     send_window_start=$3,
		     send_window_end=$4,
		     send_fba=$5,
		     send_self_ship=$6,
		     send_used_items=$7,
		     copy_to_self=$8,
		     min_days_after_shipping=$9
		 WHERE id=$10`,
		st.EmailingEnabled,
		st.BCCEnabled,
		st.SendWindowStart,
		st.SendWindowEnd,
		st.SendFBA,
		st.SendSelfShip,
		st.SendUsedItems,
		st.CopyToSelf,
		st.MinDaysAfterShipping,
		sellerID,
	)

	return err
}

func (s *Postgres) GetSeller(ctx context.Context, id int64) (*models.Seller, error) {
	seller, err := scanSeller(s.Pool.QueryRow(ctx,
		"SELECT "+sellerColumns+" FROM sellers WHERE id=$1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

func (s *Postgres) ListActiveSellers(ctx context.Context) ([]models.Seller, error) {
	rows, err := s.Pool.Query(ctx,
		"SELECT "+sellerColumns+" FROM sellers WHERE is_active ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sellers []models.Seller
	for rows.Next() {
		seller, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		sellers = append(sellers, seller)
	}
	return sellers, rows.Err()
}

func (s *Postgres) AddExcludedAsin(ctx context.Context, sellerID int64, asin string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO excluded_asins (seller_id, asin, created_at)
		 VALUES ($1,$2,NOW())
		 ON CONFLICT (seller_id, asin) DO NOTHING`,
		sellerID,
		asin,
	)
	return err
}

func (s *Postgres) ExcludedAsins(ctx context.Context, sellerID int64) ([]string, error) {
	rows, err := s.Pool.Query(ctx,
		"SELECT asin FROM excluded_asins WHERE seller_id=$1 ORDER BY asin", sellerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Postgres) CreateTemplate(ctx context.Context, t *models.Template) error {
	return s.Pool.QueryRow(ctx,
		`INSERT INTO templates
		 (seller_id, name, subject, content, is_default, days_after_shipping, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW())
		 RETURNING id, created_at`,
		t.SellerID,
		t.Name,
		t.Subject,
		t.Content,
		t.IsDefault,
		t.DaysAfterShipping,
	).Scan(&t.ID, &t.CreatedAt)
}

func (s *Postgres) CreateAsinTemplate(ctx context.Context, t *models.AsinTemplate) error {
	return s.Pool.QueryRow(ctx,
		`INSERT INTO asin_templates
		 (seller_id, asin, subject, content, referenced_template_id, days_after_shipping, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW())
		 RETURNING id, created_at`,
		t.SellerID,
		t.ASIN,
		t.Subject,
		t.Content,
		t.ReferencedTemplateID,
		t.DaysAfterShipping,
	).Scan(&t.ID, &t.CreatedAt)
}

func (s *Postgres) ListTemplates(ctx context.Context, sellerID int64) ([]models.Template, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, seller_id, name, subject, content, is_default, days_after_shipping, created_at
		 FROM templates WHERE seller_id=$1 ORDER BY id`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.SellerID, &t.Name, &t.Subject, &t.Content, &t.IsDefault,
			&t.DaysAfterShipping, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *Postgres) ListAsinTemplates(ctx context.Context, sellerID int64) ([]models.AsinTemplate, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, seller_id, asin, subject, content, referenced_template_id, days_after_shipping, created_at
		 FROM asin_templates WHERE seller_id=$1 ORDER BY id`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.AsinTemplate
	for rows.Next() {
		var t models.AsinTemplate
		if err := rows.Scan(&t.ID, &t.SellerID, &t.ASIN, &t.Subject, &t.Content, &t.ReferencedTemplateID,
			&t.DaysAfterShipping, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func scanPostgresOrder(row rowScanner) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.SellerID, &o.AmazonOrderID, &o.ASIN, &o.ProductName, &o.OrderDate, &o.ShippingDate,
		&o.BuyerEmail, &o.IsFBA, &o.IsUsed, &o.IsCanceled, &o.EligibleForEmail, &o.EmailSent, &o.SentAt, &o.CreatedAt)
	return o, err
}

func (s *Postgres) InsertOrderIfAbsent(ctx context.Context, o *models.Order) (bool, error) {
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO orders
		 (seller_id, amazon_order_id, asin, product_name, order_date, shipping_date,
		  buyer_email, is_fba, is_used, is_canceled, eligible_for_email, email_sent, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,FALSE,NOW())
		 ON CONFLICT (seller_id, amazon_order_id, asin) DO NOTHING
		 RETURNING id, created_at`,
		o.SellerID,
		o.AmazonOrderID,
		o.ASIN,
		o.ProductName,
		o.OrderDate,
		o.ShippingDate,
		o.BuyerEmail,
		o.IsFBA,
		o.IsUsed,
		o.IsCanceled,
		o.EligibleForEmail,
	).Scan(&o.ID, &o.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Postgres) FindOrderByUniqueKey(
	ctx context.Context,
	sellerID int64,
	amazonOrderID string,
	asin string,
) (*models.Order, error) {

	o, err := scanPostgresOrder(s.Pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE seller_id=$1 AND amazon_order_id=$2 AND asin=$3",
		sellerID, amazonOrderID, asin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Postgres) PendingOrders(ctx context.Context, sellerID int64, shippedBefore time.Time) ([]models.Order, error) {
	rows, err := s.Pool.Query(ctx,
		"SELECT "+orderColumns+` FROM orders
		 WHERE seller_id=$1
		   AND eligible_for_email
		   AND NOT email_sent
		   AND NOT is_canceled
		   AND buyer_email IS NOT NULL
		   AND shipping_date IS NOT NULL
		   AND shipping_date <= $2
		 ORDER BY shipping_date, id`,
		sellerID, shippedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanPostgresOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Postgres) ClaimOrder(
	ctx context.Context,
	orderID int64,
	token string,
	until time.Time,
	now time.Time,
) (bool, error) {

	tag, err := s.Pool.Exec(ctx,
		`UPDATE orders
		 SET claim_token=$1,
		     claim_expires_at=$2
		 WHERE id=$3
		   AND NOT email_sent
		   AND (claim_token IS NULL OR claim_expires_at < $4)`,
		token,
		until,
		orderID,
		now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Postgres) ReleaseClaim(ctx context.Context, orderID int64, token string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE orders
		 SET claim_token=NULL,
		     claim_expires_at=NULL
		 WHERE id=$1 AND claim_token=$2`,
		orderID,
		token,
	)
	return err
}

func (s *Postgres) MarkSent(
	ctx context.Context,
	orderID int64,
	token string,
	rec *models.SentEmailRecord,
) (bool, error) {

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE orders
		 SET email_sent=TRUE,
		     sent_at=$1,
		     claim_token=NULL,
		     claim_expires_at=NULL
		 WHERE id=$2 AND claim_token=$3 AND NOT email_sent`,
		rec.SentAt,
		orderID,
		token,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark order sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO sent_emails
		 (seller_id, order_id, amazon_order_id, asin, subject, content, sent_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		rec.SellerID,
		orderID,
		rec.AmazonOrderID,
		rec.ASIN,
		rec.Subject,
		rec.Content,
		rec.SentAt,
	).Scan(&rec.ID)
	if err != nil {
		return false, fmt.Errorf("failed to record sent email: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	rec.OrderID = orderID
	return true, nil
}

func (s *Postgres) ListSentEmails(
	ctx context.Context,
	sellerID int64,
	limit int,
	offset int,
) ([]models.SentEmailRecord, error) {

	rows, err := s.Pool.Query(ctx,
		`SELECT id, seller_id, order_id, amazon_order_id, asin, subject, content, sent_at
		 FROM sent_emails
		 WHERE seller_id=$1
		 ORDER BY sent_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		sellerID,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SentEmailRecord
	for rows.Next() {
		var r models.SentEmailRecord
		if err := rows.Scan(&r.ID, &r.SellerID, &r.OrderID, &r.AmazonOrderID, &r.ASIN, &r.Subject, &r.Content, &r.SentAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
