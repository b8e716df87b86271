package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ReviewSend/internal/models"
)

// SQLite keeps all state in a single database file.
type SQLite struct {
	conn *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers; the claim and mark-sent updates
	// rely on it.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func (db *SQLite) migrate() error {
	if _, err := db.conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (db *SQLite) Close() {
	db.conn.Close()
}

// SQLite compares timestamps as text, so every stored time is UTC with whole seconds.
func sqliteTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func sqliteNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return sqliteTime(*t)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Seller operations

const sellerColumns = `id, name, store_name, email, is_active, refresh_token, marketplace_id,
	emailing_enabled, bcc_enabled, send_window_start, send_window_end,
	send_fba, send_self_ship, send_used_items, copy_to_self, min_days_after_shipping, created_at`

func scanSeller(row rowScanner) (models.Seller, error) {
	var s models.Seller
	st := &s.Settings
	err := row.Scan(&s.ID, &s.Name, &s.StoreName, &s.Email, &s.IsActive, &s.RefreshToken, &s.MarketplaceID,
		&st.EmailingEnabled, &st.BCCEnabled, &st.SendWindowStart, &st.SendWindowEnd,
		&st.SendFBA, &st.SendSelfShip, &st.SendUsedItems, &st.CopyToSelf, &st.MinDaysAfterShipping, &s.CreatedAt)
	return s, err
}

func (db *SQLite) CreateSeller(ctx context.Context, s *models.Seller) error {
	st := s.Settings
	s.CreatedAt = sqliteTime(time.Now())
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO sellers (name, store_name, email, is_active, refresh_token, marketplace_id,
			emailing_enabled, bcc_enabled, send_window_start, send_window_end,
			send_fba, send_self_ship, send_used_items, copy_to_self, min_days_after_shipping, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.StoreName, s.Email, s.IsActive, s.RefreshToken, s.MarketplaceID,
		st.EmailingEnabled, st.BCCEnabled, st.SendWindowStart, st.SendWindowEnd,
		st.SendFBA, st.SendSelfShip, st.SendUsedItems, st.CopyToSelf, st.MinDaysAfterShipping, s.CreatedAt,
	)
	if err != nil {
		return err
	}
	s.ID, err = result.LastInsertId()
	return err
}

func (db *SQLite) UpdateSellerSettings(ctx context.Context, sellerID int64, st models.SellerSettings) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sellers SET emailing_enabled = ?, bcc_enabled = ?, send_window_start = ?, send_window_end = ?,
			send_fba = ?, send_self_ship = ?, send_used_items = ?, copy_to_self = ?, min_days_after_shipping = ?
		 WHERE id = ?`,
		st.EmailingEnabled, st.BCCEnabled, st.SendWindowStart, st.SendWindowEnd,
		st.SendFBA, st.SendSelfShip, st.SendUsedItems, st.CopyToSelf, st.MinDaysAfterShipping,
		sellerID,
	)
	return err
}

func (db *SQLite) GetSeller(ctx context.Context, id int64) (*models.Seller, error) {
	s, err := scanSeller(db.conn.QueryRowContext(ctx,
		"SELECT "+sellerColumns+" FROM sellers WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *SQLite) ListActiveSellers(ctx context.Context) ([]models.Seller, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+sellerColumns+" FROM sellers WHERE is_active = ? ORDER BY id", true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sellers []models.Seller
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		sellers = append(sellers, s)
	}
	return sellers, rows.Err()
}

// ExcludedAsin operations

func (db *SQLite) AddExcludedAsin(ctx context.Context, sellerID int64, asin string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO excluded_asins (seller_id, asin, created_at) VALUES (?, ?, ?)",
		sellerID, asin, sqliteTime(time.Now()),
	)
	return err
}

func (db *SQLite) ExcludedAsins(ctx context.Context, sellerID int64) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT asin FROM excluded_asins WHERE seller_id = ? ORDER BY asin", sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var asins []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		asins = append(asins, a)
	}
	return asins, rows.Err()
}

// Template operations

func (db *SQLite) CreateTemplate(ctx context.Context, t *models.Template) error {
	t.CreatedAt = sqliteTime(time.Now())
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO templates (seller_id, name, subject, content, is_default, days_after_shipping, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.SellerID, t.Name, t.Subject, t.Content, t.IsDefault, t.DaysAfterShipping, t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.ID, err = result.LastInsertId()
	return err
}

func (db *SQLite) CreateAsinTemplate(ctx context.Context, t *models.AsinTemplate) error {
	t.CreatedAt = sqliteTime(time.Now())
	var ref any
	if t.ReferencedTemplateID != nil {
		ref = *t.ReferencedTemplateID
	}
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO asin_templates (seller_id, asin, subject, content, referenced_template_id, days_after_shipping, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.SellerID, t.ASIN, t.Subject, t.Content, ref, t.DaysAfterShipping, t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.ID, err = result.LastInsertId()
	return err
}

func (db *SQLite) ListTemplates(ctx context.Context, sellerID int64) ([]models.Template, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, seller_id, name, subject, content, is_default, days_after_shipping, created_at
		 FROM templates WHERE seller_id = ? ORDER BY id`, sellerID)
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

func (db *SQLite) ListAsinTemplates(ctx context.Context, sellerID int64) ([]models.AsinTemplate, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, seller_id, asin, subject, content, referenced_template_id, days_after_shipping, created_at
		 FROM asin_templates WHERE seller_id = ? ORDER BY id`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.AsinTemplate
	for rows.Next() {
		var t models.AsinTemplate
		var ref sql.NullInt64
		if err := rows.Scan(&t.ID, &t.SellerID, &t.ASIN, &t.Subject, &t.Content, &ref,
			&t.DaysAfterShipping, &t.CreatedAt); err != nil {
			return nil, err
		}
		if ref.Valid {
			t.ReferencedTemplateID = &ref.Int64
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Order operations

const orderColumns = `id, seller_id, amazon_order_id, asin, product_name, order_date, shipping_date,
	buyer_email, is_fba, is_used, is_canceled, eligible_for_email, email_sent, sent_at, created_at`

func scanSQLiteOrder(row rowScanner) (models.Order, error) {
	var o models.Order
	var shipping, sent sql.NullTime
	var buyer sql.NullString
	err := row.Scan(&o.ID, &o.SellerID, &o.AmazonOrderID, &o.ASIN, &o.ProductName, &o.OrderDate, &shipping,
		&buyer, &o.IsFBA, &o.IsUsed, &o.IsCanceled, &o.EligibleForEmail, &o.EmailSent, &sent, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	o.OrderDate = o.OrderDate.UTC()
	o.ShippingDate = timePtr(shipping)
	o.BuyerEmail = stringPtr(buyer)
	o.SentAt = timePtr(sent)
	return o, nil
}

func (db *SQLite) InsertOrderIfAbsent(ctx context.Context, o *models.Order) (bool, error) {
	o.CreatedAt = sqliteTime(time.Now())
	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO orders (seller_id, amazon_order_id, asin, product_name, order_date, shipping_date,
			buyer_email, is_fba, is_used, is_canceled, eligible_for_email, email_sent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.SellerID, o.AmazonOrderID, o.ASIN, o.ProductName, sqliteTime(o.OrderDate), sqliteNullTime(o.ShippingDate),
		nullString(o.BuyerEmail), o.IsFBA, o.IsUsed, o.IsCanceled, o.EligibleForEmail, false, o.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}
	o.ID, err = result.LastInsertId()
	return err == nil, err
}

func (db *SQLite) FindOrderByUniqueKey(ctx context.Context, sellerID int64, amazonOrderID, asin string) (*models.Order, error) {
	o, err := scanSQLiteOrder(db.conn.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE seller_id = ? AND amazon_order_id = ? AND asin = ?",
		sellerID, amazonOrderID, asin))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (db *SQLite) PendingOrders(ctx context.Context, sellerID int64, shippedBefore time.Time) ([]models.Order, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+orderColumns+` FROM orders
		 WHERE seller_id = ?
		   AND eligible_for_email = ?
		   AND email_sent = ?
		   AND is_canceled = ?
		   AND buyer_email IS NOT NULL
		   AND shipping_date IS NOT NULL
		   AND shipping_date <= ?
		 ORDER BY shipping_date, id`,
		sellerID, true, false, false, sqliteTime(shippedBefore))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (db *SQLite) ClaimOrder(ctx context.Context, orderID int64, token string, until, now time.Time) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE orders SET claim_token = ?, claim_expires_at = ?
		 WHERE id = ? AND email_sent = ? AND (claim_token IS NULL OR claim_expires_at < ?)`,
		token, sqliteTime(until), orderID, false, sqliteTime(now),
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n == 1, err
}

func (db *SQLite) ReleaseClaim(ctx context.Context, orderID int64, token string) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE orders SET claim_token = NULL, claim_expires_at = NULL WHERE id = ? AND claim_token = ?",
		orderID, token,
	)
	return err
}

func (db *SQLite) MarkSent(ctx context.Context, orderID int64, token string, rec *models.SentEmailRecord) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	sentAt := sqliteTime(rec.SentAt)
	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET email_sent = ?, sent_at = ?, claim_token = NULL, claim_expires_at = NULL
		 WHERE id = ? AND claim_token = ? AND email_sent = ?`,
		true, sentAt, orderID, token, false,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark order sent: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO sent_emails (seller_id, order_id, amazon_order_id, asin, subject, content, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SellerID, orderID, rec.AmazonOrderID, rec.ASIN, rec.Subject, rec.Content, sentAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record sent email: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	rec.ID, _ = result.LastInsertId()
	rec.OrderID = orderID
	rec.SentAt = sentAt
	return true, nil
}

// SentEmailRecord operations

func (db *SQLite) ListSentEmails(ctx context.Context, sellerID int64, limit, offset int) ([]models.SentEmailRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, seller_id, order_id, amazon_order_id, asin, subject, content, sent_at
		 FROM sent_emails WHERE seller_id = ? ORDER BY sent_at DESC, id DESC LIMIT ? OFFSET ?`,
		sellerID, limit, offset)
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
		r.SentAt = r.SentAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}
