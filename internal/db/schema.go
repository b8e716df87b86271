package db

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sellers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		store_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		refresh_token TEXT NOT NULL DEFAULT '',
		marketplace_id TEXT NOT NULL DEFAULT '',
		emailing_enabled INTEGER NOT NULL DEFAULT 0,
		bcc_enabled INTEGER NOT NULL DEFAULT 0,
		send_window_start INTEGER NOT NULL DEFAULT 7,
		send_window_end INTEGER NOT NULL DEFAULT 23,
		send_fba INTEGER NOT NULL DEFAULT 1,
		send_self_ship INTEGER NOT NULL DEFAULT 1,
		send_used_items INTEGER NOT NULL DEFAULT 0,
		copy_to_self INTEGER NOT NULL DEFAULT 0,
		min_days_after_shipping INTEGER NOT NULL DEFAULT 7,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS excluded_asins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_id INTEGER NOT NULL,
		asin TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (seller_id, asin),
		FOREIGN KEY (seller_id) REFERENCES sellers(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		days_after_shipping INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (seller_id) REFERENCES sellers(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS asin_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_id INTEGER NOT NULL,
		asin TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		referenced_template_id INTEGER,
		days_after_shipping INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (seller_id) REFERENCES sellers(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_id INTEGER NOT NULL,
		amazon_order_id TEXT NOT NULL,
		asin TEXT NOT NULL,
		product_name TEXT NOT NULL,
		order_date DATETIME NOT NULL,
		shipping_date DATETIME,
		buyer_email TEXT,
		is_fba INTEGER NOT NULL DEFAULT 0,
		is_used INTEGER NOT NULL DEFAULT 0,
		is_canceled INTEGER NOT NULL DEFAULT 0,
		eligible_for_email INTEGER NOT NULL DEFAULT 0,
		email_sent INTEGER NOT NULL DEFAULT 0,
		sent_at DATETIME,
		claim_token TEXT,
		claim_expires_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (seller_id, amazon_order_id, asin),
		FOREIGN KEY (seller_id) REFERENCES sellers(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS sent_emails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_id INTEGER NOT NULL,
		order_id INTEGER NOT NULL,
		amazon_order_id TEXT NOT NULL,
		asin TEXT NOT NULL,
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		sent_at DATETIME NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_one_default ON templates(seller_id) WHERE is_default = 1`,
	`CREATE INDEX IF NOT EXISTS idx_orders_pending ON orders(seller_id, email_sent, shipping_date)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_sent_emails_order ON sent_emails(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sent_emails_seller ON sent_emails(seller_id, sent_at DESC)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sellers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		store_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		refresh_token TEXT NOT NULL DEFAULT '',
		marketplace_id TEXT NOT NULL DEFAULT '',
		emailing_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		bcc_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		send_window_start INT NOT NULL DEFAULT 7,
		send_window_end INT NOT NULL DEFAULT 23,
		send_fba BOOLEAN NOT NULL DEFAULT TRUE,
		send_self_ship BOOLEAN NOT NULL DEFAULT TRUE,
		send_used_items BOOLEAN NOT NULL DEFAULT FALSE,
		copy_to_self BOOLEAN NOT NULL DEFAULT FALSE,
		min_days_after_shipping INT NOT NULL DEFAULT 7,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS excluded_asins (
		id BIGSERIAL PRIMARY KEY,
		seller_id BIGINT NOT NULL REFERENCES sellers(id) ON DELETE CASCADE,
		asin TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (seller_id, asin)
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		id BIGSERIAL PRIMARY KEY,
		seller_id BIGINT NOT NULL REFERENCES sellers(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		days_after_shipping INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS asin_templates (
		id BIGSERIAL PRIMARY KEY,
		seller_id BIGINT NOT NULL REFERENCES sellers(id) ON DELETE CASCADE,
		asin TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		referenced_template_id BIGINT,
		days_after_shipping INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		seller_id BIGINT NOT NULL REFERENCES sellers(id) ON DELETE CASCADE,
		amazon_order_id TEXT NOT NULL,
		asin TEXT NOT NULL,
		product_name TEXT NOT NULL,
		order_date TIMESTAMPTZ NOT NULL,
		shipping_date TIMESTAMPTZ,
		buyer_email TEXT,
		is_fba BOOLEAN NOT NULL DEFAULT FALSE,
		is_used BOOLEAN NOT NULL DEFAULT FALSE,
		is_canceled BOOLEAN NOT NULL DEFAULT FALSE,
		eligible_for_email BOOLEAN NOT NULL DEFAULT FALSE,
		email_sent BOOLEAN NOT NULL DEFAULT FALSE,
		sent_at TIMESTAMPTZ,
		claim_token TEXT,
		claim_expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (seller_id, amazon_order_id, asin)
	)`,
	`CREATE TABLE IF NOT EXISTS sent_emails (
		id BIGSERIAL PRIMARY KEY,
		seller_id BIGINT NOT NULL,
		order_id BIGINT NOT NULL REFERENCES orders(id),
		amazon_order_id TEXT NOT NULL,
		asin TEXT NOT NULL,
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_one_default ON templates(seller_id) WHERE is_default`,
	`CREATE INDEX IF NOT EXISTS idx_orders_pending ON orders(seller_id, email_sent, shipping_date)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_sent_emails_order ON sent_emails(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sent_emails_seller ON sent_emails(seller_id, sent_at DESC)`,
}
